package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaver_WritesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	s := NewSaver(path, func() ([]byte, error) {
		return []byte(`{"posts":{}}`), nil
	})

	s.Save()
	s.Flush()

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"posts":{}}`, string(buf))
}

func TestSaver_CoalescesBursts(t *testing.T) {
	var (
		mu      sync.Mutex
		writes  []string
		state   = "v0"
		started = make(chan struct{})
		release = make(chan struct{})
	)

	s := NewSaver("unused", func() ([]byte, error) {
		mu.Lock()
		defer mu.Unlock()
		return []byte(state), nil
	})
	s.writeFn = func(_ string, data []byte) error {
		mu.Lock()
		first := len(writes) == 0
		writes = append(writes, string(data))
		mu.Unlock()
		if first {
			close(started)
			<-release // hold the first write in flight
		}
		return nil
	}

	s.Save()
	<-started

	// burst of mutations while the first write is in flight
	for i := 0; i < 10; i++ {
		mu.Lock()
		state = "v1"
		mu.Unlock()
		s.Save()
	}
	close(release)
	s.Flush()

	mu.Lock()
	defer mu.Unlock()
	// at most the in-flight write plus one coalesced follow-up
	require.Len(t, writes, 2)
	assert.Equal(t, "v0", writes[0])
	// the follow-up captured the latest state, not the state at call time
	assert.Equal(t, "v1", writes[1])
}

func TestSaver_IdleAfterWrite(t *testing.T) {
	var (
		mu     sync.Mutex
		writes int
	)

	s := NewSaver("unused", func() ([]byte, error) { return []byte("x"), nil })
	s.writeFn = func(string, []byte) error {
		mu.Lock()
		writes++
		mu.Unlock()
		return nil
	}

	s.Save()
	s.Flush()
	s.Save()
	s.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, writes)
}

func TestSaver_FailureClearsFlags(t *testing.T) {
	var (
		mu     sync.Mutex
		writes int
		fail   = true
	)

	s := NewSaver("unused", func() ([]byte, error) { return []byte("x"), nil })
	s.writeFn = func(string, []byte) error {
		mu.Lock()
		defer mu.Unlock()
		writes++
		if fail {
			return errors.New("disk full")
		}
		return nil
	}

	s.Save()
	s.Flush()

	mu.Lock()
	assert.Equal(t, 1, writes)
	fail = false
	mu.Unlock()

	// no retry was scheduled; the next save writes fresh
	s.Save()
	s.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, writes)
}

func TestSaver_FailureDropsPending(t *testing.T) {
	var (
		mu      sync.Mutex
		writes  int
		started = make(chan struct{})
		release = make(chan struct{})
	)

	s := NewSaver("unused", func() ([]byte, error) { return []byte("x"), nil })
	s.writeFn = func(string, []byte) error {
		mu.Lock()
		writes++
		first := writes == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
			return errors.New("disk full")
		}
		return nil
	}

	s.Save()
	<-started
	s.Save() // sets the pending flag
	close(release)
	s.Flush()

	// the failure cleared both flags without issuing the follow-up
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, writes)
}
