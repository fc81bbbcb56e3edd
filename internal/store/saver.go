package store

import (
	"log"
	"os"
	"sync"
)

// Saver serializes durable writes for one file. At most one write is in
// flight; Save calls arriving during a write set a pending flag and return
// immediately. When the write completes, exactly one follow-up write is
// issued if the flag was set, capturing the then-current state. This bounds
// a burst of N saves to at most two writes.
//
// A failed write is logged and both flags are cleared without scheduling a
// retry; the in-memory store stays authoritative and the next mutation will
// attempt a fresh write.
type Saver struct {
	mu      sync.Mutex
	cond    *sync.Cond
	path    string
	writing bool
	pending bool

	source  func() ([]byte, error)
	writeFn func(path string, data []byte) error // test seam
}

// NewSaver creates a saver for path. source is invoked at the start of each
// write to snapshot the current state.
func NewSaver(path string, source func() ([]byte, error)) *Saver {
	s := &Saver{
		path:   path,
		source: source,
		writeFn: func(path string, data []byte) error {
			return os.WriteFile(path, data, 0644)
		},
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Save requests a durable write. It never blocks the caller: if a write is
// already in flight the request is folded into the pending flag.
func (s *Saver) Save() {
	s.mu.Lock()
	if s.writing {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.writing = true
	s.mu.Unlock()

	go s.write()
}

func (s *Saver) write() {
	for {
		data, err := s.source()
		if err == nil {
			err = s.writeFn(s.path, data)
		}
		if err != nil {
			log.Printf("Could not save data to %s: %v", s.path, err)
		}

		s.mu.Lock()
		if err != nil || !s.pending {
			s.writing = false
			s.pending = false
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
		s.pending = false
		s.mu.Unlock()
	}
}

// Flush blocks until the saver is idle.
func (s *Saver) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.writing {
		s.cond.Wait()
	}
}
