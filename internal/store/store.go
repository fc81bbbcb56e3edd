// Package store is the single source of truth for visit data: an in-memory
// map of posts to their visit histories, persisted to a flat JSON file
// through a write-coalescing saver.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"beacon/internal/constants"
)

// ErrInvalidPostID is returned when a visit names a post id that is empty,
// too long, or fails the id pattern.
var ErrInvalidPostID = errors.New("invalid post id")

// postIDPattern is the YYYY/MM/DD/slug shape enforced when id validation is
// enabled. Slugs are restricted to alphanumerics, underscore and dash.
var postIDPattern = regexp.MustCompile(`^[0-9]{4}/[0-9]{2}/[0-9]{2}/[A-Za-z0-9_-]+$`)

// Visit is one recorded page view. Immutable once appended.
type Visit struct {
	Timestamp int64  `json:"timestamp"` // ms since epoch
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`
	PostID    string `json:"postId"`
	Referrer  string `json:"referrer"`
}

// Post holds a post's retained visit window and its lifetime counter.
// NumVisits counts every visit ever recorded and is never decremented;
// Visits is pruned to the retention window by the sweeper, so
// NumVisits >= len(Visits) always holds.
type Post struct {
	NumVisits int     `json:"numVisits"`
	Visits    []Visit `json:"visits"`
}

// fileData is the durable JSON shape: {"posts": {...}}.
type fileData struct {
	Posts map[string]*Post `json:"posts"`
}

// Store owns the posts map. All access goes through its mutex; posts are
// never deleted, only their visit windows shrink.
type Store struct {
	mu          sync.Mutex
	posts       map[string]*Post
	saver       *Saver
	validateIDs bool

	now func() time.Time // test seam
}

// Open loads the store from path, or initializes an empty store and persists
// it immediately when the file does not exist yet. Any other read or parse
// failure is returned to the caller, which should treat it as fatal.
func Open(path string, validateIDs bool) (*Store, error) {
	s := &Store{
		posts:       make(map[string]*Post),
		validateIDs: validateIDs,
		now:         time.Now,
	}
	s.saver = NewSaver(path, s.marshal)

	buf, err := os.ReadFile(path)
	switch {
	case err == nil:
		var data fileData
		if err := json.Unmarshal(buf, &data); err != nil {
			return nil, fmt.Errorf("failed to parse data file %s: %w", path, err)
		}
		if data.Posts != nil {
			s.posts = data.Posts
		}
	case os.IsNotExist(err):
		s.Save()
		s.Flush()
	default:
		return nil, fmt.Errorf("failed to read data file %s: %w", path, err)
	}

	return s, nil
}

// RecordVisit validates and records one visit for rawID, stamped with the
// current time, and schedules a save. It returns the visit as stored.
//
// The id is percent-decoded and stripped of one leading and one trailing
// slash before validation. A referrer without a resolvable host is stored
// as the empty string.
func (s *Store) RecordVisit(rawID, ip, userAgent, referrer string) (Visit, error) {
	id, err := s.normalizePostID(rawID)
	if err != nil {
		return Visit{}, err
	}

	if referrer != "" {
		if u, err := url.Parse(referrer); err != nil || u.Hostname() == "" {
			referrer = ""
		}
	}

	visit := Visit{
		Timestamp: s.now().UnixMilli(),
		IP:        ip,
		UserAgent: userAgent,
		PostID:    id,
		Referrer:  referrer,
	}

	s.mu.Lock()
	post, ok := s.posts[id]
	if !ok {
		post = &Post{Visits: []Visit{}}
		s.posts[id] = post
	}
	// Records written before the counter existed load with NumVisits 0;
	// backfill before counting so the invariant holds between sweeps.
	if post.NumVisits < len(post.Visits) {
		post.NumVisits = len(post.Visits)
	}
	post.Visits = append(post.Visits, visit)
	post.NumVisits++
	s.mu.Unlock()

	s.Save()
	return visit, nil
}

func (s *Store) normalizePostID(rawID string) (string, error) {
	id, err := url.PathUnescape(rawID)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPostID, rawID)
	}

	id = strings.TrimPrefix(id, "/")
	id = strings.TrimSuffix(id, "/")

	if id == "" || len(id) > constants.MaxPostIDLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidPostID, rawID)
	}
	if s.validateIDs && !postIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPostID, rawID)
	}
	return id, nil
}

// Prune trims each post's visit window to events at or after cutoff. Visits
// are assumed time-ordered, so this is a prefix trim. Posts whose NumVisits
// lags the retained window (records written before the counter existed) are
// backfilled first; the counter itself is never decremented.
func (s *Store) Prune(cutoff time.Time) {
	cut := cutoff.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, post := range s.posts {
		if post.NumVisits < len(post.Visits) {
			post.NumVisits = len(post.Visits)
		}

		i := 0
		for i < len(post.Visits) && post.Visits[i].Timestamp < cut {
			i++
		}
		if i > 0 {
			post.Visits = append([]Visit{}, post.Visits[i:]...)
		}
	}
}

// View runs fn with the posts map while holding the store lock. fn must not
// mutate the map or retain references past its return.
func (s *Store) View(fn func(posts map[string]*Post)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.posts)
}

// Save schedules an asynchronous durable write of the current state.
// Bursts of saves are coalesced by the saver.
func (s *Store) Save() {
	s.saver.Save()
}

// Flush blocks until no durable write is in flight or pending.
func (s *Store) Flush() {
	s.saver.Flush()
}

// marshal snapshots the store as durable JSON. Called by the saver at the
// start of every write, so a coalesced follow-up write always captures the
// latest state.
func (s *Store) marshal() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(fileData{Posts: s.posts})
}
