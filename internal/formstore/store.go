// Package formstore keeps partially filled observation forms per user so an
// observer can leave a card and come back to it.
package formstore

import (
	"maps"
	"sync"
	"time"
)

// Forms that may hold a draft.
const (
	FormFirstStage  = "first-stage"
	FormSecondStage = "second-stage"
)

// ValidForm reports whether form names a form that can be drafted.
func ValidForm(form string) bool {
	return form == FormFirstStage || form == FormSecondStage
}

// Key identifies the draft of one form of one user.
func Key(userID, form string) string {
	return userID + "/" + form
}

// Draft is the last saved state of a form.
type Draft struct {
	Fields    map[string]string `json:"fields"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type Store interface {
	// Get returns the draft under key. A draft older than the TTL is reset
	// and reported missing.
	Get(key string) (Draft, bool)
	// Merge overlays fields onto the draft. An empty value clears that field.
	Merge(key string, fields map[string]string) Draft
	// Replace overwrites the draft with fields.
	Replace(key string, fields map[string]string) Draft
	Reset(key string)
	// Sweep resets every expired draft and returns how many it removed.
	Sweep() int
}

// MemoryStore is a concurrency-safe in-memory Store.
type MemoryStore struct {
	mu     sync.Mutex
	drafts map[string]Draft
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryStore returns a store whose drafts expire ttl after their last
// write. A ttl <= 0 keeps drafts forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		drafts: make(map[string]Draft),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *MemoryStore) Get(key string) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.live(key)
	if !ok {
		return Draft{}, false
	}
	return Draft{Fields: maps.Clone(d.Fields), UpdatedAt: d.UpdatedAt}, true
}

func (s *MemoryStore) Merge(key string, fields map[string]string) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.live(key)
	if !ok || d.Fields == nil {
		d.Fields = make(map[string]string, len(fields))
	}
	for k, v := range fields {
		if v == "" {
			delete(d.Fields, k)
			continue
		}
		d.Fields[k] = v
	}
	return s.write(key, d.Fields)
}

func (s *MemoryStore) Replace(key string, fields map[string]string) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(fields))
	for k, v := range fields {
		if v != "" {
			next[k] = v
		}
	}
	return s.write(key, next)
}

func (s *MemoryStore) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, key)
}

func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, d := range s.drafts {
		if s.expired(d) {
			delete(s.drafts, key)
			n++
		}
	}
	return n
}

// Len returns the number of stored drafts, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

// live returns the draft under key, dropping it first if it has expired.
// Callers hold s.mu.
func (s *MemoryStore) live(key string) (Draft, bool) {
	d, ok := s.drafts[key]
	if !ok {
		return Draft{}, false
	}
	if s.expired(d) {
		delete(s.drafts, key)
		return Draft{}, false
	}
	return d, true
}

func (s *MemoryStore) expired(d Draft) bool {
	return s.ttl > 0 && !s.now().Before(d.UpdatedAt.Add(s.ttl))
}

func (s *MemoryStore) write(key string, fields map[string]string) Draft {
	d := Draft{Fields: fields, UpdatedAt: s.now()}
	s.drafts[key] = d
	return Draft{Fields: maps.Clone(fields), UpdatedAt: d.UpdatedAt}
}
