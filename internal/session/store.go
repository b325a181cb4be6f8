// Package session keeps volatile, in-process conversation transcripts
// keyed by opaque tokens. Sessions expire after a TTL of inactivity and
// the least recently updated ones are evicted when the store is full.
package session

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"interview-coach/internal/llm"
)

const (
	DefaultTTL         = 6 * time.Hour
	DefaultMaxSessions = 5000
	DefaultIDPrefix    = "sess_"
)

type Options struct {
	TTL         time.Duration
	MaxSessions int
	IDPrefix    string
	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

// Session is a read-only snapshot of a stored session.
type Session struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Messages  []llm.Message `json:"messages"`
}

type entry struct {
	createdAt time.Time
	updatedAt time.Time
	seq       uint64
	messages  []llm.Message
}

// SweepStats reports what a garbage collection pass removed.
type SweepStats struct {
	Expired   int
	Evicted   int
	Remaining int
}

type Store struct {
	mu          sync.Mutex
	sessions    map[string]*entry
	seq         uint64
	ttl         time.Duration
	maxSessions int
	prefix      string
	now         func() time.Time
}

func NewStore(opts Options) *Store {
	s := &Store{
		sessions:    make(map[string]*entry),
		ttl:         opts.TTL,
		maxSessions: opts.MaxSessions,
		prefix:      opts.IDPrefix,
		now:         opts.Now,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.maxSessions <= 0 {
		s.maxSessions = DefaultMaxSessions
	}
	if s.prefix == "" {
		s.prefix = DefaultIDPrefix
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// GetOrCreate returns id when it names a live session, otherwise it mints
// a new token and creates an empty session for it. An empty id means none.
func (s *Store) GetOrCreate(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gcLocked()

	if id != "" {
		if _, ok := s.sessions[id]; ok {
			return id
		}
	}
	sid := s.newIDLocked()
	s.createLocked(sid)
	s.evictLocked()
	return sid
}

// ReplaceMessages sets the transcript of id to a copy of messages,
// creating the session if needed. It returns a copy of the stored
// transcript taken under the same lock.
func (s *Store) ReplaceMessages(id string, messages []llm.Message) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gcLocked()

	e := s.ensureLocked(id)
	e.messages = append(make([]llm.Message, 0, len(messages)), messages...)
	e.updatedAt = s.now()
	s.evictLocked()
	return append(make([]llm.Message, 0, len(messages)), messages...)
}

func (s *Store) Append(id string, msg llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gcLocked()

	e := s.ensureLocked(id)
	e.messages = append(e.messages, msg)
	e.updatedAt = s.now()
	s.evictLocked()
}

// Messages returns a copy of the transcript; unknown ids yield an empty slice.
func (s *Store) Messages(id string) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gcLocked()

	e, ok := s.sessions[id]
	if !ok {
		return []llm.Message{}
	}
	return append(make([]llm.Message, 0, len(e.messages)), e.messages...)
}

func (s *Store) Snapshot(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gcLocked()

	e, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return Session{
		ID:        id,
		CreatedAt: e.createdAt,
		UpdatedAt: e.updatedAt,
		Messages:  append(make([]llm.Message, 0, len(e.messages)), e.messages...),
	}, true
}

func (s *Store) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	s.gcLocked()
}

// Sweep runs the TTL and capacity passes outside of a regular call.
func (s *Store) Sweep() SweepStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.gcLocked()
	st.Remaining = len(s.sessions)
	return st
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) newIDLocked() string {
	for {
		sid := s.prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
		if _, taken := s.sessions[sid]; !taken {
			return sid
		}
	}
}

func (s *Store) createLocked(id string) *entry {
	now := s.now()
	s.seq++
	e := &entry{createdAt: now, updatedAt: now, seq: s.seq, messages: []llm.Message{}}
	s.sessions[id] = e
	return e
}

func (s *Store) ensureLocked(id string) *entry {
	if e, ok := s.sessions[id]; ok {
		return e
	}
	return s.createLocked(id)
}

func (s *Store) gcLocked() SweepStats {
	var st SweepStats
	now := s.now()
	for id, e := range s.sessions {
		if now.Sub(e.updatedAt) > s.ttl {
			delete(s.sessions, id)
			st.Expired++
		}
	}
	st.Evicted = s.evictLocked()
	return st
}

// evictLocked drops the least recently updated sessions until the store
// fits maxSessions. Equal timestamps fall back to creation order.
func (s *Store) evictLocked() int {
	over := len(s.sessions) - s.maxSessions
	if over <= 0 {
		return 0
	}
	type candidate struct {
		id        string
		updatedAt time.Time
		seq       uint64
	}
	all := make([]candidate, 0, len(s.sessions))
	for id, e := range s.sessions {
		all = append(all, candidate{id: id, updatedAt: e.updatedAt, seq: e.seq})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].updatedAt.Equal(all[j].updatedAt) {
			return all[i].updatedAt.Before(all[j].updatedAt)
		}
		return all[i].seq < all[j].seq
	})
	for _, c := range all[:over] {
		delete(s.sessions, c.id)
	}
	return over
}
