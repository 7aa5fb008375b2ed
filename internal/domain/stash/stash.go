// Package stash keeps recently uploaded résumé files in memory so a failed
// upload can be resubmitted without selecting the file again.
package stash

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/novaspire/internal/domain/model"
)

// Stash holds uploaded files under opaque tokens.
type Stash interface {
	// Put stores f and returns the token that retrieves it.
	Put(ctx context.Context, f model.File) string

	// Get returns the file stored under token. Expired or evicted entries
	// report false.
	Get(ctx context.Context, token string) (model.File, bool)

	// Drop removes token. Unknown tokens are ignored.
	Drop(ctx context.Context, token string)

	Size() int64
}

// node represents a single entry in the linked list
type node struct {
	token   string
	file    model.File
	expires time.Time
	next    *node
}

// reset clears the node state for reuse
func (n *node) reset() {
	n.token = ""
	n.file = model.File{}
	n.expires = time.Time{}
	n.next = nil
}

// inMemoryStash keeps entries in a map plus a singly linked list ordered
// newest first. When full, the tail (oldest entry) is evicted.
type inMemoryStash struct {
	mu       sync.Mutex
	entries  map[string]*node
	head     *node
	maxSize  int
	ttl      time.Duration
	now      func() time.Time
	onEvict  func()
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryStash creates a bounded in-memory stash.
func NewInMemoryStash(opts ...Option) Stash {
	s := &inMemoryStash{
		maxSize: 256,
		ttl:     15 * time.Minute,
		now:     time.Now,
		onEvict: func() {},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.entries = make(map[string]*node)
	s.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}

	return s
}

func (s *inMemoryStash) Put(_ context.Context, f model.File) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	n := s.nodePool.Get().(*node)
	n.token = uuid.NewString()
	n.file = f
	n.expires = s.now().Add(s.ttl)
	n.next = s.head

	s.head = n
	s.entries[n.token] = n
	s.size.Add(1)
	return n.token
}

func (s *inMemoryStash) Get(_ context.Context, token string) (model.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.entries[token]
	if !ok {
		return model.File{}, false
	}
	if !s.now().Before(n.expires) {
		s.remove(n)
		s.onEvict()
		return model.File{}, false
	}
	return n.file, true
}

func (s *inMemoryStash) Drop(_ context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.entries[token]; ok {
		s.remove(n)
	}
}

// remove unlinks n and returns it to the pool.
// Must be called with s.mu held.
func (s *inMemoryStash) remove(target *node) {
	delete(s.entries, target.token)

	if s.head == target {
		s.head = target.next
	} else {
		current := s.head
		for current != nil && current.next != target {
			current = current.next
		}
		if current != nil {
			current.next = target.next
		}
	}

	target.reset()
	s.nodePool.Put(target)
	s.size.Add(-1)
}

// evictOldest drops expired entries, or the tail when none are expired.
// Must be called with s.mu held.
func (s *inMemoryStash) evictOldest() {
	if s.head == nil {
		return
	}

	now := s.now()
	evicted := false
	for n := s.head; n != nil; {
		next := n.next
		if !now.Before(n.expires) {
			s.remove(n)
			s.onEvict()
			evicted = true
		}
		n = next
	}
	if evicted || s.head == nil {
		return
	}

	tail := s.head
	for tail.next != nil {
		tail = tail.next
	}
	s.remove(tail)
	s.onEvict()
}

// Size returns the current number of entries in the stash.
func (s *inMemoryStash) Size() int64 {
	return s.size.Load()
}
