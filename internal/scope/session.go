package scope

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

var sessionSeq atomic.Uint64

// Session is one logical resolution path: everything a top-level GetBean
// call builds, across the container and its ancestors. It travels in the
// context handed to factories.
type Session struct {
	id uint64

	mu         sync.Mutex
	path       []string
	prototypes map[protoKey]int

	// waiting is the entry this session is blocked on, if any.
	waiting atomic.Pointer[entry]
}

type protoKey struct {
	m  *Manager
	id string
}

type sessionKey struct{}

// WithSession returns ctx carrying a resolution session, reusing the one
// already present.
func WithSession(ctx context.Context) (context.Context, *Session) {
	if s := SessionFrom(ctx); s != nil {
		return ctx, s
	}
	s := &Session{
		id:         sessionSeq.Add(1),
		prototypes: make(map[protoKey]int),
	}
	return context.WithValue(ctx, sessionKey{}, s), s
}

// SessionFrom returns the session carried by ctx, or nil.
func SessionFrom(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

// Chain returns the resolution path carried by ctx extended with id.
func Chain(ctx context.Context, id string) []string {
	if s := SessionFrom(ctx); s != nil {
		return s.chain(id)
	}
	return []string{id}
}

// ID returns the session sequence number.
func (s *Session) ID() uint64 { return s.id }

// Path returns the ids currently being built, outermost first.
func (s *Session) Path() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.path)
}

// chain returns the current path extended with id.
func (s *Session) chain(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.path)+1)
	out = append(out, s.path...)
	return append(out, id)
}

// top returns the id currently being built, or "" at the top level.
func (s *Session) top() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.path) == 0 {
		return ""
	}
	return s.path[len(s.path)-1]
}

// caller returns the id beneath the top of the path, or "".
func (s *Session) caller() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.path) < 2 {
		return ""
	}
	return s.path[len(s.path)-2]
}

func (s *Session) push(id string) {
	s.mu.Lock()
	s.path = append(s.path, id)
	s.mu.Unlock()
}

func (s *Session) pop() {
	s.mu.Lock()
	s.path = s.path[:len(s.path)-1]
	s.mu.Unlock()
}

func (s *Session) enterPrototype(k protoKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prototypes[k] > 0 {
		return false
	}
	s.prototypes[k]++
	return true
}

func (s *Session) leavePrototype(k protoKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prototypes[k]--; s.prototypes[k] <= 0 {
		delete(s.prototypes, k)
	}
}

// blocksOn reports whether waiting on e would close a cycle of sessions
// waiting on each other back to s.
func (s *Session) blocksOn(e *entry) bool {
	seen := make(map[*Session]struct{})
	for cur := e; cur != nil; {
		owner := cur.owner
		if owner == s {
			return true
		}
		if _, ok := seen[owner]; ok {
			return false
		}
		seen[owner] = struct{}{}
		cur = owner.waiting.Load()
	}
	return false
}
