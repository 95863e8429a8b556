package scope

import (
	"context"
	"fmt"
	"slices"
	"sync"

	beanerrors "github.com/xraph/beans/errors"
)

// Expose publishes a partially built singleton so that re-entrant
// requests from the same resolution can break property cycles.
type Expose func(instance any)

// CreateFunc builds one instance. The context it receives carries the
// resolution session and must be passed to nested lookups.
type CreateFunc func(ctx context.Context, expose Expose) (any, error)

// entry is an in-flight singleton creation.
type entry struct {
	id    string
	owner *Session
	done  chan struct{}

	// guarded by Manager.mu
	early    any
	hasEarly bool
	stale    bool

	// written before done is closed
	instance any
	err      error
}

type panicError struct{ value any }

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

// ReleaseFunc receives a settled singleton the manager dropped because
// it holds the early reference of a creation that failed.
type ReleaseFunc func(id string, instance any)

// Option configures a Manager.
type Option func(*Manager)

// WithRelease sets the callback for singletons evicted after a failed
// creation.
func WithRelease(fn ReleaseFunc) Option {
	return func(m *Manager) { m.release = fn }
}

// Manager holds the instantiation state of one container's beans.
type Manager struct {
	settled sync.Map // id -> instance
	release ReleaseFunc

	mu       sync.Mutex
	inflight map[string]*entry
	order    []string
	// captured maps an in-flight id to the ids holding its early
	// reference, directly or through another holder.
	captured   map[string]map[string]struct{}
	prototypes map[string]int
	released   map[string]struct{}
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		inflight:   make(map[string]*entry),
		captured:   make(map[string]map[string]struct{}),
		prototypes: make(map[string]int),
		released:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Singleton returns the single shared instance of id, building it with
// create when absent. Concurrent callers for the same id wait for the
// first one and observe its result. A request that re-enters an id its own
// resolution is building receives the early reference when one has been
// exposed and a circular reference error otherwise.
func (m *Manager) Singleton(ctx context.Context, id string, create CreateFunc) (any, error) {
	if v, ok := m.settled.Load(id); ok {
		if sess := SessionFrom(ctx); sess != nil {
			m.mu.Lock()
			m.propagateLocked(id, sess.top())
			m.mu.Unlock()
		}
		return v, nil
	}

	ctx, sess := WithSession(ctx)

	m.mu.Lock()
	if v, ok := m.settled.Load(id); ok {
		m.propagateLocked(id, sess.top())
		m.mu.Unlock()
		return v, nil
	}

	if e, ok := m.inflight[id]; ok {
		return m.join(sess, e)
	}

	e := &entry{id: id, owner: sess, done: make(chan struct{})}
	m.inflight[id] = e
	m.mu.Unlock()

	sess.push(id)
	instance, err := m.run(ctx, e, create)
	sess.pop()

	m.settle(e, instance, err)
	if err == nil {
		m.mu.Lock()
		m.propagateLocked(id, sess.top())
		m.mu.Unlock()
	}
	return instance, err
}

// join handles a request for an id that is already in creation. Called
// with m.mu held; releases it.
func (m *Manager) join(sess *Session, e *entry) (any, error) {
	if e.owner == sess || sess.blocksOn(e) {
		early, ok := e.early, e.hasEarly
		if ok {
			m.captureLocked(e.id, sess.top())
		}
		m.mu.Unlock()
		if ok {
			return early, nil
		}
		return nil, beanerrors.ErrCircularReference(e.id, sess.chain(e.id))
	}

	sess.waiting.Store(e)
	m.mu.Unlock()
	defer sess.waiting.Store(nil)

	<-e.done
	return e.instance, e.err
}

func (m *Manager) run(ctx context.Context, e *entry, create CreateFunc) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.settle(e, nil, beanerrors.ErrInstantiation(e.id, "factory", panicError{r}))
			panic(r)
		}
	}()

	return create(ctx, func(early any) {
		m.mu.Lock()
		e.early, e.hasEarly = early, true
		m.mu.Unlock()
	})
}

// settle publishes the outcome of e and wakes its waiters. A failed
// creation returns the id to ABSENT and evicts every settled singleton
// that captured its early reference; those are handed to the release
// callback in reverse creation order.
func (m *Manager) settle(e *entry, instance any, err error) {
	m.mu.Lock()
	if m.inflight[e.id] != e {
		m.mu.Unlock()
		return
	}
	delete(m.inflight, e.id)

	var evicted []Released
	e.instance, e.err = instance, err
	switch {
	case err != nil:
		evicted = m.evictCapturedLocked(e.id)
	case !e.stale:
		m.settled.Store(e.id, instance)
		m.order = append(m.order, e.id)
	}
	delete(m.captured, e.id)
	close(e.done)
	m.mu.Unlock()

	if m.release == nil {
		return
	}
	for i := len(evicted) - 1; i >= 0; i-- {
		m.release(evicted[i].ID, evicted[i].Instance)
	}
}

// Prototype builds a fresh instance of id. Prototypes are never cached;
// re-entering the same prototype within one resolution is a circular
// reference.
func (m *Manager) Prototype(ctx context.Context, id string, create CreateFunc) (any, error) {
	ctx, sess := WithSession(ctx)

	key := protoKey{m: m, id: id}
	if !sess.enterPrototype(key) {
		return nil, beanerrors.ErrCircularReference(id, sess.chain(id))
	}
	defer sess.leavePrototype(key)

	m.mu.Lock()
	m.prototypes[id]++
	m.mu.Unlock()

	sess.push(id)
	defer func() {
		sess.pop()
		m.mu.Lock()
		if m.prototypes[id]--; m.prototypes[id] <= 0 {
			delete(m.prototypes, id)
		}
		m.released[id] = struct{}{}
		m.mu.Unlock()
	}()

	instance, err := create(ctx, func(any) {})
	if err == nil {
		m.mu.Lock()
		m.propagateLocked(id, sess.caller())
		m.mu.Unlock()
	}
	return instance, err
}

// Released is a singleton evicted by the manager.
type Released struct {
	ID       string
	Instance any
}

// captureLocked records that holder received the early reference of the
// in-flight id.
func (m *Manager) captureLocked(id, holder string) {
	if holder == "" || holder == id {
		return
	}
	set, ok := m.captured[id]
	if !ok {
		set = make(map[string]struct{})
		m.captured[id] = set
	}
	set[holder] = struct{}{}
}

// propagateLocked records holder as capturing every early reference that
// id already holds.
func (m *Manager) propagateLocked(id, holder string) {
	if holder == "" || holder == id {
		return
	}
	for owner, set := range m.captured {
		if _, ok := set[id]; ok && owner != holder {
			set[holder] = struct{}{}
		}
	}
}

// Holders returns the ids holding the early reference of the in-flight
// id, sorted.
func (m *Manager) Holders(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.captured[id]))
	for d := range m.captured[id] {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// evictCapturedLocked drops the settled holders of id's early reference
// and returns them in creation order. Holders still in creation finish
// uncached.
func (m *Manager) evictCapturedLocked(id string) []Released {
	holders := m.captured[id]
	if len(holders) == 0 {
		return nil
	}
	for h := range holders {
		if other, ok := m.inflight[h]; ok {
			other.stale = true
		}
	}
	var out []Released
	m.order = slices.DeleteFunc(m.order, func(s string) bool {
		if _, ok := holders[s]; !ok {
			return false
		}
		v, _ := m.settled.LoadAndDelete(s)
		out = append(out, Released{ID: s, Instance: v})
		return true
	})
	return out
}

// Evict drops the cached singleton for id, returning it when present. An
// in-flight creation of id completes for its waiters but is not cached.
// Singletons holding id are left untouched.
func (m *Manager) Evict(id string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.inflight[id]; ok {
		e.stale = true
	}
	for _, set := range m.captured {
		delete(set, id)
	}
	v, ok := m.settled.LoadAndDelete(id)
	if ok {
		m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
	}
	return v, ok
}

// State reports the instantiation state of id.
func (m *Manager) State(id string) State {
	if _, ok := m.settled.Load(id); ok {
		return StateCreated
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inflight[id]; ok {
		return StateInCreation
	}
	if m.prototypes[id] > 0 {
		return StateInCreation
	}
	if _, ok := m.released[id]; ok {
		return StateReleased
	}
	return StateAbsent
}

// Singletons returns the ids of settled singletons in creation order.
func (m *Manager) Singletons() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}

// Destroy empties the cache, calling fn for every settled singleton in
// reverse creation order. Errors from fn are joined.
func (m *Manager) Destroy(fn func(id string, instance any) error) error {
	m.mu.Lock()
	order := m.order
	m.order = nil
	instances := make([]any, len(order))
	for i, id := range order {
		instances[i], _ = m.settled.LoadAndDelete(id)
	}
	clear(m.captured)
	clear(m.released)
	m.mu.Unlock()

	if fn == nil {
		return nil
	}

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		if err := fn(order[i], instances[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return beanerrors.Join(errs...)
}
