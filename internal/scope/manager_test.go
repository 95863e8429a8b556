package scope

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	beanerrors "github.com/xraph/beans/errors"
)

type widget struct {
	name string
	peer *widget
}

func TestSingleton_CachesInstance(t *testing.T) {
	m := NewManager()
	var calls int

	create := func(context.Context, Expose) (any, error) {
		calls++
		return &widget{name: "w"}, nil
	}

	first, err := m.Singleton(context.Background(), "w", create)
	require.NoError(t, err)
	second, err := m.Singleton(context.Background(), "w", create)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateCreated, m.State("w"))
	assert.Equal(t, []string{"w"}, m.Singletons())
}

func TestSingleton_ConcurrentCallersShareOneCreation(t *testing.T) {
	m := NewManager()
	var calls atomic.Int32
	release := make(chan struct{})

	create := func(context.Context, Expose) (any, error) {
		calls.Add(1)
		<-release
		return &widget{name: "slow"}, nil
	}

	const n = 16
	results := make([]any, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Singleton(context.Background(), "slow", create)
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	require.Eventually(t, func() bool { return m.State("slow") == StateInCreation }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestSingleton_FailureReturnsToAbsent(t *testing.T) {
	m := NewManager()
	boom := errors.New("boom")
	fail := true

	create := func(context.Context, Expose) (any, error) {
		if fail {
			return nil, boom
		}
		return &widget{}, nil
	}

	_, err := m.Singleton(context.Background(), "w", create)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateAbsent, m.State("w"))
	assert.Empty(t, m.Singletons())

	fail = false
	v, err := m.Singleton(context.Background(), "w", create)
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestSingleton_WaitersObserveFailure(t *testing.T) {
	m := NewManager()
	boom := errors.New("boom")
	release := make(chan struct{})

	go func() {
		_, _ = m.Singleton(context.Background(), "w", func(context.Context, Expose) (any, error) {
			<-release
			return nil, boom
		})
	}()
	require.Eventually(t, func() bool { return m.State("w") == StateInCreation }, time.Second, time.Millisecond)

	ctx, waiter := WithSession(context.Background())
	done := make(chan error)
	go func() {
		_, err := m.Singleton(ctx, "w", func(context.Context, Expose) (any, error) {
			t.Error("waiter must not build")
			return nil, nil
		})
		done <- err
	}()

	require.Eventually(t, func() bool { return waiter.waiting.Load() != nil }, time.Second, time.Millisecond)
	close(release)
	assert.ErrorIs(t, <-done, boom)
}

func TestSingleton_SelfReentryWithoutEarlyRefIsCircular(t *testing.T) {
	m := NewManager()

	var create CreateFunc
	create = func(ctx context.Context, _ Expose) (any, error) {
		return m.Singleton(ctx, "a", create)
	}

	_, err := m.Singleton(context.Background(), "a", create)
	require.True(t, beanerrors.IsCircularReference(err))

	var be *beanerrors.BeanError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, []string{"a", "a"}, be.Chain)
	assert.Equal(t, StateAbsent, m.State("a"))
}

func TestSingleton_EarlyReferenceBreaksPropertyCycle(t *testing.T) {
	m := NewManager()

	var createA, createB CreateFunc
	createA = func(ctx context.Context, expose Expose) (any, error) {
		a := &widget{name: "a"}
		expose(a)
		b, err := m.Singleton(ctx, "b", createB)
		if err != nil {
			return nil, err
		}
		a.peer = b.(*widget)
		return a, nil
	}
	createB = func(ctx context.Context, expose Expose) (any, error) {
		b := &widget{name: "b"}
		expose(b)
		a, err := m.Singleton(ctx, "a", createA)
		if err != nil {
			return nil, err
		}
		b.peer = a.(*widget)
		return b, nil
	}

	av, err := m.Singleton(context.Background(), "a", createA)
	require.NoError(t, err)
	a := av.(*widget)

	bv, err := m.Singleton(context.Background(), "b", createB)
	require.NoError(t, err)
	b := bv.(*widget)

	assert.Same(t, b, a.peer)
	assert.Same(t, a, b.peer)
	assert.Equal(t, []string{"b", "a"}, m.Singletons())
}

func TestSingleton_FailedCreationEvictsEarlyConsumers(t *testing.T) {
	var released []string
	m := NewManager(WithRelease(func(id string, instance any) {
		released = append(released, id+":"+instance.(*widget).name)
	}))

	createB := func(ctx context.Context, _ Expose) (any, error) {
		a, err := m.Singleton(ctx, "a", nil)
		if err != nil {
			return nil, err
		}
		return &widget{name: "b", peer: a.(*widget)}, nil
	}
	createC := func(ctx context.Context, _ Expose) (any, error) {
		b, err := m.Singleton(ctx, "b", createB)
		if err != nil {
			return nil, err
		}
		return &widget{name: "c", peer: b.(*widget)}, nil
	}
	createA := func(ctx context.Context, expose Expose) (any, error) {
		expose(&widget{name: "a"})
		if _, err := m.Singleton(ctx, "c", createC); err != nil {
			return nil, err
		}
		assert.Equal(t, []string{"b", "c"}, m.Holders("a"))
		return nil, errors.New("init failed")
	}

	_, err := m.Singleton(context.Background(), "a", createA)
	require.Error(t, err)

	assert.Equal(t, StateAbsent, m.State("a"))
	assert.Equal(t, StateAbsent, m.State("b"))
	assert.Equal(t, StateAbsent, m.State("c"))
	assert.Empty(t, m.Singletons())
	assert.Equal(t, []string{"c:c", "b:b"}, released)
	assert.Empty(t, m.Holders("a"))
}

func TestSingleton_FailedCreationKeepsUnrelatedSingletons(t *testing.T) {
	var released []string
	m := NewManager(WithRelease(func(id string, _ any) { released = append(released, id) }))

	createDB := func(context.Context, Expose) (any, error) { return &widget{name: "db"}, nil }
	createA := func(ctx context.Context, expose Expose) (any, error) {
		expose(&widget{name: "a"})
		if _, err := m.Singleton(ctx, "db", createDB); err != nil {
			return nil, err
		}
		return nil, errors.New("init failed")
	}

	_, err := m.Singleton(context.Background(), "a", createA)
	require.Error(t, err)

	assert.Equal(t, StateCreated, m.State("db"))
	assert.Equal(t, []string{"db"}, m.Singletons())
	assert.Empty(t, released)
}

func TestSingleton_FailedRecreationKeepsHoldersOfEvictedInstance(t *testing.T) {
	m := NewManager(WithRelease(func(id string, _ any) {
		t.Errorf("unexpected release of %s", id)
	}))

	createA := func(context.Context, Expose) (any, error) { return &widget{name: "a"}, nil }
	createB := func(ctx context.Context, _ Expose) (any, error) {
		a, err := m.Singleton(ctx, "a", createA)
		if err != nil {
			return nil, err
		}
		return &widget{name: "b", peer: a.(*widget)}, nil
	}

	b, err := m.Singleton(context.Background(), "b", createB)
	require.NoError(t, err)

	_, ok := m.Evict("a")
	require.True(t, ok)

	_, err = m.Singleton(context.Background(), "a", func(_ context.Context, expose Expose) (any, error) {
		expose(&widget{name: "a2"})
		return nil, errors.New("boom")
	})
	require.Error(t, err)

	assert.Equal(t, StateCreated, m.State("b"))
	again, err := m.Singleton(context.Background(), "b", createB)
	require.NoError(t, err)
	assert.Same(t, b, again)
}

func TestSingleton_CrossSessionCycleDoesNotDeadlock(t *testing.T) {
	m := NewManager()
	aStarted := make(chan struct{})
	bStarted := make(chan struct{})

	var createA, createB CreateFunc
	createA = func(ctx context.Context, _ Expose) (any, error) {
		close(aStarted)
		<-bStarted
		return m.Singleton(ctx, "b", createB)
	}
	createB = func(ctx context.Context, _ Expose) (any, error) {
		close(bStarted)
		<-aStarted
		return m.Singleton(ctx, "a", createA)
	}

	errs := make(chan error, 2)
	go func() {
		_, err := m.Singleton(context.Background(), "a", createA)
		errs <- err
	}()
	go func() {
		_, err := m.Singleton(context.Background(), "b", createB)
		errs <- err
	}()

	for range 2 {
		select {
		case err := <-errs:
			assert.True(t, beanerrors.IsCircularReference(err), "got %v", err)
		case <-time.After(5 * time.Second):
			t.Fatal("resolution deadlocked")
		}
	}
}

func TestSingleton_PanicSettlesEntry(t *testing.T) {
	m := NewManager()

	assert.Panics(t, func() {
		_, _ = m.Singleton(context.Background(), "p", func(context.Context, Expose) (any, error) {
			panic("kaboom")
		})
	})
	assert.Equal(t, StateAbsent, m.State("p"))
}

func TestPrototype_NeverCached(t *testing.T) {
	m := NewManager()
	create := func(context.Context, Expose) (any, error) { return &widget{}, nil }

	assert.Equal(t, StateAbsent, m.State("p"))

	first, err := m.Prototype(context.Background(), "p", create)
	require.NoError(t, err)
	second, err := m.Prototype(context.Background(), "p", create)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, StateReleased, m.State("p"))
	assert.Empty(t, m.Singletons())
}

func TestPrototype_CycleIsCircular(t *testing.T) {
	m := NewManager()

	var create CreateFunc
	create = func(ctx context.Context, _ Expose) (any, error) {
		return m.Prototype(ctx, "p", create)
	}

	_, err := m.Prototype(context.Background(), "p", create)
	assert.True(t, beanerrors.IsCircularReference(err))
}

func TestEvict(t *testing.T) {
	m := NewManager()
	create := func(context.Context, Expose) (any, error) { return &widget{}, nil }

	first, err := m.Singleton(context.Background(), "w", create)
	require.NoError(t, err)

	evicted, ok := m.Evict("w")
	require.True(t, ok)
	assert.Same(t, first, evicted)
	assert.Equal(t, StateAbsent, m.State("w"))

	second, err := m.Singleton(context.Background(), "w", create)
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	_, ok = m.Evict("missing")
	assert.False(t, ok)
}

func TestEvict_InFlightIsNotCached(t *testing.T) {
	m := NewManager()

	v, err := m.Singleton(context.Background(), "w", func(context.Context, Expose) (any, error) {
		m.Evict("w")
		return &widget{}, nil
	})
	require.NoError(t, err)
	assert.NotNil(t, v)

	assert.Equal(t, StateAbsent, m.State("w"))
	assert.Empty(t, m.Singletons())
}

func TestDestroy_ReverseCreationOrder(t *testing.T) {
	m := NewManager()
	for _, id := range []string{"a", "b", "c"} {
		_, err := m.Singleton(context.Background(), id, func(context.Context, Expose) (any, error) {
			return id, nil
		})
		require.NoError(t, err)
	}

	var destroyed []string
	err := m.Destroy(func(id string, instance any) error {
		destroyed = append(destroyed, id)
		if id == "b" {
			return errors.New("b failed")
		}
		return nil
	})

	assert.Equal(t, []string{"c", "b", "a"}, destroyed)
	assert.ErrorContains(t, err, "b failed")
	assert.Empty(t, m.Singletons())
	assert.Equal(t, StateAbsent, m.State("a"))
}

func TestSession_PathAndReuse(t *testing.T) {
	ctx, sess := WithSession(context.Background())
	again, same := WithSession(ctx)

	assert.Same(t, sess, same)
	assert.Equal(t, ctx, again)
	assert.Nil(t, SessionFrom(context.Background()))

	m := NewManager()
	_, err := m.Singleton(ctx, "outer", func(ctx context.Context, _ Expose) (any, error) {
		assert.Equal(t, []string{"outer"}, SessionFrom(ctx).Path())
		return 1, nil
	})
	require.NoError(t, err)
	assert.Empty(t, sess.Path())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "absent", StateAbsent.String())
	assert.Equal(t, "in-creation", StateInCreation.String())
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "released", StateReleased.String())
	assert.Equal(t, "unknown", State(42).String())
}
