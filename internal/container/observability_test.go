package container

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	beanerrors "github.com/xraph/beans/errors"
	"github.com/xraph/beans/internal/definition"
	"github.com/xraph/beans/internal/logger"
)

type recordingMetrics struct {
	mu          sync.Mutex
	registered  map[string]int
	created     map[string]int
	failedCodes []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{registered: map[string]int{}, created: map[string]int{}}
}

func (m *recordingMetrics) DefinitionsRegistered(container string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered[container] = n
}

func (m *recordingMetrics) InstanceCreated(scope string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created[scope]++
}

func (m *recordingMetrics) InstanceFailed(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failedCodes = append(m.failedCodes, code)
}

func (m *recordingMetrics) Handler() http.Handler { return http.NotFoundHandler() }

func TestMetrics(t *testing.T) {
	m := newRecordingMetrics()
	c, _ := newTestContainer(t, WithName("app"), WithMetrics(m))

	proto := bean("p")
	proto.Scope = definition.ScopePrototype
	eager := bean("a", definition.Ref("p"))
	eager.Lazy = false
	require.NoError(t, c.LoadDefinitions(context.Background(), []*definition.Definition{eager, proto}))

	_, err := c.GetBean(context.Background(), "ghost")
	require.Error(t, err)

	assert.Equal(t, 2, m.registered["app"])
	assert.Equal(t, 1, m.created["singleton"])
	assert.Equal(t, 1, m.created["prototype"])
	assert.Equal(t, []string{beanerrors.CodeDefinitionNotFound}, m.failedCodes)
}

func TestMetrics_NestedFailureCountedOnce(t *testing.T) {
	m := newRecordingMetrics()
	c, _ := newTestContainer(t, WithMetrics(m))
	require.NoError(t, c.RegisterDefinition(bean("a", definition.Ref("b"))))
	require.NoError(t, c.RegisterDefinition(bean("b", definition.Ref("a"))))

	_, err := c.GetBean(context.Background(), "a")
	require.Error(t, err)
	assert.Equal(t, []string{beanerrors.CodeCircularReference}, m.failedCodes)
}

func TestTracing_SpanPerCreation(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	c, _ := newTestContainer(t, WithTracer(tp.Tracer("test")))
	require.NoError(t, c.RegisterDefinition(bean("db")))
	require.NoError(t, c.RegisterDefinition(bean("repo", definition.Ref("db"))))
	require.NoError(t, c.RegisterDefinition(&definition.Definition{ID: "bad", Type: "missing", Lazy: true}))

	_, err := c.GetBean(context.Background(), "repo")
	require.NoError(t, err)
	_, err = c.GetBean(context.Background(), "bad")
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 3)

	db, repo, bad := spans[0], spans[1], spans[2]
	assert.Equal(t, "beans.create", db.Name())
	assert.Contains(t, db.Attributes(), attribute.String("bean.id", "db"))
	assert.Contains(t, repo.Attributes(), attribute.String("bean.id", "repo"))
	assert.Equal(t, repo.SpanContext().SpanID(), db.Parent().SpanID())
	assert.Equal(t, codes.Error, bad.Status().Code)
}

func TestLogging_Override(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c, _ := newTestContainer(t, WithName("app"), WithLogger(logger.NewFromZap(zap.New(core))))

	require.NoError(t, c.RegisterDefinition(bean("a")))
	require.NoError(t, c.RegisterDefinition(bean("a"), WithOverride()))

	overridden := logs.FilterMessage("definition overridden").All()
	require.Len(t, overridden, 1)
	fields := overridden[0].ContextMap()
	assert.Equal(t, "a", fields["bean"])
	assert.Equal(t, "app", fields["container"])
	assert.Equal(t, "beans", overridden[0].LoggerName)
}

func TestLogging_FactoryContextCarriesBeanLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	types := NewTypeTable().MustRegister("chatty", Type{
		New: func(ctx context.Context, _ []any) (any, error) {
			logger.FromContext(ctx, nil).Info("connecting")
			return &service{}, nil
		},
	})
	c := New(WithName("app"), WithTypes(types), WithLogger(logger.NewFromZap(zap.New(core))))
	require.NoError(t, c.RegisterDefinition(&definition.Definition{ID: "conn", Type: "chatty"}))

	_, err := c.GetBean(context.Background(), "conn")
	require.NoError(t, err)

	entries := logs.FilterMessage("connecting").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "conn", fields["bean"])
	assert.Equal(t, "app", fields["container"])
	assert.Equal(t, "beans", entries[0].LoggerName)
}
