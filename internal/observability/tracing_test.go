package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "postblog-test", Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.NotNil(t, Tracer)
}

func TestStartStoreSpan(t *testing.T) {
	ctx, span := StartStoreSpan(context.Background(), "mongodb", "find", "users")
	defer span.End()

	assert.NotNil(t, ctx)
	RecordErrorInContext(ctx, errors.New("boom"))
	RecordErrorInContext(ctx, nil)
}

func TestStoreMetrics_TrackOperation(t *testing.T) {
	m := NewStoreMetrics("test-backend")
	done := m.TrackOperation("get_user")
	time.Sleep(time.Millisecond)
	done()

	assert.GreaterOrEqual(t, testutil.CollectAndCount(StoreOperationLatency, "postblog_store_operation_seconds"), 1)
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(TokensIssued)
	TokensIssued.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(TokensIssued))

	AuthFailures.WithLabelValues("expired").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(AuthFailures.WithLabelValues("expired")), 1.0)
}
