package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("vaultkit")
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	assert.NotNil(t, provider.MeterProvider())
	assert.NotNil(t, provider.Handler())
}

func TestBusinessMetrics_RecordAndExpose(t *testing.T) {
	provider, err := NewProvider("vaultkit")
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "vaultkit")
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOperation(ctx, "secrets", "secret_store", "success")
	bm.RecordDuration(ctx, "secrets", "secret_store", 25*time.Millisecond, "success")

	rec := httptest.NewRecorder()
	provider.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "vaultkit_operations_total"))
	assert.True(t, strings.Contains(string(body), "vaultkit_operation_duration_seconds"))
}

func TestNoOpBusinessMetrics(t *testing.T) {
	bm := NewNoOpBusinessMetrics()

	assert.NotPanics(t, func() {
		bm.RecordOperation(context.Background(), "secrets", "secret_get", "error")
		bm.RecordDuration(context.Background(), "secrets", "secret_get", time.Second, "error")
	})
}
