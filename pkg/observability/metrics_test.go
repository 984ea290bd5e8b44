package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnValidationStart(ctx, &domain.PassEvent{Fields: []string{"a", "b"}})
	hooks.OnValidationDone(ctx, &domain.PassEvent{
		Fields:   []string{"a", "b"},
		Failed:   []string{"a"},
		Expired:  []string{"b"},
		Duration: 10 * time.Millisecond,
	})
	hooks.OnValidationDone(ctx, &domain.PassEvent{Fields: []string{"c"}, Err: assert.AnError})
	hooks.OnStoreChange([]string{"a", "b", "c"})

	series, err := testutil.GatherAndCount(reg, "formwork_validation_passes_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series, "one series per outcome")

	expected := `
# HELP formwork_stale_results_total Total number of validation results discarded as stale
# TYPE formwork_stale_results_total counter
formwork_stale_results_total 1
# HELP formwork_store_writes_total Total number of field records changed
# TYPE formwork_store_writes_total counter
formwork_store_writes_total 3
# HELP formwork_validated_fields_total Total number of fields dispatched to the validator
# TYPE formwork_validated_fields_total counter
formwork_validated_fields_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(expected),
		"formwork_stale_results_total", "formwork_store_writes_total", "formwork_validated_fields_total"))

	t.Run("Double Registration", func(t *testing.T) {
		_, err := observability.NewMetrics(reg)
		assert.Error(t, err)
	})
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.LogHooks(slog.New(slog.NewTextHandler(&buf, nil)))

	hooks.OnValidationStart(context.Background(), &domain.PassEvent{ID: "p1", Fields: []string{"a"}})
	hooks.OnValidationDone(context.Background(), &domain.PassEvent{ID: "p1", Err: assert.AnError})

	out := buf.String()
	assert.Contains(t, out, "validation_start")
	assert.Contains(t, out, "pass_id=p1")
	assert.Contains(t, out, "level=ERROR")
}
