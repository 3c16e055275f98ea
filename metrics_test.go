package accesskit

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("accesskit", reg)

	m.observeDecision("check_permission", true)
	m.observeDecision("check_permission", false)
	m.observeDecision("check_permission", false)
	m.observeError("check_permission")
	m.observeCycle()
	m.observeDepth(3)
	m.observeTransaction(time.Millisecond, nil)
	m.observeTransaction(time.Millisecond, errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Decisions.WithLabelValues("check_permission", "allow")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Decisions.WithLabelValues("check_permission", "deny")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DecisionErrors.WithLabelValues("check_permission")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Cycles))

	count, err := testutil.GatherAndCount(reg,
		"accesskit_hierarchy_walk_depth",
		"accesskit_transaction_duration_seconds",
	)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMetrics_Registration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(NewMemoryStore(), WithMetricsRegisterer(reg))

	// a second service on the same registry would collide
	assert.Panics(t, func() {
		New(NewMemoryStore(), WithMetricsRegisterer(reg))
	})

	shared := NewMetrics("shared", nil)
	a := New(NewMemoryStore(), WithMetrics(shared))
	b := New(NewMemoryStore(), WithMetrics(shared))
	assert.Same(t, a.Metrics(), b.Metrics())
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeDecision("check_permission", true)
		m.observeError("check_permission")
		m.observeCycle()
		m.observeDepth(1)
		m.observeTransaction(time.Second, nil)
	})
}
