package accesskit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/AmeenINS/hub-sub003")

// Option configures a Service or one of its components.
type Option func(*options)

type options struct {
	config     Config
	logger     logrus.FieldLogger
	registerer prometheus.Registerer
	metrics    *Metrics
	events     EventSink
	actions    *ActionTable
	now        func() time.Time
}

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithLogger sets the logger used for data-integrity warnings and denials
// caused by store failures.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetricsRegisterer registers the engine's collectors with reg.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithMetrics shares an existing set of collectors between components.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithEventSink subscribes to administrative change signals.
func WithEventSink(sink EventSink) Option {
	return func(o *options) {
		o.events = sink
	}
}

// WithActionTable replaces the default action→level table.
func WithActionTable(t *ActionTable) Option {
	return func(o *options) {
		o.actions = t
	}
}

func buildOptions(opts []Option) *options {
	o := &options{
		config: DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.config.MaxHierarchyDepth <= 0 {
		o.config.MaxHierarchyDepth = DefaultMaxHierarchyDepth
	}
	if o.logger == nil {
		o.logger = o.config.NewLogger()
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(o.config.MetricsNamespace, o.registerer)
	}
	if o.actions == nil {
		o.actions = NewActionTable()
	}
	return o
}

func (o *options) emit(ctx context.Context, e Event) {
	if o.events == nil {
		return
	}
	if e.ActorID == "" {
		e.ActorID = GetActorID(ctx)
	}
	e.RequestID = GetRequestID(ctx)
	e.Timestamp = o.now()
	o.events(ctx, e)
}
