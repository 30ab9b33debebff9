// Package tracing records view lifecycle activity as OpenTelemetry spans.
//
// The observer:
//   - Creates a span for each diff render, from request to completion
//   - Creates a span for each delegated handler invocation
//   - Adds view.created and view.removed events to a lifecycle span
//   - Records errors and sets span status
//
// The tracer comes from the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure it in main():
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
//	obs := tracing.New(tracing.WithTracerName("my-app"))
package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/figura-dev/figura/pkg/view"
)

// Default tracer name for Figura views.
const defaultTracerName = "figura"

// Config configures the OpenTelemetry observer.
type Config struct {
	// TracerName is the name of the tracer (default: "figura").
	TracerName string

	// Provider supplies the tracer (default: otel.GetTracerProvider()).
	Provider trace.TracerProvider

	// Context is the parent of every span (default: context.Background()).
	Context context.Context

	// Filter determines which views are traced. Nil traces all views.
	Filter func(v *view.View) bool

	// AttributeExtractor adds custom attributes to every span.
	AttributeExtractor func(v *view.View) []attribute.KeyValue
}

// Option configures the OpenTelemetry observer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.Provider = tp
	}
}

// WithContext sets the parent context of every span.
func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		c.Context = ctx
	}
}

// WithFilter sets a filter function for views.
func WithFilter(filter func(v *view.View) bool) Option {
	return func(c *Config) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(v *view.View) []attribute.KeyValue) Option {
	return func(c *Config) {
		c.AttributeExtractor = extractor
	}
}

// Observer implements view.Observer with spans.
//
// Lifecycle spans are tracked by view uid until the view is removed. A
// view dropped without Remove leaves its span open; OpenSpans reports how
// many are pending.
type Observer struct {
	config Config
	tracer trace.Tracer

	mu        sync.Mutex
	lifecycle map[uint64]trace.Span
}

var _ view.Observer = (*Observer)(nil)

// New returns an observer using the configured tracer.
func New(opts ...Option) *Observer {
	config := Config{
		TracerName: defaultTracerName,
		Context:    context.Background(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Observer{
		config:    config,
		tracer:    provider.Tracer(config.TracerName),
		lifecycle: make(map[uint64]trace.Span),
	}
}

func (o *Observer) traced(v *view.View) bool {
	return o.config.Filter == nil || o.config.Filter(v)
}

func (o *Observer) attrs(v *view.View, extra ...attribute.KeyValue) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int64("figura.view.uid", int64(v.UID())),
	}
	if name := v.ClassName(); name != "" {
		attrs = append(attrs, attribute.String("figura.view.class", name))
	}
	if el := v.Element(); el != nil {
		attrs = append(attrs, attribute.String("figura.view.element", el.String()))
	}
	attrs = append(attrs, extra...)
	if o.config.AttributeExtractor != nil {
		attrs = append(attrs, o.config.AttributeExtractor(v)...)
	}
	return attrs
}

// ViewCreated marks the view's lifecycle span. The span lives until the
// view is removed.
func (o *Observer) ViewCreated(v *view.View) {
	if span := o.lifecycleSpan(v); span != nil {
		span.AddEvent("view.created")
	}
}

// lifecycleSpan returns the lifecycle span of v, starting it on first
// use. Views are bound, and events delegated, before construction ends.
func (o *Observer) lifecycleSpan(v *view.View) trace.Span {
	if !o.traced(v) {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if span, ok := o.lifecycle[v.UID()]; ok {
		return span
	}
	_, span := o.tracer.Start(o.config.Context, "figura.view",
		trace.WithAttributes(o.attrs(v)...))
	o.lifecycle[v.UID()] = span
	return span
}

// OpenSpans returns the number of lifecycle spans not yet ended.
func (o *Observer) OpenSpans() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.lifecycle)
}

// ViewRemoved ends the view's lifecycle span.
func (o *Observer) ViewRemoved(v *view.View) {
	o.mu.Lock()
	span, ok := o.lifecycle[v.UID()]
	delete(o.lifecycle, v.UID())
	o.mu.Unlock()
	if !ok {
		return
	}
	span.AddEvent("view.removed")
	span.SetStatus(codes.Ok, "")
	span.End()
}

func (o *Observer) EventDelegated(v *view.View, event, selector string) {
	o.lifecycleEvent(v, "event.delegated", event, selector)
}

func (o *Observer) EventUndelegated(v *view.View, event, selector string) {
	o.lifecycleEvent(v, "event.undelegated", event, selector)
}

func (o *Observer) lifecycleEvent(v *view.View, name, event, selector string) {
	var span trace.Span
	if v.Removed() {
		o.mu.Lock()
		span = o.lifecycle[v.UID()]
		o.mu.Unlock()
	} else {
		span = o.lifecycleSpan(v)
	}
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(
		attribute.String("figura.event", event),
		attribute.String("figura.selector", selector),
	))
}

// EventHandled records a span for a delegated handler run.
func (o *Observer) EventHandled(v *view.View, event, selector string) {
	if !o.traced(v) {
		return
	}
	_, span := o.tracer.Start(o.config.Context, "figura."+event,
		trace.WithAttributes(o.attrs(v,
			attribute.String("figura.event", event),
			attribute.String("figura.selector", selector),
		)...))
	span.End()
}

// DiffRender starts a span ended by the returned function.
func (o *Observer) DiffRender(v *view.View, fromTemplate bool) func(int, error) {
	if !o.traced(v) {
		return func(int, error) {}
	}
	_, span := o.tracer.Start(o.config.Context, "figura.render_diff",
		trace.WithAttributes(o.attrs(v, attribute.Bool("figura.from_template", fromTemplate))...))

	return func(mutations int, err error) {
		span.SetAttributes(attribute.Int("figura.mutations", mutations))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}
