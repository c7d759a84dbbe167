package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"time"
)

// MetricsRecorder receives operation outcomes from the service layer and
// coordinator.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, d time.Duration)
}

// Tracer receives span records for store operations.
type Tracer interface {
	Span(ctx context.Context, name string, fields map[string]any)
}

// NoopMetrics discards all observations.
type NoopMetrics struct{}

func (NoopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// NoopTracer discards all spans.
type NoopTracer struct{}

func (NoopTracer) Span(context.Context, string, map[string]any) {}

// ExpvarMetrics publishes per-operation counters and cumulative latency under
// an expvar map named by prefix.
type ExpvarMetrics struct {
	mu   sync.Mutex
	vars *expvar.Map
}

// NewExpvarMetrics publishes (or reuses) the expvar map with the given name.
func NewExpvarMetrics(name string) *ExpvarMetrics {
	existing := expvar.Get(name)
	if m, ok := existing.(*expvar.Map); ok {
		return &ExpvarMetrics{vars: m}
	}
	return &ExpvarMetrics{vars: expvar.NewMap(name)}
}

func (m *ExpvarMetrics) Observe(_ context.Context, operation string, success bool, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.vars.Add(fmt.Sprintf("%s_%s_total", operation, outcome), 1)
	m.vars.Add(fmt.Sprintf("%s_duration_ms", operation), d.Milliseconds())
}

// JSONTracer writes one JSON object per span to the given writer.
type JSONTracer struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
}

// NewJSONTracer builds a tracer emitting JSON lines to w.
func NewJSONTracer(w io.Writer) *JSONTracer {
	return &JSONTracer{enc: json.NewEncoder(w), now: time.Now}
}

type traceRecord struct {
	Name   string         `json:"name"`
	At     time.Time      `json:"at"`
	Fields map[string]any `json:"fields,omitempty"`
}

func (t *JSONTracer) Span(_ context.Context, name string, fields map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	// Encoding errors are dropped; tracing must never fail an operation.
	_ = t.enc.Encode(traceRecord{Name: name, At: t.now().UTC(), Fields: fields})
}
