package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/stockroom"
)

// Attribute keys
const (
	AttrOutcome   = "outcome"
	AttrCheck     = "check"
	AttrOperation = "operation"
	AttrMethod    = "http.request.method"
	AttrStatus    = "http.response.status_code"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Account metrics
	RegistrationsTotal metric.Int64Counter
	LoginsTotal        metric.Int64Counter

	// Authorization metrics
	GuardDenialsTotal metric.Int64Counter

	// Mutation metrics
	ProductMutationsTotal metric.Int64Counter
	UserMutationsTotal    metric.Int64Counter

	// HTTP metrics
	RequestDuration metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
// Instruments come from the global meter provider and are no-ops until InitTelemetry runs.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.RegistrationsTotal, _ = meter.Int64Counter(
		"stockroom.registrations.total",
		metric.WithDescription("Total number of company registration attempts"),
		metric.WithUnit("{registration}"),
	)

	m.LoginsTotal, _ = meter.Int64Counter(
		"stockroom.logins.total",
		metric.WithDescription("Total number of login attempts"),
		metric.WithUnit("{login}"),
	)

	m.GuardDenialsTotal, _ = meter.Int64Counter(
		"stockroom.guard.denials.total",
		metric.WithDescription("Total number of requests denied by an authorization check"),
		metric.WithUnit("{request}"),
	)

	m.ProductMutationsTotal, _ = meter.Int64Counter(
		"stockroom.products.mutations.total",
		metric.WithDescription("Total number of product creates, updates and deletes"),
		metric.WithUnit("{mutation}"),
	)

	m.UserMutationsTotal, _ = meter.Int64Counter(
		"stockroom.users.mutations.total",
		metric.WithDescription("Total number of user creates, updates and deletes"),
		metric.WithUnit("{mutation}"),
	)

	m.RequestDuration, _ = meter.Float64Histogram(
		"stockroom.http.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("ms"),
	)

	return m
}

// RecordRegistration counts a registration attempt by outcome.
func (m *Metrics) RecordRegistration(ctx context.Context, outcome string) {
	m.RegistrationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}

// RecordLogin counts a login attempt by outcome.
func (m *Metrics) RecordLogin(ctx context.Context, outcome string) {
	m.LoginsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}

// RecordGuardDenial counts a denial by the check that produced it.
func (m *Metrics) RecordGuardDenial(ctx context.Context, check string) {
	m.GuardDenialsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrCheck, check)))
}

// RecordProductMutation counts a product write by operation.
func (m *Metrics) RecordProductMutation(ctx context.Context, op string) {
	m.ProductMutationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOperation, op)))
}

// RecordUserMutation counts a user write by operation.
func (m *Metrics) RecordUserMutation(ctx context.Context, op string) {
	m.UserMutationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOperation, op)))
}

// RecordRequest records the duration of an HTTP request in milliseconds.
func (m *Metrics) RecordRequest(ctx context.Context, method string, status int, durationMs float64) {
	m.RequestDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String(AttrMethod, method),
		attribute.Int(AttrStatus, status),
	))
}
