package metrics

import (
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	LoginRequestsTotal    metric.Int64Counter
	RegisterRequestsTotal metric.Int64Counter
	AdMutationsTotal      metric.Int64Counter
	MailSendErrorsTotal   metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
	initErr    error
)

// Setup configures the global tracer and meter providers. Metrics are read
// through the Prometheus exporter; the router exposes them at /metrics.
func Setup() error {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("transmission-savoirs-api"),
		)),
	)
	otel.SetTracerProvider(tp)

	exporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(mp)

	return nil
}

// InitAppMetrics initializes the global metric instruments, once.
func InitAppMetrics() (*AppMetrics, error) {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("transmission-savoirs-api")
		m := &AppMetrics{}

		m.LoginRequestsTotal, initErr = meter.Int64Counter(
			"login_requests_total",
			metric.WithDescription("Total number of login requests completed"),
			metric.WithUnit("{request}"),
		)
		if initErr != nil {
			return
		}

		m.RegisterRequestsTotal, initErr = meter.Int64Counter(
			"register_requests_total",
			metric.WithDescription("Total number of register requests completed"),
			metric.WithUnit("{request}"),
		)
		if initErr != nil {
			return
		}

		m.AdMutationsTotal, initErr = meter.Int64Counter(
			"ad_mutations_total",
			metric.WithDescription("Total number of ad create/edit/delete operations"),
			metric.WithUnit("{operation}"),
		)
		if initErr != nil {
			return
		}

		m.MailSendErrorsTotal, initErr = meter.Int64Counter(
			"mail_send_errors_total",
			metric.WithDescription("Total number of failed outbound email attempts"),
			metric.WithUnit("{error}"),
		)
		if initErr != nil {
			return
		}

		appMetrics = m
	})
	return appMetrics, initErr
}
