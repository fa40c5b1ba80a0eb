package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

const serviceName = "cinebook-api"

// InitTelemetry initializes the OpenTelemetry provider and returns a shutdown function.
func (app *application) InitTelemetry() (func(context.Context), error) {
	if app.config.otelCollectorUrl == "" {
		app.logger.Info("OpenTelemetry collector URL not set, skipping initialization")

		return func(context.Context) {}, nil
	}

	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
			semconv.DeploymentEnvironment(app.config.env),
		),
	)
	if err != nil {
		return nil, errors.New("failed to create otel resource")
	}

	// Create the trace provider
	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(app.config.otelCollectorUrl),
	)
	if err != nil {
		return nil, errors.New("failed to create otel trace exporter")
	}

	bsp := trace.NewBatchSpanProcessor(traceExporter)
	tracerProvider := trace.NewTracerProvider(
		trace.WithSampler(trace.AlwaysSample()),
		trace.WithResource(res),
		trace.WithSpanProcessor(bsp),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	// Create the meter provider
	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithInsecure(),
		otlpmetricgrpc.WithEndpoint(app.config.otelCollectorUrl),
	)
	if err != nil {
		return nil, errors.New("failed to create otel metric exporter")
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(15*time.Second))),
	)

	otel.SetMeterProvider(meterProvider)

	// Create the log provider
	logExporter, err := otlploggrpc.New(ctx,
		otlploggrpc.WithInsecure(),
		otlploggrpc.WithEndpoint(app.config.otelCollectorUrl),
	)
	if err != nil {
		return nil, errors.New("failed to create otel log exporter")
	}

	loggerProvider := log.NewLoggerProvider(
		log.WithResource(res),
		log.WithProcessor(log.NewBatchProcessor(logExporter)),
	)

	global.SetLoggerProvider(loggerProvider)

	// Ship log records to the collector as well as stdout.
	app.logger = slog.New(NewMultiHandler(
		app.logger.Handler(),
		otelslog.NewHandler(serviceName),
	))

	shutdown := func(ctx context.Context) {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		err := errors.Join(
			tracerProvider.Shutdown(shutdownCtx),
			meterProvider.Shutdown(shutdownCtx),
			loggerProvider.Shutdown(shutdownCtx),
		)
		if err != nil {
			app.logger.Error("failed to shutdown telemetry providers", "error", err)
		}
	}

	return shutdown, nil
}

type metrics struct {
	holdsCreated      metric.Int64Counter
	holdConflicts     metric.Int64Counter
	holdsExpired      metric.Int64Counter
	bookingsConfirmed metric.Int64Counter
	paymentsFailed    metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter(serviceName)

	holdsCreated, err := meter.Int64Counter("cinebook.holds.created")
	if err != nil {
		return nil, err
	}

	holdConflicts, err := meter.Int64Counter("cinebook.holds.conflicts")
	if err != nil {
		return nil, err
	}

	holdsExpired, err := meter.Int64Counter("cinebook.holds.expired")
	if err != nil {
		return nil, err
	}

	bookingsConfirmed, err := meter.Int64Counter("cinebook.bookings.confirmed")
	if err != nil {
		return nil, err
	}

	paymentsFailed, err := meter.Int64Counter("cinebook.payments.failed")
	if err != nil {
		return nil, err
	}

	return &metrics{
		holdsCreated:      holdsCreated,
		holdConflicts:     holdConflicts,
		holdsExpired:      holdsExpired,
		bookingsConfirmed: bookingsConfirmed,
		paymentsFailed:    paymentsFailed,
	}, nil
}

// MultiHandler is a slog.Handler that dispatches log records to multiple handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler creates a new MultiHandler that forwards records to the provided handlers.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{
		handlers: handlers,
	}
}

// Enabled reports whether any of the underlying handlers are enabled.
func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle dispatches the record to all underlying handlers.
func (h *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		// We ignore errors from individual handlers.
		_ = handler.Handle(ctx, record)
	}
	return nil
}

// WithAttrs creates a new MultiHandler with the provided attributes added to each sub-handler.
func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: newHandlers}
}

// WithGroup creates a new MultiHandler with the provided group name added to each sub-handler.
func (h *MultiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithGroup(name)
	}
	return &MultiHandler{handlers: newHandlers}
}
