package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	taskTransitions      metric.Int64Counter
	notificationsEmitted metric.Int64Counter
	permissionDenials    metric.Int64Counter
	staleWriteConflicts  metric.Int64Counter
	membershipJoins      metric.Int64Counter
	rateLimitAllowed     metric.Int64Counter
	rateLimitDenied      metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "syncspace"
	}
	meter := provider.Meter(name)

	taskTransitions, err := meter.Int64Counter("syncspace_task_transitions_total")
	if err != nil {
		return nil, err
	}
	notificationsEmitted, err := meter.Int64Counter("syncspace_notifications_emitted_total")
	if err != nil {
		return nil, err
	}
	permissionDenials, err := meter.Int64Counter("syncspace_permission_denials_total")
	if err != nil {
		return nil, err
	}
	staleWriteConflicts, err := meter.Int64Counter("syncspace_stale_write_conflicts_total")
	if err != nil {
		return nil, err
	}
	membershipJoins, err := meter.Int64Counter("syncspace_membership_joins_total")
	if err != nil {
		return nil, err
	}
	rateLimitAllowed, err := meter.Int64Counter("syncspace_rate_limit_allowed_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("syncspace_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		taskTransitions:      taskTransitions,
		notificationsEmitted: notificationsEmitted,
		permissionDenials:    permissionDenials,
		staleWriteConflicts:  staleWriteConflicts,
		membershipJoins:      membershipJoins,
		rateLimitAllowed:     rateLimitAllowed,
		rateLimitDenied:      rateLimitDenied,
	}, nil
}

// RecordTaskTransition increments task lifecycle transition counts.
func (m *Metrics) RecordTaskTransition(ctx context.Context, fromStatus, toStatus string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("from_status", strings.TrimSpace(fromStatus)),
		attribute.String("to_status", strings.TrimSpace(toStatus)),
	)
	m.taskTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordNotificationEmitted increments emitted notification counts.
func (m *Metrics) RecordNotificationEmitted(ctx context.Context, eventType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("event_type", strings.TrimSpace(eventType)))
	m.notificationsEmitted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPermissionDenial increments permission denial counts.
func (m *Metrics) RecordPermissionDenial(ctx context.Context, action string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("action", strings.TrimSpace(action)))
	m.permissionDenials.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordStaleWriteConflict increments optimistic concurrency conflict counts.
func (m *Metrics) RecordStaleWriteConflict(ctx context.Context, resourceType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("resource_type", strings.TrimSpace(resourceType)))
	m.staleWriteConflicts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordMembershipJoin increments successful workspace join counts.
func (m *Metrics) RecordMembershipJoin(ctx context.Context, workspaceID string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("workspace_id", strings.TrimSpace(workspaceID)))
	m.membershipJoins.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitAllowed increments rate limit allow counts.
func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, workspaceID, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("workspace_id", strings.TrimSpace(workspaceID)),
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
	)
	m.rateLimitAllowed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, workspaceID, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("workspace_id", strings.TrimSpace(workspaceID)),
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"workspace_id":  {},
	"endpoint":      {},
	"status_code":   {},
	"action":        {},
	"from_status":   {},
	"to_status":     {},
	"event_type":    {},
	"resource_type": {},
	"reason":        {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
