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

// Metrics exposes relationship-domain instruments.
type Metrics struct {
	invitationsCreated    metric.Int64Counter
	invitationTransitions metric.Int64Counter
	blocks                metric.Int64Counter
	messagesSent          metric.Int64Counter
	favoritesToggled      metric.Int64Counter
	permissionDenials     metric.Int64Counter
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

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))
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
		name = "internlink"
	}
	meter := provider.Meter(name)

	var (
		m   Metrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.invitationsCreated, "internlink_invitations_created_total", "Invitations created by type."},
		{&m.invitationTransitions, "internlink_invitation_transitions_total", "Invitation status transitions."},
		{&m.blocks, "internlink_blocks_total", "Blacklist entries created."},
		{&m.messagesSent, "internlink_messages_sent_total", "Chat messages sent by sender role."},
		{&m.favoritesToggled, "internlink_favorites_toggled_total", "Favorite toggles by target kind and outcome."},
		{&m.permissionDenials, "internlink_permission_denials_total", "Stage gate denials by role and action."},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func (m *Metrics) RecordInvitationCreated(ctx context.Context, invitationType string) {
	if m == nil {
		return
	}
	m.invitationsCreated.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("invitation_type", invitationType),
	)...))
}

// RecordInvitationTransition counts a status change; source is "user" or
// "sweeper".
func (m *Metrics) RecordInvitationTransition(ctx context.Context, to, source string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.invitationTransitions.Add(ctx, count, metric.WithAttributes(FilterAttributes(
		attribute.String("status", to),
		attribute.String("source", source),
	)...))
}

func (m *Metrics) RecordBlock(ctx context.Context, blockerRole string) {
	if m == nil {
		return
	}
	m.blocks.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("role", blockerRole),
	)...))
}

func (m *Metrics) RecordMessageSent(ctx context.Context, senderRole string) {
	if m == nil {
		return
	}
	m.messagesSent.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("role", senderRole),
	)...))
}

func (m *Metrics) RecordFavoriteToggled(ctx context.Context, kind string, added bool) {
	if m == nil {
		return
	}
	outcome := "removed"
	if added {
		outcome = "added"
	}
	m.favoritesToggled.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("target_kind", kind),
		attribute.String("outcome", outcome),
	)...))
}

func (m *Metrics) RecordPermissionDenied(ctx context.Context, role, action string) {
	if m == nil {
		return
	}
	m.permissionDenials.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("role", role),
		attribute.String("action", action),
	)...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
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
	"invitation_type": {},
	"status":          {},
	"source":          {},
	"role":            {},
	"action":          {},
	"target_kind":     {},
	"outcome":         {},
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
