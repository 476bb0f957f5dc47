package tracing

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/internlink/internal/apperr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

// Attributes that may carry user content are never attached to spans.
var blockedAttributeKeys = map[attribute.Key]struct{}{
	"message.body":    {},
	"invitation.text": {},
	"authorization":   {},
}

// ExtractContext reads propagated trace headers into ctx.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// SafeAttributes drops attributes that are not allowed on spans.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, blocked := blockedAttributeKeys[attr.Key]; blocked {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// SafeError reduces err to its kind and code so raw driver messages are not
// exported.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return errors.New(strings.TrimSpace(string(appErr.Kind) + ": " + appErr.Code))
	}
	return errors.New(string(apperr.KindInternal))
}
