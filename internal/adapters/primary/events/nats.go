// Package events turns feed events from other sessions into cache invalidations.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tazminur12/volunter-sub001/internal/adapters/secondary/eventbroker"
	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

// Subject matches every feed event.
const Subject = eventbroker.SubjectPrefix + ">"

type EventHandler struct {
	service ports.FeedService
	origin  string
}

// NewEventHandler skips messages published under origin, i.e. this session's own.
func NewEventHandler(service ports.FeedService, origin string) *EventHandler {
	return &EventHandler{service: service, origin: origin}
}

// Subscribe attaches the handler to nc.
func (h *EventHandler) Subscribe(nc *nats.Conn) (*nats.Subscription, error) {
	sub, err := nc.Subscribe(Subject, h.HandleFeedEvent)
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", Subject, err)
	}
	slog.Info("👂 Listening for feed events", "subject", Subject)
	return sub, nil
}

func (h *EventHandler) HandleFeedEvent(msg *nats.Msg) {
	if msg.Header != nil && h.origin != "" && msg.Header.Get(eventbroker.OriginHeader) == h.origin {
		return
	}

	// 1. Continue the publisher's trace
	ctx := context.Background()
	if msg.Header != nil {
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(msg.Header))
	}
	_, span := otel.Tracer("feed-service").Start(ctx, "process_feed_event",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.String("messaging.destination", msg.Subject)))
	defer span.End()

	// 2. Decode
	var wire eventbroker.FeedEventMessage
	if err := json.Unmarshal(msg.Data, &wire); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid event")
		slog.Error("❌ Invalid feed event", "subject", msg.Subject, "error", err)
		return
	}
	if wire.PostID == "" && wire.Type != string(domain.EventPostCreated) {
		span.SetStatus(codes.Error, "missing post id")
		slog.Warn("⚠️ Feed event without post id", "type", wire.Type)
		return
	}

	// 3. Invalidate
	slog.Debug("📨 Feed event received", "type", wire.Type, "post_id", wire.PostID)
	h.service.ApplyRemoteEvent(domain.FeedEvent{
		Type:      domain.FeedEventType(wire.Type),
		PostID:    wire.PostID,
		CommentID: wire.CommentID,
	})
}
