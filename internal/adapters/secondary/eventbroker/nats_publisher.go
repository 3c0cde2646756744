// Package eventbroker announces local feed mutations on NATS.
package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

const (
	SubjectPrefix = "impact-feed.events."
	// OriginHeader names the session that published, so it can skip its own echo.
	OriginHeader = "Impact-Origin"
)

// FeedEventMessage is the wire contract shared with the events listener.
type FeedEventMessage struct {
	Type      string `json:"type"`
	PostID    string `json:"postId"`
	CommentID string `json:"commentId,omitempty"`
}

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	PublishMsg(m *nats.Msg) error
}

type NatsPublisher struct {
	nc     Conn
	origin string
}

func NewNatsPublisher(nc Conn, origin string) *NatsPublisher {
	return &NatsPublisher{nc: nc, origin: origin}
}

func (p *NatsPublisher) PublishFeedEvent(ctx context.Context, evt domain.FeedEvent) error {
	data, err := json.Marshal(FeedEventMessage{Type: string(evt.Type), PostID: evt.PostID, CommentID: evt.CommentID})
	if err != nil {
		return fmt.Errorf("marshal feed event: %w", err)
	}

	msg := &nats.Msg{
		Subject: SubjectPrefix + string(evt.Type),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set(OriginHeader, p.origin)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	slog.Debug("📢 Publishing feed event", "subject", msg.Subject, "post_id", evt.PostID)
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", msg.Subject, err)
	}
	return nil
}

var _ ports.FeedEventPublisher = (*NatsPublisher)(nil)
