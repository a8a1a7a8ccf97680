package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	notificationQueue = "marketplace-notifications"
	handlerTimeout    = 30 * time.Second
)

// EventHandler consumes one decoded listing event.
type EventHandler func(ctx context.Context, event domain.ListingEvent) error

// Subscriber runs handlers for listing events in a queue group, so each
// event is handled by one service instance.
type Subscriber struct {
	conn   *nats.Conn
	logger *logger.Logger
	subs   []*nats.Subscription
}

func NewSubscriber(conn *nats.Conn, log *logger.Logger) *Subscriber {
	return &Subscriber{conn: conn, logger: log.Named("NATSSubscriber")}
}

func (s *Subscriber) Subscribe(subject string, handler EventHandler) error {
	sub, err := s.conn.QueueSubscribe(subject, notificationQueue, func(msg *nats.Msg) {
		s.dispatch(msg, handler)
	})
	if err != nil {
		s.logger.Error("NATS Subscriber: failed to subscribe", "subject", subject, "error", err)
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	s.subs = append(s.subs, sub)
	s.logger.Info("NATS Subscriber: subscribed", "subject", subject, "queue", notificationQueue)
	return nil
}

func (s *Subscriber) dispatch(msg *nats.Msg, handler EventHandler) {
	ctx := context.Background()
	if msg.Header != nil {
		ctx = otel.GetTextMapPropagator().Extract(ctx, HeaderCarrier(msg.Header))
	}
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, fmt.Sprintf("NATS.Handle.%s", msg.Subject), trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	var event domain.ListingEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Error("NATS Subscriber: dropping malformed event", "subject", msg.Subject, "error", err)
		span.RecordError(err)
		return
	}
	if err := handler(ctx, event); err != nil {
		s.logger.Warn("NATS Subscriber: handler failed", "subject", msg.Subject, "listing_id", event.ListingID, "error", err)
		span.RecordError(err)
		return
	}
	s.logger.Debug("NATS Subscriber: event handled", "subject", msg.Subject, "listing_id", event.ListingID)
}

// Unsubscribe stops all subscriptions. The connection stays open.
func (s *Subscriber) Unsubscribe() {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Warn("NATS Subscriber: failed to unsubscribe", "subject", sub.Subject, "error", err)
		}
	}
	s.subs = nil
}
