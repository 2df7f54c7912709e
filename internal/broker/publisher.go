package broker

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/mpozdeev/notesync/internal/event"
)

// Publisher routes domain events to the session's topic exchange.
// Publishing is best-effort: the store is the source of truth and a missed
// event only delays downstream freshness, so failures are logged and
// swallowed, never surfaced to the mutation path.
type Publisher struct {
	sess *Session
	log  *zap.Logger
	now  func() time.Time
}

// NewPublisher constructs a publisher bound to the session's exchange.
func NewPublisher(sess *Session, log *zap.Logger) *Publisher {
	return &Publisher{sess: sess, log: log, now: time.Now}
}

// Publish serializes {eventType, data, timestamp} and routes it under
// eventType. While the session is down the event is dropped with a warning;
// the caller's mutation is already committed and must not be rolled back.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) {
	ch, err := p.sess.Channel()
	if err != nil {
		p.log.Warn("event dropped, broker not connected", zap.String("event", eventType))
		return
	}

	env, err := event.New(eventType, payload, p.now().UTC())
	if err != nil {
		p.log.Error("event encode failed", zap.String("event", eventType), zap.Error(err))
		return
	}
	body, err := env.Encode()
	if err != nil {
		p.log.Error("event encode failed", zap.String("event", eventType), zap.Error(err))
		return
	}

	msgID, _ := uuid.NewV4()
	err = ch.PublishWithContext(ctx, p.sess.Exchange(), eventType, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msgID.String(),
		Timestamp:    env.Timestamp,
		Body:         body,
	})
	if err != nil {
		p.log.Warn("event publish failed", zap.String("event", eventType), zap.Error(err))
		return
	}
	p.log.Debug("event published", zap.String("event", eventType))
}
