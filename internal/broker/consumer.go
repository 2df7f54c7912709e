package broker

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/mpozdeev/notesync/internal/event"
)

// Handler processes one decoded event. A nil return acknowledges the
// delivery; an error negatively-acknowledges it with requeue, so handlers
// must be idempotent under redelivery and reordering.
type Handler func(ctx context.Context, ev event.Envelope) error

// ConsumerConfig describes a durable queue bound to the topic exchange.
type ConsumerConfig struct {
	Queue          string        // durable queue name, e.g. "analytics_queue"
	Pattern        string        // binding pattern, e.g. "note.*"
	Prefetch       int           // bounded unacked window, default 8; 1 serializes handling
	HandlerTimeout time.Duration // per-message budget, default 5s
}

// Consumer pulls deliveries from a durable queue and dispatches them to a
// handler with ack-after-success semantics (at-least-once).
type Consumer struct {
	sess    *Session
	cfg     ConsumerConfig
	handler Handler
	log     *zap.Logger
}

// NewConsumer constructs a consumer; nothing is declared until Run.
func NewConsumer(sess *Session, cfg ConsumerConfig, h Handler, log *zap.Logger) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 8
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 5 * time.Second
	}
	return &Consumer{sess: sess, cfg: cfg, handler: h, log: log}
}

// Run consumes until ctx is cancelled. Queue and binding are re-declared
// idempotently after every reconnect; the declarations are the only topology
// writes this component performs.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		ch, err := c.sess.WaitReady(ctx)
		if err != nil {
			return err
		}

		deliveries, err := c.setup(ch)
		if err != nil {
			c.log.Warn("consumer setup failed", zap.String("queue", c.cfg.Queue), zap.Error(err))
			// Session is likely going down; wait for the next one.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		c.log.Info("consuming",
			zap.String("queue", c.cfg.Queue),
			zap.String("pattern", c.cfg.Pattern),
			zap.Int("prefetch", c.cfg.Prefetch),
		)

		// Ranges until the broker closes the delivery channel (connection
		// loss) or ctx is cancelled.
		if err := c.drain(ctx, deliveries); err != nil {
			return err
		}
	}
}

func (c *Consumer) setup(ch Channel) (<-chan amqp.Delivery, error) {
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	if err := ch.QueueBind(q.Name, c.cfg.Pattern, c.sess.Exchange(), false, nil); err != nil {
		return nil, err
	}
	return ch.Consume(q.Name, "", false, false, false, false, nil)
}

func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil // channel closed, reconnect
			}
			c.handle(ctx, d)
		}
	}
}

// handle decodes and dispatches one delivery. Malformed bodies and unknown
// event types are acked and dropped: redelivery cannot fix them and they
// must not wedge the queue.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	ev, err := event.Decode(d.Body)
	if err != nil {
		c.log.Warn("dropping malformed delivery", zap.Error(err))
		_ = d.Ack(false)
		return
	}
	if !event.Known(ev.Type) {
		c.log.Debug("ignoring unknown event type", zap.String("event", ev.Type))
		_ = d.Ack(false)
		return
	}

	hctx, cancel := context.WithTimeout(ctx, c.cfg.HandlerTimeout)
	err = c.handler(hctx, ev)
	cancel()
	if err != nil {
		c.log.Warn("handler failed, requeueing",
			zap.String("event", ev.Type),
			zap.Error(err),
		)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}
