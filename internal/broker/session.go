// Package broker owns the RabbitMQ link: a process-wide session with an
// unbounded reconnect loop, a best-effort topic publisher and a durable
// queue consumer with ack/nack redelivery semantics.
package broker

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/mpozdeev/notesync/internal/errs"
)

// State of the broker session.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns the lower-case state name used in logs and health output.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Channel is the subset of *amqp.Channel the session hands out. Narrowed to
// an interface so tests can run against a fake transport.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Connection abstracts *amqp.Connection for the session.
type Connection interface {
	Channel() (Channel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

// DialFunc opens a broker connection. Injectable for tests.
type DialFunc func(url string) (Connection, error)

type amqpConn struct{ *amqp.Connection }

func (c amqpConn) Channel() (Channel, error) { return c.Connection.Channel() }

// Dial connects to RabbitMQ at url.
func Dial(url string) (Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpConn{conn}, nil
}

// Config describes a broker session.
type Config struct {
	URL        string
	Exchange   string        // durable topic exchange, e.g. "notes_events"
	RetryDelay time.Duration // fixed reconnect interval, default 5s
	Dial       DialFunc      // default Dial
}

// Session is the process-wide broker handle. At most one lives per process;
// Run keeps it alive forever, redialing on loss with a fixed interval.
type Session struct {
	url      string
	exchange string
	delay    time.Duration
	dial     DialFunc
	log      *zap.Logger

	mu    sync.RWMutex
	state State
	conn  Connection
	ch    Channel
	ready chan struct{} // closed while Connected, replaced on loss
}

// NewSession constructs a session; it stays Disconnected until Run is started.
func NewSession(cfg Config, log *zap.Logger) *Session {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.Dial == nil {
		cfg.Dial = Dial
	}
	return &Session{
		url:      cfg.URL,
		exchange: cfg.Exchange,
		delay:    cfg.RetryDelay,
		dial:     cfg.Dial,
		log:      log,
		state:    StateDisconnected,
		ready:    make(chan struct{}),
	}
}

// Exchange returns the topic exchange name declared by this session.
func (s *Session) Exchange() string { return s.exchange }

// State reports the current connection state for health endpoints.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Channel returns the live channel, or ErrNotConnected while the session is
// down. Callers must not cache the result across reconnects.
func (s *Session) Channel() (Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateConnected || s.ch == nil {
		return nil, errs.ErrNotConnected
	}
	return s.ch, nil
}

// WaitReady blocks until the session is Connected and returns its channel.
func (s *Session) WaitReady(ctx context.Context) (Channel, error) {
	for {
		s.mu.RLock()
		st, ch, ready := s.state, s.ch, s.ready
		s.mu.RUnlock()
		if st == StateConnected && ch != nil {
			return ch, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ready:
		}
	}
}

// Run drives the Disconnected -> Connecting -> Connected state machine until
// ctx is cancelled. It never gives up: after every failure or connection loss
// it waits the fixed interval and redials, so the process self-heals across
// broker restarts without operator intervention.
func (s *Session) Run(ctx context.Context) error {
	for {
		closed, err := s.connect(ctx)
		if err != nil {
			// Only context cancellation escapes the retry policy.
			s.teardown()
			return err
		}

		select {
		case <-ctx.Done():
			s.teardown()
			return ctx.Err()
		case amqpErr := <-closed:
			s.log.Warn("broker connection lost", zap.Error(amqpErr))
			s.teardown()
		}
	}
}

// connect retries until a connection, channel and exchange are established.
func (s *Session) connect(ctx context.Context) (chan *amqp.Error, error) {
	s.setState(StateConnecting)

	var closed chan *amqp.Error
	backoff := retry.NewConstant(s.delay)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		conn, err := s.dial(s.url)
		if err != nil {
			s.log.Warn("broker dial failed", zap.Error(err), zap.Duration("retry_in", s.delay))
			return retry.RetryableError(err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			s.log.Warn("broker channel open failed", zap.Error(err), zap.Duration("retry_in", s.delay))
			return retry.RetryableError(err)
		}
		if err := ch.ExchangeDeclare(s.exchange, "topic", true, false, false, false, nil); err != nil {
			_ = conn.Close()
			s.log.Warn("exchange declare failed", zap.Error(err), zap.Duration("retry_in", s.delay))
			return retry.RetryableError(err)
		}

		closed = conn.NotifyClose(make(chan *amqp.Error, 1))
		s.mu.Lock()
		s.conn, s.ch = conn, ch
		s.state = StateConnected
		close(s.ready) // unblock WaitReady callers
		s.mu.Unlock()
		s.log.Info("broker connected", zap.String("exchange", s.exchange))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

// teardown drops the live handles and re-arms the ready gate.
func (s *Session) teardown() {
	s.mu.Lock()
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.conn, s.ch = nil, nil
	if s.state == StateConnected {
		s.ready = make(chan struct{})
	}
	s.state = StateDisconnected
	s.mu.Unlock()
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
