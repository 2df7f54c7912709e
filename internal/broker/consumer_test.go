package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mpozdeev/notesync/internal/event"
)

func mustBody(t *testing.T, typ string, payload any) []byte {
	t.Helper()
	env, err := event.New(typ, payload, time.Now().UTC())
	require.NoError(t, err)
	body, err := env.Encode()
	require.NoError(t, err)
	return body
}

type countingHandler struct {
	mu    sync.Mutex
	calls int
	errs  []error // popped per call, nil when exhausted
	seen  []string
}

func (h *countingHandler) handle(ctx context.Context, ev event.Envelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	h.seen = append(h.seen, ev.Type)
	if len(h.errs) > 0 {
		err := h.errs[0]
		h.errs = h.errs[1:]
		return err
	}
	return nil
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func TestConsumer_AckAfterHandlerSuccess(t *testing.T) {
	h := &countingHandler{}
	c := NewConsumer(nil, ConsumerConfig{Queue: "q", Pattern: "note.*"}, h.handle, zap.NewNop())

	ack := &fakeAck{}
	c.handle(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		Body:         mustBody(t, event.TypeNoteCreated, event.NotePayload{ID: 7}),
	})

	require.Equal(t, 1, h.count())
	require.Equal(t, []uint64{1}, ack.acked)
	require.Empty(t, ack.nacked)
}

func TestConsumer_NackRequeueOnFailure_ThenAck(t *testing.T) {
	// Handler fails on the first attempt, succeeds on redelivery:
	// the message must be nacked with requeue, then acked exactly once.
	h := &countingHandler{errs: []error{errors.New("store unreachable")}}
	c := NewConsumer(nil, ConsumerConfig{Queue: "q", Pattern: "note.*"}, h.handle, zap.NewNop())

	ack := &fakeAck{}
	body := mustBody(t, event.TypeNoteUpdated, event.NotePayload{ID: 7})

	c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body})
	require.Equal(t, []uint64{1}, ack.nacked)
	require.Equal(t, []bool{true}, ack.requeued)
	require.Empty(t, ack.acked)

	// Broker redelivers.
	c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: body, Redelivered: true})
	require.Equal(t, []uint64{2}, ack.acked)
	require.Equal(t, 2, h.count())
}

func TestConsumer_AcksMalformedWithoutHandler(t *testing.T) {
	h := &countingHandler{}
	c := NewConsumer(nil, ConsumerConfig{Queue: "q", Pattern: "note.*"}, h.handle, zap.NewNop())

	ack := &fakeAck{}
	c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte("not json")})

	require.Equal(t, 0, h.count())
	require.Equal(t, []uint64{1}, ack.acked)
	require.Empty(t, ack.nacked)
}

func TestConsumer_AcksUnknownEventType(t *testing.T) {
	h := &countingHandler{}
	c := NewConsumer(nil, ConsumerConfig{Queue: "q", Pattern: "note.*"}, h.handle, zap.NewNop())

	ack := &fakeAck{}
	c.handle(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		Body:         mustBody(t, "note.archived", map[string]any{"id": 1}),
	})

	require.Equal(t, 0, h.count()) // forward compatible: skipped, not failed
	require.Equal(t, []uint64{1}, ack.acked)
}

func TestConsumer_DeclaresDurableQueueAndBinding(t *testing.T) {
	d := &fakeDialer{}
	s := newTestSession(d)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	h := &countingHandler{}
	c := NewConsumer(s, ConsumerConfig{Queue: "analytics_queue", Pattern: "note.*", Prefetch: 1}, h.handle, zap.NewNop())
	go func() { _ = c.Run(ctx) }()

	require.Eventually(t, func() bool {
		conn := d.last()
		if conn == nil {
			return false
		}
		conn.ch.mu.Lock()
		defer conn.ch.mu.Unlock()
		return conn.ch.queue == "analytics_queue" && conn.ch.durable &&
			conn.ch.bindKey == "note.*" && conn.ch.prefetch == 1
	}, time.Second, time.Millisecond)

	// End-to-end: a delivery through the consume channel reaches the handler.
	ack := &fakeAck{}
	d.last().ch.deliveries <- amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  9,
		Body:         mustBody(t, event.TypeNoteDeleted, event.DeletePayload{ID: 2}),
	}
	require.Eventually(t, func() bool { return h.count() == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		ack.mu.Lock()
		defer ack.mu.Unlock()
		return len(ack.acked) == 1 && ack.acked[0] == 9
	}, time.Second, time.Millisecond)
}
