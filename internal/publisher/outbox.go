// Package publisher relays transaction events to the message broker. Events are queued in an
// outbox and a poller forwards them, so checkout never waits on the broker.
package publisher

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/domain"
	"go.uber.org/zap"
)

type Sink interface {
	Publish(ctx context.Context, evt domain.TransactionEvent) error
}

type OutboxEvent struct {
	ID       int64
	Event    domain.TransactionEvent
	Attempts int
}

// Outbox is an in-memory FIFO of unpublished events.
type Outbox struct {
	mu     sync.Mutex
	nextID int64
	events []*OutboxEvent
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

// Publish enqueues evt.
func (o *Outbox) Publish(_ context.Context, evt domain.TransactionEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	o.events = append(o.events, &OutboxEvent{ID: o.nextID, Event: evt})
	return nil
}

// Unprocessed returns up to limit of the oldest queued events.
func (o *Outbox) Unprocessed(limit int) []OutboxEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := min(limit, len(o.events))
	out := make([]OutboxEvent, n)
	for i := 0; i < n; i++ {
		out[i] = *o.events[i]
	}
	return out
}

func (o *Outbox) MarkProcessed(id int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, e := range o.events {
		if e.ID == id {
			o.events = append(o.events[:i], o.events[i+1:]...)
			return
		}
	}
}

func (o *Outbox) markFailed(id int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.events {
		if e.ID == id {
			e.Attempts++
			return
		}
	}
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}

type OutboxPoller struct {
	outbox    *Outbox
	sink      Sink
	eventTick time.Duration
	batchSize int
	log       *zap.Logger
}

func NewOutboxPoller(outbox *Outbox, sink Sink, tick time.Duration, log *zap.Logger) *OutboxPoller {
	if tick <= 0 {
		tick = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OutboxPoller{outbox: outbox, sink: sink, eventTick: tick, batchSize: 100, log: log}
}

// Run forwards queued events until ctx is done, then makes one last pass with a short deadline.
func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.eventTick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.ProcessUnpublished(ctx)
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			p.ProcessUnpublished(drainCtx)
			cancel()
			return
		}
	}
}

// ProcessUnpublished forwards one batch and returns how many events were published. It stops at
// the first failure so events keep their order.
func (p *OutboxPoller) ProcessUnpublished(ctx context.Context) int {
	published := 0
	for _, e := range p.outbox.Unprocessed(p.batchSize) {
		if err := p.sink.Publish(ctx, e.Event); err != nil {
			p.outbox.markFailed(e.ID)
			p.log.Warn("failed to publish event",
				zap.Int64("outbox_id", e.ID),
				zap.String("transaction_id", e.Event.Transaction.ID),
				zap.Int("attempts", e.Attempts+1),
				zap.Error(err))
			break
		}
		p.outbox.MarkProcessed(e.ID)
		published++
	}
	return published
}

// LogSink writes events to the log when no broker is configured.
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) Publish(_ context.Context, evt domain.TransactionEvent) error {
	s.Log.Info("transaction event",
		zap.String("event_type", string(evt.Type)),
		zap.String("transaction_id", evt.Transaction.ID),
		zap.String("status", evt.Transaction.Status.String()),
		zap.Int64("grand_total", evt.Transaction.GrandTotal))
	return nil
}
