package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

// Emitter is the storing side of the notification channel.
type Emitter interface {
	Emit(ctx context.Context, userID int64, message string, category domain.NotificationCategory, link *string) (domain.Notification, error)
}

// Dispatcher delivers notification drafts in the background. Notify never
// blocks on delivery and never reports failures; they are logged and dropped.
type Dispatcher struct {
	emitter Emitter
	queue   chan job
	sem     *semaphore.Weighted
	timeout time.Duration
	log     zerolog.Logger

	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

type job struct {
	ctx   context.Context
	draft domain.NotificationDraft
}

func NewDispatcher(e Emitter, workers, queueSize int, logger zerolog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &Dispatcher{
		emitter: e,
		queue:   make(chan job, queueSize),
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: 5 * time.Second,
		log:     logger.With().Str("component", "notifications").Logger(),
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

func (d *Dispatcher) Notify(ctx context.Context, draft domain.NotificationDraft) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(draft, "dispatcher closed")
		return
	}
	// detach from the request so a finished HTTP call does not cancel delivery
	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), draft: draft}:
	default:
		d.drop(draft, "queue full")
	}
}

// Close stops accepting drafts and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
	d.wg.Wait()
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	for j := range d.queue {
		// Acquire only fails on a cancelled context; Background never is.
		_ = d.sem.Acquire(context.Background(), 1)
		d.wg.Add(1)
		go func(j job) {
			defer d.wg.Done()
			defer d.sem.Release(1)
			d.deliver(j)
		}(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.timeout)
	defer cancel()
	if _, err := d.emitter.Emit(ctx, j.draft.UserID, j.draft.Message, j.draft.Category, j.draft.Link); err != nil {
		observability.ObserveNotification("failed")
		d.log.Error().Err(err).
			Int64("user_id", j.draft.UserID).
			Str("category", string(j.draft.Category)).
			Msg("notification emit failed")
		return
	}
	observability.ObserveNotification("delivered")
}

func (d *Dispatcher) drop(draft domain.NotificationDraft, reason string) {
	observability.ObserveNotification("dropped")
	d.log.Warn().
		Int64("user_id", draft.UserID).
		Str("category", string(draft.Category)).
		Str("reason", reason).
		Msg("notification dropped")
}

// InlineNotifier emits on the caller's goroutine and discards the result.
type InlineNotifier struct {
	Emitter Emitter
	Log     zerolog.Logger
}

func (n InlineNotifier) Notify(ctx context.Context, draft domain.NotificationDraft) {
	if _, err := n.Emitter.Emit(ctx, draft.UserID, draft.Message, draft.Category, draft.Link); err != nil {
		observability.ObserveNotification("failed")
		n.Log.Error().Err(err).Int64("user_id", draft.UserID).Msg("notification emit failed")
		return
	}
	observability.ObserveNotification("delivered")
}
