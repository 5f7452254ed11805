// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package notify

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/danielramos222/gridwatch/internal/config"
	"github.com/danielramos222/gridwatch/internal/logging"
	"github.com/danielramos222/gridwatch/internal/metrics"
	"github.com/danielramos222/gridwatch/internal/models"
)

// queueItem is one pending notification with its retry count.
type queueItem struct {
	change   models.ChangeRecord
	attempts int
}

// Queue serializes notification delivery: FIFO order, a minimum interval
// between sends, per-item retries with exponential backoff, and a dead-letter
// store for items that exhaust their retries.
//
// A change already waiting in the queue is not enqueued twice; a re-detected
// change for the same intervention and kind collapses into the pending one.
type Queue struct {
	channel Channel
	dead    *DeadLetterStore
	cfg     *config.NotifyConfig
	limiter *rate.Limiter

	mu      sync.Mutex
	items   []queueItem
	pending map[string]struct{}
	signal  chan struct{}

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewQueue creates a delivery queue. The dead-letter store may be nil, in
// which case exhausted items are only logged.
func NewQueue(channel Channel, dead *DeadLetterStore, cfg *config.NotifyConfig) *Queue {
	return &Queue{
		channel: channel,
		dead:    dead,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.MinSendInterval), 1),
		pending: make(map[string]struct{}),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds changes to the back of the queue, skipping duplicates of
// changes still waiting.
func (q *Queue) Enqueue(changes []models.ChangeRecord) {
	q.mu.Lock()
	for _, ch := range changes {
		key := ch.NumeroONS + "|" + string(ch.Kind)
		if _, waiting := q.pending[key]; waiting {
			continue
		}
		q.pending[key] = struct{}{}
		q.items = append(q.items, queueItem{change: ch})
	}
	depth := len(q.items)
	q.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Depth returns the number of undelivered notifications.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Start launches the delivery worker.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.stopCh = make(chan struct{})
	q.doneCh = make(chan struct{})
	stopCh, doneCh := q.stopCh, q.doneCh
	q.mu.Unlock()

	logging.Info().
		Str("channel", q.channel.Name()).
		Dur("min_send_interval", q.cfg.MinSendInterval).
		Msg("Notification queue started")

	go q.worker(ctx, stopCh, doneCh)
}

// Stop terminates the worker and waits for it to finish. Pending items stay
// queued in memory and are lost on process exit; changes are re-detected on
// the next poll against the persisted snapshot.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.stopCh)
	doneCh := q.doneCh
	q.mu.Unlock()

	<-doneCh
	logging.Info().Msg("Notification queue stopped")
}

func (q *Queue) worker(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		item, ok := q.pop()
		if !ok {
			select {
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			case <-q.signal:
				continue
			}
		}

		// Minimum spacing between delivery starts
		if err := q.limiter.Wait(ctx); err != nil {
			return
		}

		q.deliver(ctx, item)

		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}
	}
}

// pop removes the head of the queue.
func (q *Queue) pop() (queueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return queueItem{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	metrics.QueueDepth.Set(float64(len(q.items)))
	return item, true
}

// requeue puts a failed item at the back of the queue.
func (q *Queue) requeue(item queueItem) {
	q.mu.Lock()
	q.items = append(q.items, item)
	metrics.QueueDepth.Set(float64(len(q.items)))
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// deliver attempts one send. Failures below the retry budget wait out an
// exponential backoff and go to the back of the queue; exhausted items are
// dead-lettered.
func (q *Queue) deliver(ctx context.Context, item queueItem) {
	err := q.channel.Send(ctx, &item.change)
	if err == nil {
		metrics.NotificationsSent.Inc()
		q.clearPending(&item.change)
		logging.Info().
			Str("numero_ons", item.change.NumeroONS).
			Str("kind", string(item.change.Kind)).
			Msg("Notification delivered")
		return
	}

	item.attempts++
	metrics.NotificationsFailed.Inc()
	logging.Warn().Err(err).
		Str("numero_ons", item.change.NumeroONS).
		Int("attempt", item.attempts).
		Msg("Notification delivery failed")

	if item.attempts > q.cfg.MaxRetries {
		q.clearPending(&item.change)
		if q.dead != nil {
			if dlErr := q.dead.Add(item.change, item.attempts, err); dlErr != nil {
				logging.Error().Err(dlErr).Msg("Failed to dead-letter notification")
			}
		}
		return
	}

	// Exponential backoff: delay, 2×delay, 4×delay, ...
	delay := q.cfg.RetryDelay * time.Duration(1<<uint(item.attempts-1))
	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}
	q.requeue(item)
}

// clearPending releases the dedup slot for a change that left the queue.
func (q *Queue) clearPending(ch *models.ChangeRecord) {
	q.mu.Lock()
	delete(q.pending, ch.NumeroONS+"|"+string(ch.Kind))
	q.mu.Unlock()
}
