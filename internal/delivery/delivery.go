// Package delivery sends lead-gated analysis summaries to a configured
// webhook with at-least-once semantics. Failed deliveries land in a
// durable queue that is drained on the next service start.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/evergreenlabs/leadscope/internal/game"
	"github.com/evergreenlabs/leadscope/internal/metrics"
	"github.com/evergreenlabs/leadscope/internal/retry"
)

// MaxQueueAttempts is the redelivery ceiling. Entries that reach it are
// abandoned in place: they stay listable in the store but are never
// retried again.
const MaxQueueAttempts = 5

// Lead identifies the prospect who unlocked a report.
type Lead struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
}

// Payload is the webhook body: the lead plus whichever analysis summary
// (game report or questionnaire result) they unlocked.
type Payload struct {
	Lead     Lead            `json:"lead"`
	Analysis json.RawMessage `json:"analysis"`
}

// QueuedDelivery is a persisted delivery awaiting retry.
type QueuedDelivery struct {
	ID        string          `json:"id"`
	Lead      Lead            `json:"lead"`
	Analysis  json.RawMessage `json:"analysis"`
	CreatedAt time.Time       `json:"createdAt"`
	Attempts  int             `json:"attempts"`
}

// Store persists queued deliveries.
type Store interface {
	Append(ctx context.Context, entry QueuedDelivery) error
	List(ctx context.Context) ([]QueuedDelivery, error)
	IncrementAttempts(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
}

// Error describes a failed webhook POST.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("webhook %s returned %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("webhook %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config controls the deliverer.
type Config struct {
	WebhookURL  string
	Timeout     time.Duration // per-attempt budget
	MaxAttempts int           // attempts per delivery pass before giving up
	RetryDelay  time.Duration // base backoff between attempts
}

// Deliverer posts payloads to the webhook and manages the retry queue.
// The mutex serializes queue read-modify-write cycles.
type Deliverer struct {
	cfg        Config
	store      Store
	httpClient *http.Client
	logger     *zap.Logger
	ids        game.IDGenerator
	clock      game.Clock

	mu sync.Mutex
}

// New creates a Deliverer.
func New(cfg Config, store Store, ids game.IDGenerator, clock game.Clock, logger *zap.Logger) *Deliverer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deliverer{
		cfg:        cfg,
		store:      store,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		ids:        ids,
		clock:      clock,
	}
}

// Enabled reports whether a webhook target is configured.
func (d *Deliverer) Enabled() bool {
	return d.cfg.WebhookURL != ""
}

// Deliver attempts a synchronous delivery with retries, enqueueing the
// payload when every attempt fails. It reports whether the payload was
// delivered and whether it was queued; an error is returned only when
// the payload could not be queued either.
func (d *Deliverer) Deliver(ctx context.Context, lead Lead, analysis json.RawMessage) (delivered bool, queued bool, err error) {
	if !d.Enabled() {
		return false, false, nil
	}

	payload := Payload{Lead: lead, Analysis: analysis}
	sendErr := d.sendWithRetry(ctx, payload)
	if sendErr == nil {
		metrics.ObserveDelivery("delivered")
		return true, false, nil
	}

	d.logger.Warn("webhook delivery exhausted retries, queueing",
		zap.String("email", lead.Email),
		zap.Error(sendErr))

	if err := d.enqueue(ctx, lead, analysis); err != nil {
		metrics.ObserveDelivery("lost")
		return false, false, fmt.Errorf("queue delivery: %w", err)
	}
	metrics.ObserveDelivery("queued")
	return false, true, nil
}

func (d *Deliverer) enqueue(ctx context.Context, lead Lead, analysis json.RawMessage) error {
	id, err := d.ids.NewID()
	if err != nil {
		return fmt.Errorf("generate queue id: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	entry := QueuedDelivery{
		ID:        id,
		Lead:      lead,
		Analysis:  analysis,
		CreatedAt: d.clock.Now().UTC(),
		Attempts:  0,
	}
	if err := d.store.Append(ctx, entry); err != nil {
		return err
	}
	d.refreshQueueDepth(ctx)
	return nil
}

// sendWithRetry runs one delivery pass: up to MaxAttempts POSTs with
// exponential backoff, each attempt bounded by the per-attempt budget.
// Immediate delivery and queue drains both go through here.
func (d *Deliverer) sendWithRetry(ctx context.Context, payload Payload) error {
	_, err := retry.Do(ctx, func(attemptCtx context.Context) (struct{}, error) {
		return struct{}{}, d.send(attemptCtx, payload)
	}, retry.Options{
		MaxAttempts: d.cfg.MaxAttempts,
		Delay:       d.cfg.RetryDelay,
		Timeout:     d.cfg.Timeout,
		OnRetry: func(attempt int, attemptErr error) {
			d.logger.Warn("webhook delivery attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(attemptErr))
		},
	})
	return err
}

// Drain makes one redelivery pass over the queue. Each live entry gets
// its attempt counter bumped before the send, so a crash mid-delivery
// still counts the attempt; the pass itself retries the POST the same
// way an immediate delivery does. Entries at the ceiling are skipped
// and left in place.
func (d *Deliverer) Drain(ctx context.Context) error {
	if !d.Enabled() {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := d.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list queued deliveries: %w", err)
	}

	for _, entry := range entries {
		if entry.Attempts >= MaxQueueAttempts {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := d.store.IncrementAttempts(ctx, entry.ID); err != nil {
			d.logger.Error("failed to bump delivery attempts",
				zap.String("id", entry.ID),
				zap.Error(err))
			continue
		}

		payload := Payload{Lead: entry.Lead, Analysis: entry.Analysis}
		if err := d.sendWithRetry(ctx, payload); err != nil {
			d.logger.Warn("queued delivery still failing",
				zap.String("id", entry.ID),
				zap.Int("attempts", entry.Attempts+1),
				zap.Error(err))
			metrics.ObserveDelivery("retry_failed")
			continue
		}

		if err := d.store.Remove(ctx, entry.ID); err != nil {
			// The webhook got the payload; a removal failure means it
			// may be sent again, which at-least-once allows.
			d.logger.Error("failed to remove delivered entry",
				zap.String("id", entry.ID),
				zap.Error(err))
			continue
		}
		metrics.ObserveDelivery("redelivered")
		d.logger.Info("queued delivery succeeded",
			zap.String("id", entry.ID),
			zap.Int("attempts", entry.Attempts+1))
	}

	d.refreshQueueDepth(ctx)
	return nil
}

// send performs one webhook POST. Any 2xx response counts as accepted.
func (d *Deliverer) send(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return &Error{URL: d.cfg.WebhookURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{URL: d.cfg.WebhookURL, StatusCode: resp.StatusCode}
	}
	return nil
}

func (d *Deliverer) refreshQueueDepth(ctx context.Context) {
	entries, err := d.store.List(ctx)
	if err != nil {
		return
	}
	metrics.SetQueueDepth(len(entries))
}
