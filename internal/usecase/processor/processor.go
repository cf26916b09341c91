package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"verigate/internal/bootstrap/logging"
	"verigate/internal/errs"
	"verigate/internal/ports"
	"verigate/internal/usecase/verify"
)

// Verifier is the slice of the verification runner the processor needs.
type Verifier interface {
	VerifyIssue(ctx context.Context, input verify.VerifyInput) (ports.VerificationResult, error)
}

type Options struct {
	Interval      time.Duration
	MaxConcurrent int
	BatchSize     int
}

// Processor drains dispatchable webhook events on a fixed tick, running at
// most MaxConcurrent verifications at once and never two for the same
// (project, issue) pair.
type Processor struct {
	events    ports.EventRepository
	verifier  Verifier
	publisher ports.VerdictPublisher
	notifier  ports.VerdictNotifier

	interval      time.Duration
	maxConcurrent int
	batchSize     int

	mu       sync.Mutex
	inflight map[string]struct{}
}

func New(events ports.EventRepository, verifier Verifier, publisher ports.VerdictPublisher, notifier ports.VerdictNotifier, opts Options) *Processor {
	interval := opts.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Processor{
		events:        events,
		verifier:      verifier,
		publisher:     publisher,
		notifier:      notifier,
		interval:      interval,
		maxConcurrent: maxConcurrent,
		batchSize:     batchSize,
		inflight:      make(map[string]struct{}),
	}
}

// Run ticks until the context is cancelled. Each tick is best effort; a
// failing tick is logged and the next tick proceeds normally.
func (p *Processor) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "processor"))
	logging.Info(logCtx, "processor started",
		slog.Duration("interval", p.interval),
		slog.Int("max_concurrent", p.maxConcurrent),
		slog.Int("batch_size", p.batchSize),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.ProcessOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error(logCtx, "processing tick failed", slog.Any("err", errs.Loggable(err)))
		}
		select {
		case <-ctx.Done():
			logging.Info(logCtx, "processor stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessOnce lists one batch of dispatchable events and waits for every
// spawned verification to finish before returning.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	events, err := p.events.ListDispatchable(ctx, p.batchSize)
	if err != nil {
		return errs.Wrap(err, "list dispatchable events")
	}
	if len(events) == 0 {
		return nil
	}

	sem := make(chan struct{}, p.maxConcurrent)
	var wg sync.WaitGroup
	for _, event := range events {
		key := dispatchKey(event)
		if !p.acquire(key) {
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			p.release(key)
			wg.Wait()
			return ctx.Err()
		}

		wg.Add(1)
		go func(event ports.WebhookEvent, key string) {
			defer wg.Done()
			defer p.release(key)
			defer func() { <-sem }()
			p.handleEvent(ctx, event)
		}(event, key)
	}
	wg.Wait()
	return nil
}

func (p *Processor) handleEvent(ctx context.Context, event ports.WebhookEvent) {
	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "processor"),
		slog.String("event_id", event.EventID),
	)
	defer func() {
		if r := recover(); r != nil {
			logging.Error(logCtx, "verification panicked", slog.Any("panic", r))
			msg := fmt.Sprintf("panic: %v", r)
			p.markProcessed(logCtx, event.EventID, &msg)
		}
	}()

	if event.ProjectName == nil || event.IssueNumber == nil {
		// ListDispatchable filters these out; a row that still lacks them is
		// unverifiable and gets retired so it cannot wedge the queue.
		msg := "event is missing project or issue"
		p.markProcessed(logCtx, event.EventID, &msg)
		return
	}

	logCtx = logging.WithAttrs(logCtx,
		slog.String("project", *event.ProjectName),
		slog.Int64("issue", *event.IssueNumber),
	)
	logging.Info(logCtx, "dispatching verification")

	result, err := p.verifier.VerifyIssue(ctx, verify.VerifyInput{
		ProjectName: *event.ProjectName,
		IssueNumber: *event.IssueNumber,
	})
	if err != nil {
		logging.Error(logCtx, "verification failed", slog.Any("err", errs.Loggable(err)))
		msg := err.Error()
		p.markProcessed(logCtx, event.EventID, &msg)
		return
	}

	// The verdict is durable before any outbound delivery; publish and notify
	// failures are logged, never retried against the event row.
	p.markProcessed(logCtx, event.EventID, nil)

	if p.publisher != nil {
		if err := p.publisher.PublishVerdict(ctx, result); err != nil {
			logging.Error(logCtx, "publishing verdict failed", slog.Any("err", errs.Loggable(err)))
		}
	}
	if p.notifier != nil {
		if err := p.notifier.NotifyVerdict(ctx, result); err != nil {
			logging.Warn(logCtx, "notifying verdict failed", slog.Any("err", errs.Loggable(err)))
		}
	}
}

func (p *Processor) markProcessed(ctx context.Context, eventID string, errorMessage *string) {
	processedAt := time.Now().UTC().Format(time.RFC3339Nano)
	if err := p.events.MarkEventProcessed(ctx, eventID, processedAt, errorMessage); err != nil {
		logging.Error(ctx, "marking event processed failed", slog.Any("err", errs.Loggable(err)))
	}
}

func (p *Processor) acquire(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, busy := p.inflight[key]; busy {
		return false
	}
	p.inflight[key] = struct{}{}
	return true
}

func (p *Processor) release(key string) {
	p.mu.Lock()
	delete(p.inflight, key)
	p.mu.Unlock()
}

func dispatchKey(event ports.WebhookEvent) string {
	project := ""
	if event.ProjectName != nil {
		project = *event.ProjectName
	}
	var issue int64
	if event.IssueNumber != nil {
		issue = *event.IssueNumber
	}
	return fmt.Sprintf("%s#%d", project, issue)
}
