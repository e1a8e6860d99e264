package workers

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"saas_backend/internal/logger"
	"saas_backend/internal/services"
)

const (
	rolloverWorkerName = "subscription_rollover"
	sweepWorkerName    = "refresh_token_sweep"
)

// SubscriptionWorker периодически применяет отложенные изменения подписок
// и чистит устаревшие refresh токены
type SubscriptionWorker struct {
	subscriptions services.SubscriptionLifecycle
	tokens        services.TokenService

	rolloverInterval time.Duration
	sweepInterval    time.Duration
}

func NewSubscriptionWorker(
	subs services.SubscriptionLifecycle,
	tokens services.TokenService,
	rolloverInterval, sweepInterval time.Duration,
) *SubscriptionWorker {
	return &SubscriptionWorker{
		subscriptions:    subs,
		tokens:           tokens,
		rolloverInterval: rolloverInterval,
		sweepInterval:    sweepInterval,
	}
}

// Run блокируется до отмены ctx. Нулевой интервал выключает задачу.
func (w *SubscriptionWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if w.rolloverInterval > 0 {
		g.Go(func() error {
			w.loop(ctx, rolloverWorkerName, w.rolloverInterval, w.processScheduledChanges)
			return nil
		})
	}
	if w.sweepInterval > 0 {
		g.Go(func() error {
			w.loop(ctx, sweepWorkerName, w.sweepInterval, w.sweepTokens)
			return nil
		})
	}
	return g.Wait()
}

func (w *SubscriptionWorker) loop(ctx context.Context, name string, interval time.Duration, tick func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Worker started", "worker", name, "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("Worker stopped", "worker", name)
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

func (w *SubscriptionWorker) processScheduledChanges(ctx context.Context) {
	report, err := w.subscriptions.ProcessScheduledChanges(ctx)
	if err != nil {
		logger.WorkerLog(rolloverWorkerName, "process_scheduled_changes", err)
		return
	}
	if report.Scanned == 0 {
		return
	}
	logger.WorkerLog(rolloverWorkerName, "process_scheduled_changes", nil,
		"scanned", report.Scanned,
		"applied", report.Applied(),
		"failed", len(report.Failures),
	)
}

func (w *SubscriptionWorker) sweepTokens(ctx context.Context) {
	n, err := w.tokens.SweepStale(ctx)
	if err != nil {
		logger.WorkerLog(sweepWorkerName, "sweep_stale_tokens", err)
		return
	}
	if n > 0 {
		logger.WorkerLog(sweepWorkerName, "sweep_stale_tokens", nil, "deleted", n)
	}
}
