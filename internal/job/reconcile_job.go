package job

import (
	"context"
	"time"

	"finledger/internal/service"

	"github.com/rs/zerolog"
)

// Reconciler rebuilds cached balances. *service.ReconcileService implements it.
type Reconciler interface {
	RecalculateAllBalances(ctx context.Context) (*service.ReconcileReport, error)
}

// ReconcileJob runs the balance recalculation periodically. Drift found
// here means an incremental update is wrong somewhere; the service logs and
// emits it, the job only schedules.
type ReconcileJob struct {
	reconciler Reconciler
	log        zerolog.Logger
	stopCh     chan struct{}
	interval   time.Duration
}

func NewReconcileJob(reconciler Reconciler, interval time.Duration, log zerolog.Logger) *ReconcileJob {
	return &ReconcileJob{
		reconciler: reconciler,
		log:        log.With().Str("job", "reconcile").Logger(),
		stopCh:     make(chan struct{}),
		interval:   positive(interval, 24*time.Hour),
	}
}

func (j *ReconcileJob) Start(ctx context.Context) {
	j.log.Info().Dur("interval", j.interval).Msg("reconcile job started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info().Msg("context done, reconcile job exiting")
			return
		case <-j.stopCh:
			j.log.Info().Msg("reconcile job stopped")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

func (j *ReconcileJob) Stop() {
	close(j.stopCh)
}

func (j *ReconcileJob) RunOnce(ctx context.Context) *service.ReconcileReport {
	report, err := j.reconciler.RecalculateAllBalances(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("balance recalculation failed")
		return nil
	}
	if !report.Clean() {
		j.log.Warn().
			Int("accounts", len(report.Accounts)).
			Int("envelopes", len(report.Envelopes)).
			Msg("balance drift repaired")
	}
	return report
}
