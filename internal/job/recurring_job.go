package job

import (
	"context"
	"time"

	"finledger/internal/model"

	"github.com/rs/zerolog"
)

// Sweeper materializes due recurring transactions. *service.RecurringService
// implements it.
type Sweeper interface {
	Sweep(ctx context.Context, asOf time.Time) ([]*model.Transaction, error)
}

// RecurringJob sweeps recurring templates on a ticker. Sweeps are
// idempotent, so an interval shorter than a day is harmless.
type RecurringJob struct {
	sweeper  Sweeper
	log      zerolog.Logger
	stopCh   chan struct{}
	interval time.Duration
	now      func() time.Time
}

func NewRecurringJob(sweeper Sweeper, interval time.Duration, log zerolog.Logger) *RecurringJob {
	return &RecurringJob{
		sweeper:  sweeper,
		log:      log.With().Str("job", "recurring").Logger(),
		stopCh:   make(chan struct{}),
		interval: positive(interval, time.Hour),
		now:      time.Now,
	}
}

func (j *RecurringJob) Start(ctx context.Context) {
	j.log.Info().Dur("interval", j.interval).Msg("recurring job started")
	j.RunOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info().Msg("context done, recurring job exiting")
			return
		case <-j.stopCh:
			j.log.Info().Msg("recurring job stopped")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

func (j *RecurringJob) Stop() {
	close(j.stopCh)
}

// RunOnce sweeps up to today and returns how many transactions were created.
func (j *RecurringJob) RunOnce(ctx context.Context) int {
	created, err := j.sweeper.Sweep(ctx, model.DateOnly(j.now()))
	if err != nil {
		j.log.Error().Err(err).Int("created", len(created)).Msg("recurring sweep finished with errors")
	} else if len(created) > 0 {
		j.log.Info().Int("created", len(created)).Msg("recurring sweep")
	}
	return len(created)
}
