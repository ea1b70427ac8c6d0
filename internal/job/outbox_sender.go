package job

import (
	"context"
	"time"

	"finledger/internal/config"
	"finledger/internal/model"
	"finledger/internal/repository"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Publisher delivers one outbox message. *mq.Producer implements it.
type Publisher interface {
	Send(topic, key, value string) error
}

// LogPublisher stands in for Kafka when it is disabled: events are written
// to the log and the outbox still drains.
type LogPublisher struct {
	Log zerolog.Logger
}

func (p LogPublisher) Send(topic, key, value string) error {
	p.Log.Debug().Str("topic", topic).Str("key", key).RawJSON("payload", []byte(value)).Msg("ledger event")
	return nil
}

// OutboxSender relays pending outbox rows to the publisher. A row that
// keeps failing is marked FAILED after MaxRetryCount attempts.
type OutboxSender struct {
	outboxRepo *repository.OutboxRepository
	publisher  Publisher
	log        zerolog.Logger
	stopCh     chan struct{}
	interval   time.Duration
	batchSize  int
	maxRetries int
}

func NewOutboxSender(db *gorm.DB, publisher Publisher, cfg *config.JobsConfig, log zerolog.Logger) *OutboxSender {
	return &OutboxSender{
		outboxRepo: repository.NewOutboxRepository(db),
		publisher:  publisher,
		log:        log.With().Str("job", "outbox_sender").Logger(),
		stopCh:     make(chan struct{}),
		interval:   positive(cfg.OutboxInterval, time.Second),
		batchSize:  positiveInt(cfg.OutboxBatchSize, 100),
		maxRetries: positiveInt(cfg.MaxRetryCount, 5),
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("outbox sender started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("context done, outbox sender exiting")
			return
		case <-s.stopCh:
			s.log.Info().Msg("outbox sender stopped")
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

// Flush sends one batch of pending messages and returns how many were
// delivered.
func (s *OutboxSender) Flush(ctx context.Context) int {
	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("load pending outbox messages")
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if s.send(ctx, msg) {
			sent++
		}
	}
	return sent
}

func (s *OutboxSender) send(ctx context.Context, msg *model.OutboxMessage) bool {
	err := s.publisher.Send(msg.Topic, msg.MessageKey, msg.Payload)
	if err == nil {
		if err := s.outboxRepo.UpdateStatus(ctx, msg.ID, model.OutboxStatusSent); err != nil {
			s.log.Error().Err(err).Int64("message_id", msg.ID).Msg("mark outbox message sent")
			return false
		}
		s.log.Debug().Int64("message_id", msg.ID).Str("event", msg.EventType).Str("topic", msg.Topic).Msg("outbox message sent")
		return true
	}

	s.log.Warn().Err(err).Int64("message_id", msg.ID).Int("retry", msg.RetryCount+1).Msg("send outbox message")

	if err := s.outboxRepo.IncrementRetryCount(ctx, msg.ID); err != nil {
		s.log.Error().Err(err).Int64("message_id", msg.ID).Msg("increment retry count")
	}
	if msg.RetryCount+1 >= s.maxRetries {
		if err := s.outboxRepo.MarkAsFailed(ctx, msg.ID); err != nil {
			s.log.Error().Err(err).Int64("message_id", msg.ID).Msg("mark outbox message failed")
		} else {
			s.log.Error().Int64("message_id", msg.ID).Str("event", msg.EventType).Msg("outbox message gave up after max retries")
		}
	}
	return false
}

func positive(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func positiveInt(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}
