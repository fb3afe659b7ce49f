package worker

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . OutboxRepository,Publisher

import (
	"context"
	"time"

	"github.com/rookgm/fmmall/internal/logger"
	"github.com/rookgm/fmmall/internal/metrics"
	"github.com/rookgm/fmmall/internal/models"
	"go.uber.org/zap"
)

const defaultBatchSize = 100

type OutboxRepository interface {
	// FetchPending returns events that have not been sent yet
	FetchPending(ctx context.Context, limit int) ([]models.Event, error)
	// MarkSent marks event as sent
	MarkSent(ctx context.Context, id uint64) error
}

type Publisher interface {
	// Publish delivers event to broker
	Publish(ctx context.Context, event *models.Event) error
}

// OutboxRelay is worker publishes outbox events to broker
type OutboxRelay struct {
	repo      OutboxRepository
	pub       Publisher
	metrics   *metrics.Metrics
	interval  time.Duration
	batchSize int
}

// NewOutboxRelay create new outbox relay
func NewOutboxRelay(repo OutboxRepository, pub Publisher, m *metrics.Metrics, interval time.Duration) *OutboxRelay {
	return &OutboxRelay{
		repo:      repo,
		pub:       pub,
		metrics:   m,
		interval:  interval,
		batchSize: defaultBatchSize,
	}
}

// Run relays pending events every interval until ctx is done
func (or *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(or.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Debug("outbox relay is done")
			return
		case <-ticker.C:
			if _, err := or.RelayPending(ctx); err != nil {
				logger.Log.Error("error relay outbox events", zap.Error(err))
			}
		}
	}
}

// RelayPending publishes one batch of pending events in creation order and returns number of sent events.
// It stops on the first failed event so that events of one order keep their order.
func (or *OutboxRelay) RelayPending(ctx context.Context) (int, error) {
	events, err := or.repo.FetchPending(ctx, or.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range events {
		event := &events[i]
		if err := or.pub.Publish(ctx, event); err != nil {
			or.metrics.EventsPublished.WithLabelValues("error").Inc()
			return sent, err
		}

		if err := or.repo.MarkSent(ctx, event.ID); err != nil {
			return sent, err
		}

		or.metrics.EventsPublished.WithLabelValues("ok").Inc()
		logger.Log.Debug("outbox event published",
			zap.String("event_id", event.EventID),
			zap.String("type", event.Type))
		sent++
	}

	return sent, nil
}
