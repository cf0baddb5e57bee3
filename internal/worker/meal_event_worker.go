package worker

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"daily-diet/internal/model"
	"daily-diet/internal/platform/logging"
	"daily-diet/internal/platform/metrics"
	"daily-diet/internal/platform/rabbitmq"
)

type MealEventStore interface {
	CreateEvent(ctx context.Context, event *model.MealEvent) error
}

// MealEventWorker consumes meal events and appends them to the activity log.
type MealEventWorker struct {
	conn      *amqp.Connection
	store     MealEventStore
	queueName string
	logger    zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMealEventWorker(conn *amqp.Connection, store MealEventStore, queueName string, logger zerolog.Logger) *MealEventWorker {
	return &MealEventWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		logger:    logging.For(logger, "meal_event_worker"),
	}
}

func (w *MealEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.logger.Warn().Msg("delivery channel closed")
					return
				}
				if err := w.Handle(workerCtx, d.Body); err != nil {
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	w.logger.Info().Str("queue", w.queueName).Msg("meal event worker started")
	return nil
}

// Handle decodes and persists one delivery body. A returned error means the delivery is dropped.
func (w *MealEventWorker) Handle(ctx context.Context, body []byte) (err error) {
	defer func() {
		metrics.ObserveEventConsumed(err)
	}()

	event, err := rabbitmq.DecodeMealEvent(body)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker decode meal event failed")
		return err
	}
	if err := w.store.CreateEvent(ctx, &event); err != nil {
		w.logger.Error().Err(err).
			Str(logging.Event, string(event.Type)).
			Str(logging.MealID, event.MealID).
			Msg("worker persist meal event failed")
		return err
	}
	return nil
}

func (w *MealEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
