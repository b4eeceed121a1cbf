package consumers

import (
	"context"

	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/errors"
	"github.com/lumigente/lumigente-backend/pkg/logger"
	"github.com/lumigente/lumigente-backend/pkg/messaging"
)

// QueueUserEvents is the queue this service binds to the user exchange
const QueueUserEvents = "analytics-service.user-events"

// PathSyncer re-resolves a user's hierarchy path
type PathSyncer interface {
	SyncUserPath(ctx context.Context, userID int64) (domain.Info, bool, error)
}

// CacheInvalidator drops cached aggregates whose scope may have changed
type CacheInvalidator interface {
	ClearCache()
}

// UserEventConsumer keeps cached hierarchy paths fresh from user events
type UserEventConsumer struct {
	consumer *messaging.Consumer
	syncer   PathSyncer
	cache    CacheInvalidator
	logger   *logger.Logger
}

// NewUserEventConsumer creates a new user event consumer. cache may be nil.
func NewUserEventConsumer(rmq *messaging.RabbitMQ, syncer PathSyncer, cache CacheInvalidator, log *logger.Logger) (*UserEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, QueueUserEvents, log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeUserEvents, "user.#"); err != nil {
		return nil, err
	}

	c := &UserEventConsumer{
		consumer: consumer,
		syncer:   syncer,
		cache:    cache,
		logger:   log.WithComponent("user_event_consumer"),
	}

	consumer.RegisterHandler(messaging.EventUserLogin, c.handlePathEvent)
	consumer.RegisterHandler(messaging.EventUserUpdated, c.handlePathEvent)
	consumer.RegisterHandler(messaging.EventUserDepartmentChanged, c.handleDepartmentChanged)
	consumer.RegisterHandler(messaging.EventUserDeactivated, c.handleDeactivated)

	return c, nil
}

// Start starts consuming messages
func (c *UserEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *UserEventConsumer) handlePathEvent(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}
	_, err := c.sync(ctx, event.Type, data.UserID)
	return err
}

func (c *UserEventConsumer) handleDepartmentChanged(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	changed, err := c.sync(ctx, event.Type, data.UserID)
	if err != nil {
		return err
	}
	// a department move changes the manager's team even when the path text is identical
	if changed || data.DepartmentCode != "" {
		c.invalidate()
	}
	return nil
}

func (c *UserEventConsumer) handleDeactivated(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().Int64("user_id", data.UserID).Msg("received user deactivated event")
	c.invalidate()
	return nil
}

// sync returns a nil error for events that can never succeed so they are not retried
func (c *UserEventConsumer) sync(ctx context.Context, eventType string, userID int64) (bool, error) {
	if userID <= 0 {
		c.logger.Warn().Str("event_type", eventType).Msg("user event without user id, skipping")
		return false, nil
	}

	info, changed, err := c.syncer.SyncUserPath(ctx, userID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			c.logger.Debug().Int64("user_id", userID).Msg("user not found, skipping path sync")
			return false, nil
		}
		c.logger.Error().Err(err).Int64("user_id", userID).Str("event_type", eventType).Msg("path sync failed")
		return false, err
	}

	c.logger.Debug().
		Int64("user_id", userID).
		Str("event_type", eventType).
		Str("path", info.Path).
		Bool("changed", changed).
		Msg("path synced from user event")

	return changed, nil
}

func (c *UserEventConsumer) invalidate() {
	if c.cache != nil {
		c.cache.ClearCache()
	}
}
