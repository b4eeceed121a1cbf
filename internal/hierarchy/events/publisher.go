// Package events publishes hierarchy events.
package events

import (
	"context"

	"github.com/lumigente/lumigente-backend/pkg/logger"
	"github.com/lumigente/lumigente-backend/pkg/messaging"
)

// Sender is the subset of messaging.Publisher used here
type Sender interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// HierarchyEventPublisher publishes hierarchy-related events.
// A nil sender turns every publish into a no-op, for deployments without RabbitMQ.
type HierarchyEventPublisher struct {
	sender Sender
	logger *logger.Logger
}

// NewHierarchyEventPublisher declares the hierarchy exchange and returns a publisher on it
func NewHierarchyEventPublisher(rmq *messaging.RabbitMQ, source string, log *logger.Logger) (*HierarchyEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeHierarchyEvents, source, log)
	if err != nil {
		return nil, err
	}
	return NewWithSender(publisher, log), nil
}

// NewWithSender wraps an existing sender, which may be nil
func NewWithSender(sender Sender, log *logger.Logger) *HierarchyEventPublisher {
	return &HierarchyEventPublisher{sender: sender, logger: log}
}

// PublishPathSynced announces a rewritten hierarchy path. Failures are logged, not returned.
func (p *HierarchyEventPublisher) PublishPathSynced(ctx context.Context, evt messaging.PathSyncedEvent) {
	if p == nil || p.sender == nil {
		return
	}
	if err := p.sender.Publish(ctx, messaging.EventHierarchyPathSynced, evt); err != nil {
		p.logger.Error().Err(err).Int64("user_id", evt.UserID).Msg("failed to publish path synced event")
	}
}
