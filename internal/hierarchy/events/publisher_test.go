package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumigente/lumigente-backend/pkg/logger"
	"github.com/lumigente/lumigente-backend/pkg/messaging"
	"github.com/lumigente/lumigente-backend/pkg/testutil"
)

func TestPublishPathSynced(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := NewWithSender(mock, logger.Nop())

	p.PublishPathSynced(context.Background(), messaging.PathSyncedEvent{UserID: 3, NewPath: "1 > 12"})

	mock.AssertEventPublished(t, messaging.EventHierarchyPathSynced)
	events := mock.Events()
	require.Len(t, events, 1)
	assert.Equal(t, int64(3), events[0].Payload.(messaging.PathSyncedEvent).UserID)
}

func TestPublishPathSynced_ErrorIsSwallowed(t *testing.T) {
	mock := testutil.NewMockPublisher()
	mock.Err = errors.New("channel closed")
	p := NewWithSender(mock, logger.Nop())

	assert.NotPanics(t, func() {
		p.PublishPathSynced(context.Background(), messaging.PathSyncedEvent{UserID: 3})
	})
}

func TestPublishPathSynced_Disabled(t *testing.T) {
	var nilPublisher *HierarchyEventPublisher
	assert.NotPanics(t, func() {
		nilPublisher.PublishPathSynced(context.Background(), messaging.PathSyncedEvent{})
		NewWithSender(nil, logger.Nop()).PublishPathSynced(context.Background(), messaging.PathSyncedEvent{})
	})
}
