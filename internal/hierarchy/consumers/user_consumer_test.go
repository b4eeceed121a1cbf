package consumers

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/errors"
	"github.com/lumigente/lumigente-backend/pkg/logger"
	"github.com/lumigente/lumigente-backend/pkg/messaging"
)

type fakeSyncer struct {
	calls   []int64
	changed bool
	err     error
}

func (f *fakeSyncer) SyncUserPath(ctx context.Context, userID int64) (domain.Info, bool, error) {
	f.calls = append(f.calls, userID)
	return domain.Info{Path: "A > B"}, f.changed, f.err
}

type fakeCache struct{ cleared int }

func (f *fakeCache) ClearCache() { f.cleared++ }

func newTestConsumer(s *fakeSyncer, c *fakeCache) *UserEventConsumer {
	return &UserEventConsumer{syncer: s, cache: c, logger: logger.Nop()}
}

func event(t *testing.T, eventType string, data messaging.UserEvent) *messaging.Event {
	t.Helper()
	evt, err := messaging.NewEvent(eventType, "auth-service", "", data)
	require.NoError(t, err)
	return evt
}

func TestHandlePathEvent(t *testing.T) {
	s := &fakeSyncer{changed: true}
	c := newTestConsumer(s, &fakeCache{})

	err := c.handlePathEvent(context.Background(), event(t, messaging.EventUserLogin, messaging.UserEvent{UserID: 42}))
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, s.calls)
}

func TestHandlePathEvent_SkipsMissingUserID(t *testing.T) {
	s := &fakeSyncer{}
	c := newTestConsumer(s, nil)

	err := c.handlePathEvent(context.Background(), event(t, messaging.EventUserUpdated, messaging.UserEvent{}))
	require.NoError(t, err)
	assert.Empty(t, s.calls)
}

func TestHandlePathEvent_NotFoundIsAcked(t *testing.T) {
	c := newTestConsumer(&fakeSyncer{err: errors.NotFound("user")}, nil)

	err := c.handlePathEvent(context.Background(), event(t, messaging.EventUserLogin, messaging.UserEvent{UserID: 7}))
	assert.NoError(t, err)
}

func TestHandlePathEvent_StoreErrorIsRetried(t *testing.T) {
	c := newTestConsumer(&fakeSyncer{err: stderrors.New("connection refused")}, nil)

	err := c.handlePathEvent(context.Background(), event(t, messaging.EventUserLogin, messaging.UserEvent{UserID: 7}))
	assert.Error(t, err)
}

func TestHandleDepartmentChanged_InvalidatesCache(t *testing.T) {
	cache := &fakeCache{}
	c := newTestConsumer(&fakeSyncer{}, cache)

	err := c.handleDepartmentChanged(context.Background(),
		event(t, messaging.EventUserDepartmentChanged, messaging.UserEvent{UserID: 3, DepartmentCode: "C"}))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.cleared)

	err = c.handleDepartmentChanged(context.Background(),
		event(t, messaging.EventUserDepartmentChanged, messaging.UserEvent{UserID: 3}))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.cleared)
}

func TestHandleDeactivated(t *testing.T) {
	cache := &fakeCache{}
	c := newTestConsumer(&fakeSyncer{}, cache)

	require.NoError(t, c.handleDeactivated(context.Background(),
		event(t, messaging.EventUserDeactivated, messaging.UserEvent{UserID: 3})))
	assert.Equal(t, 1, cache.cleared)
}
