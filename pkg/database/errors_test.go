package database

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPQError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantNil    bool
		wantStatus int
		wantCode   string
	}{
		{"not a pq error", fmt.Errorf("plain"), true, 0, ""},
		{"score check", &pq.Error{Code: "23514", Constraint: "daily_mood_score_range"}, false, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown check", &pq.Error{Code: "23514", Constraint: "other"}, false, http.StatusBadRequest, "BAD_REQUEST"},
		{"not null", &pq.Error{Code: "23502", Column: "user_id"}, false, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"statement timeout", &pq.Error{Code: "57014"}, false, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"connection failure", &pq.Error{Code: "08006"}, false, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"wrapped pq error", fmt.Errorf("query: %w", &pq.Error{Code: "57014"}), false, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unique violation is not special", &pq.Error{Code: "23505"}, true, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapPQError(tt.err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestMapStoreError(t *testing.T) {
	assert.Nil(t, MapStoreError(nil))

	timeout := MapStoreError(fmt.Errorf("select: %w", context.DeadlineExceeded))
	require.NotNil(t, timeout)
	assert.Equal(t, http.StatusServiceUnavailable, timeout.StatusCode)

	other := MapStoreError(fmt.Errorf("boom"))
	require.NotNil(t, other)
	assert.Equal(t, http.StatusInternalServerError, other.StatusCode)
}
