package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumigente/lumigente-backend/pkg/testutil"
)

func TestHealthHandler(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	rec := httptest.NewRecorder()
	HealthHandler("analytics-service", mockDB.Wrapped(), nil)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.JSONEq(t, `"analytics-service"`, string(body.Data["service"]))
	assert.JSONEq(t, `{"status":"disabled"}`, string(body.Data["rabbitmq"]))
	assert.Contains(t, body.Data, "database")
	assert.NotContains(t, body.Data, "cache", "cache stats are privileged")
}
