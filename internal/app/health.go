package app

import (
	"net/http"

	"github.com/lumigente/lumigente-backend/pkg/database"
	"github.com/lumigente/lumigente-backend/pkg/httputil"
	"github.com/lumigente/lumigente-backend/pkg/messaging"
)

// HealthHandler serves the unauthenticated liveness report. It only covers
// dependencies; cache statistics stay behind the privileged cache endpoint.
// broker may be nil when messaging is disabled.
func HealthHandler(service string, db *database.DB, broker *messaging.RabbitMQ) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  service,
			"database": db.Health(r.Context()),
			"rabbitmq": broker.Health(),
		})
	}
}
