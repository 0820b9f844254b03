package services

import (
	"context"

	"github.com/dukex/stepwise/pkg/persistence"
)

// Health reports on the dependencies the API needs to serve requests.
type Health struct {
	persistence persistence.Persistence
}

// NewHealth creates a new health service.
func NewHealth(persistence persistence.Persistence) *Health {
	return &Health{persistence: persistence}
}

// Check checks the health of the persistence layer.
func (h *Health) Check(ctx context.Context) (string, bool) {
	if h.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := h.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}
