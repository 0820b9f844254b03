// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/dukex/stepwise/pkg/persistence/postgresql"
)

var supportedPersistenceProviders = []string{"postgres", "postgresql"}

// NewPersistence opens the persistence layer named by the scheme of databaseURL
// and applies pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string, holdWarning time.Duration) (persistence.Persistence, error) {
	provider := parsePersistenceProvider(databaseURL)

	switch provider {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger.With("module", "postgresql"), databaseURL, holdWarning)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgresql persistence: %w", err)
		}

		return p, nil
	default:
		return nil, fmt.Errorf("unsupported persistence provider %q, expected one of %s",
			provider, strings.Join(supportedPersistenceProviders, ", "))
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return ""
	}

	return strings.ToLower(provider)
}
