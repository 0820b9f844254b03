// Package postgresql provides the PostgreSQL persistence implementation for steps, use cases and addons.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/dukex/stepwise/pkg/persistence/sqlbase"

	// PostgreSQL driver.
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db          *sql.DB
	logger      *slog.Logger
	stepRepo    *StepRepository
	useCaseRepo *UseCaseRepository
	addonRepo   *AddonRepository
}

var _ persistence.Persistence = (*Persistence)(nil)

// NewPersistence connects to databaseURL, runs migrations and wires the repositories.
// holdWarning is the transaction duration after which a warning is logged.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string, holdWarning time.Duration) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	txRunner := sqlbase.NewTxRunner(database, logger, holdWarning)
	stepRepo := NewStepRepository(database, txRunner, logger)

	return &Persistence{
		db:          database,
		logger:      logger,
		stepRepo:    stepRepo,
		useCaseRepo: NewUseCaseRepository(database, txRunner, logger),
		addonRepo:   NewAddonRepository(database, txRunner, stepRepo, logger),
	}, nil
}

// StepRepository returns the step repository.
func (p *Persistence) StepRepository() persistence.StepRepository {
	return p.stepRepo
}

// UseCaseRepository returns the use case repository.
func (p *Persistence) UseCaseRepository() persistence.UseCaseRepository {
	return p.useCaseRepo
}

// AddonRepository returns the addon repository.
func (p *Persistence) AddonRepository() persistence.AddonRepository {
	return p.addonRepo
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}
