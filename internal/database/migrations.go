package database

import (
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jimdaga/frequency/internal/models"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations brings the schema up to date. Postgres uses the versioned SQL
// migrations; SQLite (development and tests) uses AutoMigrate.
func RunMigrations(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	switch name := db.Dialector.Name(); name {
	case DriverPostgres:
		return migratePostgres(db)
	case DriverSQLite:
		if err := db.AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
		log.Printf("Database migrations: auto-migrated %d models", len(models.All()))
		return nil
	default:
		return fmt.Errorf("no migration strategy for dialect %q", name)
	}
}

func migratePostgres(db *gorm.DB) error {
	m, err := newPostgresMigrator(db)
	if err != nil {
		return err
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("Database migrations: schema already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	log.Printf("Database migrations: schema at version %d (dirty=%t)", version, dirty)
	return nil
}

// newPostgresMigrator reads the embedded SQL files and drives them over the
// connection GORM already holds.
func newPostgresMigrator(db *gorm.DB) (*migrate.Migrate, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	target, err := postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: "frequency_schema_migrations"})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, DriverPostgres, target)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}
