// Package testutil provides testing utilities for the LumiGente backend.
// It includes a testcontainers PostgreSQL instance with the service schema,
// sqlmock factories, fixtures and HTTP helpers.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "lumigente_test",
		Username: "test",
		Password: "test",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer starts a PostgreSQL test container.
//
// Usage:
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer container.Terminate(ctx)
//
//	    os.Exit(m.Run())
//	}
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	defaults := DefaultPostgresConfig()
	if cfg.Image == "" {
		cfg.Image = defaults.Image
	}
	if cfg.Database == "" {
		cfg.Database = defaults.Database
	}
	if cfg.Username == "" {
		cfg.Username = defaults.Username
	}
	if cfg.Password == "" {
		cfg.Password = defaults.Password
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}

// CreateSchema applies Schema to the given database
func (c *PostgresContainer) CreateSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema()); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Tables lists the tables created by Schema, children first
func Tables() []string {
	return []string{
		"objective_owners",
		"objectives",
		"user_points",
		"daily_mood",
		"recognitions",
		"feedbacks",
		"users",
		"hierarchy_cc",
		"employee_history",
	}
}

// Schema returns the DDL of every table the services read
func Schema() string {
	return `
		CREATE TABLE IF NOT EXISTS employee_history (
			id BIGSERIAL PRIMARY KEY,
			registration_number VARCHAR(20) NOT NULL,
			national_id VARCHAR(14) NOT NULL,
			name VARCHAR(255) NOT NULL,
			department_code VARCHAR(40) NOT NULL,
			branch VARCHAR(100),
			status VARCHAR(20) NOT NULL DEFAULT 'ATIVO',
			admission_date DATE
		);
		CREATE INDEX IF NOT EXISTS idx_employee_history_reg ON employee_history (registration_number, national_id);
		CREATE INDEX IF NOT EXISTS idx_employee_history_dept ON employee_history (department_code) WHERE status = 'ATIVO';

		CREATE TABLE IF NOT EXISTS hierarchy_cc (
			id BIGSERIAL PRIMARY KEY,
			department_code VARCHAR(40) NOT NULL,
			description VARCHAR(255),
			full_path TEXT NOT NULL,
			responsible_registration VARCHAR(20),
			responsible_national_id VARCHAR(14),
			level1_registration VARCHAR(20),
			level2_registration VARCHAR(20),
			level3_registration VARCHAR(20),
			level4_registration VARCHAR(20),
			branch VARCHAR(100)
		);

		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			registration_number VARCHAR(20),
			national_id VARCHAR(14),
			full_name VARCHAR(255) NOT NULL,
			department_code VARCHAR(40),
			department_description VARCHAR(255),
			hierarchy_path TEXT,
			role VARCHAR(50) NOT NULL DEFAULT 'Funcionário',
			branch VARCHAR(100),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_login TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS feedbacks (
			id BIGSERIAL PRIMARY KEY,
			from_user_id BIGINT NOT NULL REFERENCES users(id),
			to_user_id BIGINT NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS recognitions (
			id BIGSERIAL PRIMARY KEY,
			from_user_id BIGINT NOT NULL REFERENCES users(id),
			to_user_id BIGINT NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS daily_mood (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			score SMALLINT NOT NULL CONSTRAINT score_range CHECK (score BETWEEN 1 AND 5),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS objectives (
			id BIGSERIAL PRIMARY KEY,
			status VARCHAR(40) NOT NULL CONSTRAINT objective_status CHECK (
				status IN ('Ativo', 'Concluído', 'Aguardando Aprovação', 'Agendado', 'Expirado')
			),
			created_by BIGINT NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS objective_owners (
			objective_id BIGINT NOT NULL REFERENCES objectives(id),
			user_id BIGINT NOT NULL REFERENCES users(id),
			PRIMARY KEY (objective_id, user_id)
		);

		CREATE TABLE IF NOT EXISTS user_points (
			user_id BIGINT PRIMARY KEY REFERENCES users(id),
			total_points INTEGER NOT NULL DEFAULT 0
		);
	`
}
