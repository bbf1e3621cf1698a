package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "stripe_checkout_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) CreateSession(ctx context.Context, record *SessionRecord) error {
	query := `INSERT INTO checkout_sessions
	          (id, stripe_session_id, cart_id, amount_total, currency, comments, status, items, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`

	_, insertErr := r.db.ExecContext(ctx, query,
		record.ID,
		record.StripeSessionID,
		record.CartID,
		record.AmountTotal,
		record.Currency,
		record.Comments,
		record.Status,
		[]byte(record.Items))

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateSession
		}
		return fmt.Errorf("insert checkout session: %w", insertErr)
	}
	return nil
}

func (r *Repository) GetByStripeSessionID(ctx context.Context, stripeSessionID string) (*SessionRecord, error) {
	query := `SELECT id, stripe_session_id, cart_id, amount_total, currency, comments, status, items, created_at, updated_at
	          FROM checkout_sessions WHERE stripe_session_id = $1`

	var record SessionRecord
	var items []byte
	err := r.db.QueryRowContext(ctx, query, stripeSessionID).Scan(
		&record.ID,
		&record.StripeSessionID,
		&record.CartID,
		&record.AmountTotal,
		&record.Currency,
		&record.Comments,
		&record.Status,
		&items,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query checkout session: %w", err)
	}

	record.Items = items
	return &record, nil
}

func (r *Repository) MarkCompleted(ctx context.Context, stripeSessionID string) error {
	query := `UPDATE checkout_sessions SET status = $1, updated_at = NOW() WHERE stripe_session_id = $2`

	result, err := r.db.ExecContext(ctx, query, StatusCompleted, stripeSessionID)
	if err != nil {
		return fmt.Errorf("update checkout session status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
