package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound  = errors.New("checkout session not found")
	ErrDuplicateSession = errors.New("checkout session already recorded")
)

const (
	StatusCreated   = "created"
	StatusCompleted = "completed"
)

// SessionRecord is the audit trail row for one provider checkout session.
// The session itself stays ephemeral (spent on the redirect); the record
// is what reconciliation and support look at afterwards.
type SessionRecord struct {
	ID              uuid.UUID
	StripeSessionID string
	CartID          string
	AmountTotal     int64
	Currency        string
	Comments        string
	Status          string
	Items           json.RawMessage
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SessionStore defines the persistence interface for session records.
// Consumers define this interface, not the Postgres implementation.
type SessionStore interface {
	CreateSession(ctx context.Context, record *SessionRecord) error
	GetByStripeSessionID(ctx context.Context, stripeSessionID string) (*SessionRecord, error)
	MarkCompleted(ctx context.Context, stripeSessionID string) error
}
