// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitbook/internal/models"
)

// ErrNotFound is returned (wrapped) when a record with the given ID does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for roster and expense storage operations.
// This abstraction allows swapping storage backends (SQLite, Redis, memory)
// without changing the service layer.
type Store interface {
	// ListParticipants returns the roster in insertion order.
	ListParticipants(ctx context.Context) (models.Roster, error)

	// SaveParticipant creates the participant, or replaces it if the ID exists.
	// An empty ID is populated by the store.
	SaveParticipant(ctx context.Context, p *models.Participant) error

	// DeleteParticipant removes a participant from the roster.
	// Expenses that reference the participant are left untouched.
	DeleteParticipant(ctx context.Context, id string) error

	// ListExpenses returns every expense, newest first.
	ListExpenses(ctx context.Context) ([]models.Expense, error)

	// GetExpense retrieves an expense by its ID.
	GetExpense(ctx context.Context, id string) (*models.Expense, error)

	// CreateExpense persists a new expense.
	// The ID and CreatedAt fields are populated by the store when empty.
	CreateExpense(ctx context.Context, e *models.Expense) error

	// UpdateExpense replaces an existing expense.
	UpdateExpense(ctx context.Context, e *models.Expense) error

	// DeleteExpense removes an expense by ID.
	DeleteExpense(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
