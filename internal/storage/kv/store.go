// Package kv implements storage.Store on top of a key-value backend.
//
// The roster and the expense list are each kept as one JSON array under a
// fixed key, the same layout the browser app keeps in local storage:
//
//	<prefix>users    -> [Participant, ...]
//	<prefix>expenses -> [Expense, ...]
//
// Every write rewrites the whole array.
package kv

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitbook/internal/models"
	"github.com/mmynk/splitbook/internal/storage"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "splitbook:"

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store over a Backend.
type Store struct {
	backend Backend
	prefix  string

	// mu serializes read-modify-write cycles on the blobs.
	mu sync.Mutex
}

// New creates a Store. An empty prefix uses DefaultPrefix.
func New(backend Backend, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{backend: backend, prefix: prefix}
}

// NewMemory returns a Store backed by process memory.
func NewMemory() *Store {
	return New(NewMemoryBackend(), "")
}

func (s *Store) usersKey() string    { return s.prefix + "users" }
func (s *Store) expensesKey() string { return s.prefix + "expenses" }

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func load[T any](ctx context.Context, b Backend, key string) ([]T, error) {
	data, ok, err := b.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok || len(data) == 0 {
		return []T{}, nil
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return out, nil
}

func save[T any](ctx context.Context, b Backend, key string, values []T) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return b.Set(ctx, key, data)
}

// expenseList is a decoded expense blob. Records that fail to decode, such as
// legacy entries with an unknown split type, are kept verbatim and written
// back on save so that a write does not drop them.
type expenseList struct {
	expenses   []models.Expense
	unreadable []json.RawMessage
}

func (s *Store) loadExpenses(ctx context.Context) (*expenseList, error) {
	records, err := load[json.RawMessage](ctx, s.backend, s.expensesKey())
	if err != nil {
		return nil, err
	}

	list := &expenseList{expenses: make([]models.Expense, 0, len(records))}
	for i, record := range records {
		var e models.Expense
		if err := json.Unmarshal(record, &e); err != nil {
			slog.Warn("Skipping unreadable expense record", "key", s.expensesKey(), "index", i, "error", err)
			list.unreadable = append(list.unreadable, record)
			continue
		}
		list.expenses = append(list.expenses, e)
	}
	return list, nil
}

func (s *Store) saveExpenses(ctx context.Context, list *expenseList) error {
	records := make([]any, 0, len(list.expenses)+len(list.unreadable))
	for _, e := range list.expenses {
		records = append(records, e)
	}
	for _, record := range list.unreadable {
		records = append(records, record)
	}
	return save(ctx, s.backend, s.expensesKey(), records)
}

// ListParticipants returns the roster in insertion order.
func (s *Store) ListParticipants(ctx context.Context) (models.Roster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster, err := load[models.Participant](ctx, s.backend, s.usersKey())
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return roster, nil
}

// SaveParticipant appends a new participant or replaces one with the same ID.
func (s *Store) SaveParticipant(ctx context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster, err := load[models.Participant](ctx, s.backend, s.usersKey())
	if err != nil {
		return fmt.Errorf("failed to save participant: %w", err)
	}

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	i := slices.IndexFunc(roster, func(existing models.Participant) bool { return existing.ID == p.ID })
	if i >= 0 {
		roster[i] = *p
	} else {
		roster = append(roster, *p)
	}

	if err := save(ctx, s.backend, s.usersKey(), roster); err != nil {
		return fmt.Errorf("failed to save participant: %w", err)
	}
	return nil
}

// DeleteParticipant removes a participant by ID.
func (s *Store) DeleteParticipant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster, err := load[models.Participant](ctx, s.backend, s.usersKey())
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}

	i := slices.IndexFunc(roster, func(p models.Participant) bool { return p.ID == id })
	if i < 0 {
		return fmt.Errorf("participant %s: %w", id, storage.ErrNotFound)
	}
	roster = slices.Delete(roster, i, i+1)

	if err := save(ctx, s.backend, s.usersKey(), roster); err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return nil
}

// ListExpenses returns every expense, newest first.
func (s *Store) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	slices.SortStableFunc(list.expenses, func(a, b models.Expense) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return list.expenses, nil
}

// GetExpense retrieves an expense by ID.
func (s *Store) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	for _, e := range list.expenses {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
}

// CreateExpense appends a new expense.
func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadExpenses(ctx)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	if e.Status == "" {
		e.Status = models.StatusPending
	}
	if slices.ContainsFunc(list.expenses, func(existing models.Expense) bool { return existing.ID == e.ID }) {
		return fmt.Errorf("failed to create expense: duplicate id %s", e.ID)
	}

	list.expenses = append(list.expenses, *e)
	if err := s.saveExpenses(ctx, list); err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// UpdateExpense replaces an existing expense. CreatedAt is kept from the stored record.
func (s *Store) UpdateExpense(ctx context.Context, e *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadExpenses(ctx)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	i := slices.IndexFunc(list.expenses, func(existing models.Expense) bool { return existing.ID == e.ID })
	if i < 0 {
		return fmt.Errorf("expense %s: %w", e.ID, storage.ErrNotFound)
	}
	e.CreatedAt = list.expenses[i].CreatedAt
	list.expenses[i] = *e

	if err := s.saveExpenses(ctx, list); err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense by ID.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadExpenses(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	i := slices.IndexFunc(list.expenses, func(e models.Expense) bool { return e.ID == id })
	if i < 0 {
		return fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	list.expenses = slices.Delete(list.expenses, i, i+1)

	if err := s.saveExpenses(ctx, list); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}
