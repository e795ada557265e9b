package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitbook/internal/models"
)

const expenseColumns = "id, description, amount, paid_by, split_type, date, status, created_at"

// CreateExpense persists a new expense with its participants and custom shares.
func (s *SQLiteStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	// Generate IDs if not set
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	if e.Status == "" {
		e.Status = models.StatusPending
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.Description, e.Amount, e.PaidBy, string(e.SplitOrEqual().Type()),
		dateToColumn(e.Date), string(e.Status), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertSplitDetails(ctx, tx, e); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateExpense replaces an existing expense, including participants and shares.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, e *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE expenses
		SET description = ?, amount = ?, paid_by = ?, split_type = ?, date = ?, status = ?
		WHERE id = ?`,
		e.Description, e.Amount, e.PaidBy, string(e.SplitOrEqual().Type()),
		dateToColumn(e.Date), string(e.Status), e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated expense: %w", err)
	}
	if n == 0 {
		return notFound("expense", e.ID)
	}

	if err := deleteSplitDetails(ctx, tx, e.ID); err != nil {
		return err
	}
	if err := insertSplitDetails(ctx, tx, e); err != nil {
		return err
	}

	// CreatedAt is immutable; reflect the stored value back to the caller.
	if err := tx.QueryRowContext(ctx, "SELECT created_at FROM expenses WHERE id = ?", e.ID).Scan(&e.CreatedAt); err != nil {
		return fmt.Errorf("failed to read expense created_at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteExpense removes an expense by ID.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteSplitDetails(ctx, tx, id); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted expense: %w", err)
	}
	if n == 0 {
		return notFound("expense", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, including participants and shares.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)

	var r expenseRow
	err := row.Scan(&r.id, &r.description, &r.amount, &r.paidBy, &r.splitType, &r.date, &r.status, &r.createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("expense", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	details, err := s.loadSplitDetails(ctx, "WHERE expense_id = ?", id)
	if err != nil {
		return nil, err
	}

	e, err := r.toModel(details[id])
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListExpenses returns every expense, newest first.
func (s *SQLiteStore) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses ORDER BY date DESC, created_at DESC, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var records []expenseRow
	for rows.Next() {
		var r expenseRow
		if err := rows.Scan(&r.id, &r.description, &r.amount, &r.paidBy, &r.splitType, &r.date, &r.status, &r.createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	details, err := s.loadSplitDetails(ctx, "")
	if err != nil {
		return nil, err
	}

	expenses := make([]models.Expense, 0, len(records))
	for _, r := range records {
		e, err := r.toModel(details[r.id])
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}

	return expenses, nil
}

// Dates are stored as Unix nanoseconds so both backends read back the same
// instant. The zero time is stored as 0.
func dateToColumn(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func dateFromColumn(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

type expenseRow struct {
	id          string
	description string
	amount      float64
	paidBy      string
	splitType   string
	date        int64
	status      string
	createdAt   int64
}

type splitDetails struct {
	participants []string
	shares       map[string]float64
}

func (r expenseRow) toModel(d splitDetails) (models.Expense, error) {
	split, err := models.NewSplit(models.SplitType(r.splitType), d.shares)
	if err != nil {
		return models.Expense{}, fmt.Errorf("expense %s: %w", r.id, err)
	}

	return models.Expense{
		ID:           r.id,
		Description:  r.description,
		Amount:       r.amount,
		PaidBy:       r.paidBy,
		Participants: d.participants,
		Split:        split,
		Date:         dateFromColumn(r.date),
		Status:       models.Status(r.status),
		CreatedAt:    r.createdAt,
	}, nil
}

// loadSplitDetails reads participants and custom shares, grouped by expense ID.
// where is an optional clause applied to both tables.
func (s *SQLiteStore) loadSplitDetails(ctx context.Context, where string, args ...any) (map[string]splitDetails, error) {
	details := make(map[string]splitDetails)

	rows, err := s.db.QueryContext(ctx,
		"SELECT expense_id, participant_id FROM expense_participants "+where+" ORDER BY expense_id, position",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID, participantID string
		if err := rows.Scan(&expenseID, &participantID); err != nil {
			return nil, fmt.Errorf("failed to scan expense participant: %w", err)
		}
		d := details[expenseID]
		d.participants = append(d.participants, participantID)
		details[expenseID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense participants: %w", err)
	}

	shareRows, err := s.db.QueryContext(ctx,
		"SELECT expense_id, participant_id, amount FROM expense_shares "+where,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense shares: %w", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var expenseID, participantID string
		var amount float64
		if err := shareRows.Scan(&expenseID, &participantID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense share: %w", err)
		}
		d := details[expenseID]
		if d.shares == nil {
			d.shares = make(map[string]float64)
		}
		d.shares[participantID] = amount
		details[expenseID] = d
	}
	if err := shareRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense shares: %w", err)
	}

	return details, nil
}

func insertSplitDetails(ctx context.Context, tx *sql.Tx, e *models.Expense) error {
	for i, participantID := range e.Participants {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO expense_participants (expense_id, participant_id, position) VALUES (?, ?, ?)",
			e.ID, participantID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense participant: %w", err)
		}
	}

	custom, ok := e.Split.(models.CustomSplit)
	if !ok {
		return nil
	}
	for participantID, amount := range custom.Shares {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, participant_id, amount) VALUES (?, ?, ?)",
			e.ID, participantID, amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense share: %w", err)
		}
	}
	return nil
}

func deleteSplitDetails(ctx context.Context, tx *sql.Tx, expenseID string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_participants WHERE expense_id = ?", expenseID); err != nil {
		return fmt.Errorf("failed to delete expense participants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_shares WHERE expense_id = ?", expenseID); err != nil {
		return fmt.Errorf("failed to delete expense shares: %w", err)
	}
	return nil
}
