package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/splitbook/internal/models"
)

// ListParticipants returns the roster in insertion order.
func (s *SQLiteStore) ListParticipants(ctx context.Context) (models.Roster, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, color FROM participants ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	roster := models.Roster{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Color); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		roster = append(roster, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return roster, nil
}

// SaveParticipant inserts a participant or updates name and color of an existing one.
func (s *SQLiteStore) SaveParticipant(ctx context.Context, p *models.Participant) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (id, name, color) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, color = excluded.color`,
		p.ID, p.Name, p.Color,
	)
	if err != nil {
		return fmt.Errorf("failed to save participant: %w", err)
	}

	return nil
}

// DeleteParticipant removes a participant by ID.
func (s *SQLiteStore) DeleteParticipant(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM participants WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted participant: %w", err)
	}
	if n == 0 {
		return notFound("participant", id)
	}

	return nil
}
