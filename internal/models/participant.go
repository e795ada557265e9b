package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyName          = errors.New("participant name cannot be empty")
	ErrUnknownParticipant = errors.New("unknown participant")
)

// Palette is the set of display colors handed out to new participants.
var Palette = []string{
	"#3B82F6", "#EF4444", "#10B981", "#F59E0B",
	"#8B5CF6", "#EC4899", "#14B8A6", "#F97316",
}

// Participant is a person who can pay for or owe a share of an expense.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string `json:"id"`

	// Name is the display name (e.g., "Alice").
	Name string `json:"name"`

	// Color is the display color used by the frontend (hex, e.g. "#3B82F6").
	Color string `json:"color"`
}

// Validate checks the user-editable fields.
func (p Participant) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Roster is the ordered list of known participants.
type Roster []Participant

// IDs returns participant IDs in roster order.
func (r Roster) IDs() []string {
	ids := make([]string, len(r))
	for i, p := range r {
		ids[i] = p.ID
	}
	return ids
}

// Contains reports whether id belongs to the roster.
func (r Roster) Contains(id string) bool {
	_, ok := r.Lookup(id)
	return ok
}

// Lookup returns the participant with the given id.
func (r Roster) Lookup(id string) (Participant, bool) {
	for _, p := range r {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// NameOf returns the display name for id, or id itself for participants
// that are no longer on the roster.
func (r Roster) NameOf(id string) string {
	if p, ok := r.Lookup(id); ok {
		return p.Name
	}
	return id
}

// NextColor picks the palette color for the next participant added.
func (r Roster) NextColor() string {
	return Palette[len(r)%len(Palette)]
}

// ValidateExpense checks that the payer and every listed participant are on
// the roster. Custom shares for unknown ids are rejected too.
func (r Roster) ValidateExpense(e Expense) error {
	if !r.Contains(e.PaidBy) {
		return fmt.Errorf("%w: paid_by %q", ErrUnknownParticipant, e.PaidBy)
	}
	for _, id := range e.Participants {
		if !r.Contains(id) {
			return fmt.Errorf("%w: %q", ErrUnknownParticipant, id)
		}
	}
	if custom, ok := e.Split.(CustomSplit); ok {
		for id := range custom.Shares {
			if !r.Contains(id) {
				return fmt.Errorf("%w: custom share for %q", ErrUnknownParticipant, id)
			}
		}
	}
	return nil
}
