package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// Tolerance is the money noise margin. Balances and share sums within one
// cent of their target are treated as equal.
const Tolerance = 0.01

var (
	ErrEmptyDescription   = errors.New("description cannot be empty")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrMissingPayer       = errors.New("paid_by is required")
	ErrInvalidStatus      = errors.New("status must be pending or settled")
	ErrInvalidSplit       = errors.New("invalid split")
)

// Status is the lifecycle state of an expense.
// Only pending expenses count toward balances.
type Status string

const (
	StatusPending Status = "pending"
	StatusSettled Status = "settled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusSettled
}

// SplitType names the split variant in stored and exported JSON.
type SplitType string

const (
	SplitTypeEqual  SplitType = "equal"
	SplitTypeCustom SplitType = "custom"
)

// Split describes how an expense is divided among its participants.
// It is implemented by EqualSplit and CustomSplit only.
type Split interface {
	Type() SplitType
	isSplit()
}

// EqualSplit divides the amount evenly among the participants.
type EqualSplit struct{}

// Type returns SplitTypeEqual.
func (EqualSplit) Type() SplitType { return SplitTypeEqual }
func (EqualSplit) isSplit()        {}

// CustomSplit assigns each participant a declared share.
// Participants without an entry owe nothing.
type CustomSplit struct {
	Shares map[string]float64
}

// Type returns SplitTypeCustom.
func (CustomSplit) Type() SplitType { return SplitTypeCustom }
func (CustomSplit) isSplit()        {}

// Sum returns the total of all declared shares.
func (c CustomSplit) Sum() float64 {
	var total float64
	for _, v := range c.Shares {
		total += v
	}
	return total
}

// Expense is one recorded shared cost.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is free text entered by the user (e.g., "Groceries").
	Description string

	// Amount is the total paid. Always positive for valid expenses.
	Amount float64

	// PaidBy is the participant ID of the payer.
	PaidBy string

	// Participants are the IDs sharing the cost.
	// Empty means the whole roster shares it.
	Participants []string

	// Split is EqualSplit or CustomSplit. Nil is read as EqualSplit.
	Split Split

	// Date is when the expense happened.
	Date time.Time

	// Status is pending until the expense has been paid back.
	Status Status

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// SplitOrEqual returns the expense split, defaulting to EqualSplit.
func (e Expense) SplitOrEqual() Split {
	if e.Split == nil {
		return EqualSplit{}
	}
	return e.Split
}

// IsPending reports whether the expense still counts toward balances.
func (e Expense) IsPending() bool {
	return e.Status == StatusPending
}

// Validate checks user-entered fields. It does not check that PaidBy or
// Participants belong to a roster; see Roster.ValidateExpense.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) || e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.PaidBy) == "" {
		return ErrMissingPayer
	}
	if !e.Status.Valid() {
		return ErrInvalidStatus
	}

	custom, ok := e.Split.(CustomSplit)
	if !ok {
		return nil
	}
	for id, share := range custom.Shares {
		if math.IsNaN(share) || share < 0 {
			return fmt.Errorf("%w: share for %s must not be negative", ErrInvalidSplit, id)
		}
		// A share for someone outside a listed participant set would be
		// dropped by the split and leave the payer over-credited.
		if len(e.Participants) > 0 && share != 0 && !slices.Contains(e.Participants, id) {
			return fmt.Errorf("%w: share for %s who is not a participant", ErrInvalidSplit, id)
		}
	}
	if sum := custom.Sum(); math.Abs(sum-e.Amount) > Tolerance {
		return fmt.Errorf("%w: shares sum to %.2f, expected %.2f", ErrInvalidSplit, sum, e.Amount)
	}
	return nil
}

// expenseJSON is the flat stored shape shared with the browser app.
type expenseJSON struct {
	ID           string             `json:"id"`
	Description  string             `json:"description"`
	Amount       float64            `json:"amount"`
	PaidBy       string             `json:"paidBy"`
	Participants []string           `json:"participants,omitempty"`
	SplitType    SplitType          `json:"splitType"`
	CustomSplits map[string]float64 `json:"customSplits,omitempty"`
	Date         time.Time          `json:"date"`
	Status       Status             `json:"status"`
	CreatedAt    int64              `json:"createdAt,omitempty"`
}

// MarshalJSON flattens the split variant into splitType/customSplits.
func (e Expense) MarshalJSON() ([]byte, error) {
	out := expenseJSON{
		ID:           e.ID,
		Description:  e.Description,
		Amount:       e.Amount,
		PaidBy:       e.PaidBy,
		Participants: e.Participants,
		SplitType:    e.SplitOrEqual().Type(),
		Date:         e.Date,
		Status:       e.Status,
		CreatedAt:    e.CreatedAt,
	}
	if custom, ok := e.Split.(CustomSplit); ok {
		out.CustomSplits = custom.Shares
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the flat shape. A missing splitType means equal and a
// missing status means pending, matching records written by older versions.
func (e *Expense) UnmarshalJSON(data []byte) error {
	var in expenseJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	split, err := NewSplit(in.SplitType, in.CustomSplits)
	if err != nil {
		return err
	}
	status := in.Status
	if status == "" {
		status = StatusPending
	}

	*e = Expense{
		ID:           in.ID,
		Description:  in.Description,
		Amount:       in.Amount,
		PaidBy:       in.PaidBy,
		Participants: in.Participants,
		Split:        split,
		Date:         in.Date,
		Status:       status,
		CreatedAt:    in.CreatedAt,
	}
	return nil
}

// NewSplit builds a split variant from its stored representation.
func NewSplit(kind SplitType, shares map[string]float64) (Split, error) {
	switch kind {
	case "", SplitTypeEqual:
		return EqualSplit{}, nil
	case SplitTypeCustom:
		if shares == nil {
			shares = map[string]float64{}
		}
		return CustomSplit{Shares: shares}, nil
	default:
		return nil, fmt.Errorf("%w: unknown split type %q", ErrInvalidSplit, kind)
	}
}
