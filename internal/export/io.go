package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitbook/internal/models"
	"github.com/mmynk/splitbook/internal/storage"
)

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// ReadJSON decodes a report written by WriteJSON. It also accepts a raw
// backup of the browser app, {"users": [...], "expenses": [...]} with
// expenses in their stored shape; those are converted to report entries.
func ReadJSON(r io.Reader) (*Report, error) {
	var raw struct {
		Report
		Expenses []json.RawMessage `json:"expenses"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}

	report := raw.Report
	report.Expenses = make([]ExpenseEntry, 0, len(raw.Expenses))
	for i, data := range raw.Expenses {
		var probe struct {
			Splits *[]ShareEntry `json:"splits"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, fmt.Errorf("failed to decode expense %d: %w", i, err)
		}

		var entry ExpenseEntry
		if probe.Splits != nil {
			if err := json.Unmarshal(data, &entry); err != nil {
				return nil, fmt.Errorf("failed to decode expense %d: %w", i, err)
			}
		} else {
			var e models.Expense
			if err := json.Unmarshal(data, &e); err != nil {
				return nil, fmt.Errorf("failed to decode expense %d: %w", i, err)
			}
			entry = entryFromStored(e)
		}
		report.Expenses = append(report.Expenses, entry)
	}
	return &report, nil
}

// entryFromStored keeps only what Import needs: an empty participant list
// stays empty so the whole roster keeps sharing the expense.
func entryFromStored(e models.Expense) ExpenseEntry {
	entry := ExpenseEntry{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		PaidBy:      e.PaidBy,
		Date:        e.Date,
		Status:      e.Status,
		SplitType:   e.SplitOrEqual().Type(),
		Splits:      []ShareEntry{},
	}

	ids := e.Participants
	custom, isCustom := e.Split.(models.CustomSplit)
	if isCustom && len(ids) == 0 {
		ids = slices.Sorted(maps.Keys(custom.Shares))
	}
	for _, id := range ids {
		share := ShareEntry{UserID: id}
		if isCustom {
			share.Amount = custom.Shares[id]
		}
		entry.Splits = append(entry.Splits, share)
	}
	return entry
}

var csvHeader = []string{"Date", "Description", "Amount", "Paid By", "Split Type", "Status", "Shares"}

// WriteCSV writes one row per expense.
func WriteCSV(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range report.Expenses {
		shares := make([]string, len(e.Splits))
		for i, s := range e.Splits {
			shares[i] = fmt.Sprintf("%s: %s", s.UserName, decimal.NewFromFloat(s.Amount).StringFixed(2))
		}
		row := []string{
			e.Date.Format("2006-01-02"),
			e.Description,
			decimal.NewFromFloat(e.Amount).StringFixed(2),
			e.PaidByName,
			string(e.SplitType),
			string(e.Status),
			strings.Join(shares, "; "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ImportResult counts the records written by Import.
type ImportResult struct {
	Participants int
	Created      int
	Updated      int
}

// Import writes the report's users and then its expenses into store.
// Existing records with the same ID are replaced.
//
// Equal splits are restored with the exported share holders as explicit
// participants; custom splits get their exported share amounts back.
func Import(ctx context.Context, store storage.Store, report *Report) (ImportResult, error) {
	var result ImportResult

	for i := range report.Users {
		p := report.Users[i]
		if err := p.Validate(); err != nil {
			return result, fmt.Errorf("user %q: %w", p.ID, err)
		}
		if err := store.SaveParticipant(ctx, &p); err != nil {
			return result, fmt.Errorf("failed to save user %q: %w", p.ID, err)
		}
		result.Participants++
	}

	for _, entry := range report.Expenses {
		e, err := entry.toModel()
		if err != nil {
			return result, fmt.Errorf("expense %q: %w", entry.ID, err)
		}
		if err := e.Validate(); err != nil {
			return result, fmt.Errorf("expense %q: %w", entry.ID, err)
		}

		_, err = store.GetExpense(ctx, e.ID)
		switch {
		case err == nil:
			if err := store.UpdateExpense(ctx, &e); err != nil {
				return result, fmt.Errorf("failed to update expense %q: %w", e.ID, err)
			}
			result.Updated++
		case errors.Is(err, storage.ErrNotFound) || e.ID == "":
			if err := store.CreateExpense(ctx, &e); err != nil {
				return result, fmt.Errorf("failed to create expense %q: %w", e.ID, err)
			}
			result.Created++
		default:
			return result, fmt.Errorf("failed to look up expense %q: %w", e.ID, err)
		}
	}

	return result, nil
}

func (entry ExpenseEntry) toModel() (models.Expense, error) {
	participants := make([]string, len(entry.Splits))
	var shares map[string]float64
	if entry.SplitType == models.SplitTypeCustom {
		shares = make(map[string]float64, len(entry.Splits))
	}
	for i, s := range entry.Splits {
		participants[i] = s.UserID
		if shares != nil {
			shares[s.UserID] = s.Amount
		}
	}

	split, err := models.NewSplit(entry.SplitType, shares)
	if err != nil {
		return models.Expense{}, err
	}

	status := entry.Status
	if status == "" {
		status = models.StatusPending
	}

	return models.Expense{
		ID:           entry.ID,
		Description:  entry.Description,
		Amount:       entry.Amount,
		PaidBy:       entry.PaidBy,
		Participants: participants,
		Split:        split,
		Date:         entry.Date,
		Status:       status,
	}, nil
}
