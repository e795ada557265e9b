// Package service implements the splitbook Connect API.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitbook/internal/calculator"
	"github.com/mmynk/splitbook/internal/export"
	"github.com/mmynk/splitbook/internal/metrics"
	"github.com/mmynk/splitbook/internal/models"
	"github.com/mmynk/splitbook/internal/storage"
)

// LedgerService implements the Connect LedgerService
type LedgerService struct {
	store   storage.Store
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewLedgerService creates a new LedgerService with the given storage backend.
// m may be nil.
func NewLedgerService(store storage.Store, m *metrics.Metrics) *LedgerService {
	return &LedgerService{store: store, metrics: m, now: time.Now}
}

// storeError maps a storage error to a Connect error.
func storeError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// ListParticipants returns the roster.
func (s *LedgerService) ListParticipants(ctx context.Context, req *connect.Request[ListParticipantsRequest]) (*connect.Response[ListParticipantsResponse], error) {
	roster, err := s.store.ListParticipants(ctx)
	if err != nil {
		slog.Error("ListParticipants failed", "error", err)
		return nil, storeError(err)
	}

	return connect.NewResponse(&ListParticipantsResponse{
		Participants: append([]models.Participant{}, roster...),
	}), nil
}

// SaveParticipant creates a participant, or updates it when the ID is known.
// New participants get the next palette color unless one is given.
func (s *LedgerService) SaveParticipant(ctx context.Context, req *connect.Request[SaveParticipantRequest]) (*connect.Response[SaveParticipantResponse], error) {
	p := req.Msg.Participant
	slog.Info("SaveParticipant request received", "participant_id", p.ID, "name", p.Name)

	if err := p.Validate(); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if p.Color == "" {
		roster, err := s.store.ListParticipants(ctx)
		if err != nil {
			slog.Error("SaveParticipant failed", "error", err)
			return nil, storeError(err)
		}
		if existing, ok := roster.Lookup(p.ID); ok && p.ID != "" {
			p.Color = existing.Color
		} else {
			p.Color = roster.NextColor()
		}
	}

	if err := s.store.SaveParticipant(ctx, &p); err != nil {
		slog.Error("SaveParticipant failed", "error", err)
		return nil, storeError(err)
	}

	slog.Info("Participant saved", "participant_id", p.ID)
	return connect.NewResponse(&SaveParticipantResponse{Participant: p}), nil
}

// DeleteParticipant removes a participant. Expenses referencing it are kept
// and the ID shows up as an unknown participant in balances.
func (s *LedgerService) DeleteParticipant(ctx context.Context, req *connect.Request[DeleteParticipantRequest]) (*connect.Response[DeleteParticipantResponse], error) {
	slog.Info("DeleteParticipant request received", "participant_id", req.Msg.ID)

	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("id required"))
	}
	if err := s.store.DeleteParticipant(ctx, req.Msg.ID); err != nil {
		slog.Error("DeleteParticipant failed", "participant_id", req.Msg.ID, "error", err)
		return nil, storeError(err)
	}

	return connect.NewResponse(&DeleteParticipantResponse{}), nil
}

// ListExpenses returns expenses newest first, optionally filtered by status.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	status := req.Msg.Status
	if status != "" && !status.Valid() {
		return nil, connect.NewError(connect.CodeInvalidArgument, models.ErrInvalidStatus)
	}

	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		slog.Error("ListExpenses failed", "error", err)
		return nil, storeError(err)
	}

	filtered := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if status == "" || e.Status == status {
			filtered = append(filtered, e)
		}
	}

	slog.Debug("ListExpenses successful", "count", len(filtered), "status", status)
	return connect.NewResponse(&ListExpensesResponse{Expenses: filtered}), nil
}

// validateExpense applies defaults and checks the expense against the roster.
func (s *LedgerService) validateExpense(ctx context.Context, e *models.Expense) error {
	if e.Status == "" {
		e.Status = models.StatusPending
	}
	if e.Split == nil {
		e.Split = models.EqualSplit{}
	}
	if e.Date.IsZero() {
		e.Date = s.now().UTC()
	}

	if err := e.Validate(); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}

	roster, err := s.store.ListParticipants(ctx)
	if err != nil {
		return storeError(err)
	}
	if err := roster.ValidateExpense(*e); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return nil
}

// CreateExpense records a new pending expense.
func (s *LedgerService) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	e := req.Msg.Expense
	slog.Info("CreateExpense request received",
		"description", e.Description,
		"amount", e.Amount,
		"paid_by", e.PaidBy,
		"participants_count", len(e.Participants),
	)

	e.ID = ""
	e.CreatedAt = 0
	if err := s.validateExpense(ctx, &e); err != nil {
		slog.Warn("CreateExpense rejected", "error", err)
		return nil, err
	}

	if err := s.store.CreateExpense(ctx, &e); err != nil {
		slog.Error("CreateExpense failed", "error", err)
		return nil, storeError(err)
	}

	slog.Info("Expense created", "expense_id", e.ID)
	return connect.NewResponse(&CreateExpenseResponse{Expense: e}), nil
}

// UpdateExpense replaces an existing expense. An empty status keeps the
// stored one.
func (s *LedgerService) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	e := req.Msg.Expense
	slog.Info("UpdateExpense request received", "expense_id", e.ID)

	if e.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("id required"))
	}

	existing, err := s.store.GetExpense(ctx, e.ID)
	if err != nil {
		slog.Error("UpdateExpense failed", "expense_id", e.ID, "error", err)
		return nil, storeError(err)
	}
	if e.Status == "" {
		e.Status = existing.Status
	}
	if e.Date.IsZero() {
		e.Date = existing.Date
	}

	if err := s.validateExpense(ctx, &e); err != nil {
		slog.Warn("UpdateExpense rejected", "expense_id", e.ID, "error", err)
		return nil, err
	}

	if err := s.store.UpdateExpense(ctx, &e); err != nil {
		slog.Error("UpdateExpense failed", "expense_id", e.ID, "error", err)
		return nil, storeError(err)
	}

	slog.Info("Expense updated", "expense_id", e.ID)
	return connect.NewResponse(&UpdateExpenseResponse{Expense: e}), nil
}

// DeleteExpense removes an expense by ID.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ID)

	if err := s.store.DeleteExpense(ctx, req.Msg.ID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", req.Msg.ID, "error", err)
		return nil, storeError(err)
	}

	slog.Info("Expense deleted", "expense_id", req.Msg.ID)
	return connect.NewResponse(&DeleteExpenseResponse{}), nil
}

// SetExpenseStatus marks an expense pending or settled.
func (s *LedgerService) SetExpenseStatus(ctx context.Context, req *connect.Request[SetExpenseStatusRequest]) (*connect.Response[SetExpenseStatusResponse], error) {
	slog.Info("SetExpenseStatus request received", "expense_id", req.Msg.ID, "status", req.Msg.Status)

	if !req.Msg.Status.Valid() {
		return nil, connect.NewError(connect.CodeInvalidArgument, models.ErrInvalidStatus)
	}

	e, err := s.store.GetExpense(ctx, req.Msg.ID)
	if err != nil {
		slog.Error("SetExpenseStatus failed", "expense_id", req.Msg.ID, "error", err)
		return nil, storeError(err)
	}

	e.Status = req.Msg.Status
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		slog.Error("SetExpenseStatus failed", "expense_id", req.Msg.ID, "error", err)
		return nil, storeError(err)
	}

	return connect.NewResponse(&SetExpenseStatusResponse{Expense: *e}), nil
}

// SettleAll marks every pending expense as settled.
func (s *LedgerService) SettleAll(ctx context.Context, req *connect.Request[SettleAllRequest]) (*connect.Response[SettleAllResponse], error) {
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		slog.Error("SettleAll failed", "error", err)
		return nil, storeError(err)
	}

	settled := 0
	for i := range expenses {
		e := &expenses[i]
		if !e.IsPending() {
			continue
		}
		e.Status = models.StatusSettled
		if err := s.store.UpdateExpense(ctx, e); err != nil {
			slog.Error("SettleAll failed", "expense_id", e.ID, "settled_so_far", settled, "error", err)
			return nil, storeError(err)
		}
		settled++
	}

	slog.Info("All expenses settled", "count", settled)
	return connect.NewResponse(&SettleAllResponse{Settled: settled}), nil
}

// GetBalances computes member balances and the settlement plan over the
// pending expenses.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	roster, expenses, err := s.load(ctx)
	if err != nil {
		slog.Error("GetBalances failed", "error", err)
		return nil, storeError(err)
	}

	balances := calculator.CalculateBalances(expenses, roster)
	settlements := calculator.PlanSettlements(balances)
	unknown := calculator.UnknownParticipants(balances, roster)
	s.metrics.ObservePlan(len(settlements), len(unknown))
	if len(unknown) > 0 {
		slog.Warn("Balances reference participants missing from the roster", "ids", unknown)
	}

	summaries := calculator.SummarizeMembers(expenses, roster)
	members := make([]MemberSummary, len(summaries))
	for i, mb := range summaries {
		p, _ := roster.Lookup(mb.ParticipantID)
		members[i] = MemberSummary{
			MemberBalance: mb,
			Name:          roster.NameOf(mb.ParticipantID),
			Color:         p.Color,
		}
	}

	slog.Info("GetBalances successful",
		"members", len(members),
		"settlements", len(settlements),
	)

	return connect.NewResponse(&GetBalancesResponse{
		Members:             members,
		Settlements:         settlements,
		SettledUp:           calculator.IsSettledUp(balances),
		UnknownParticipants: unknown,
	}), nil
}

// ExportReport builds the full ledger report.
func (s *LedgerService) ExportReport(ctx context.Context, req *connect.Request[ExportReportRequest]) (*connect.Response[ExportReportResponse], error) {
	roster, expenses, err := s.load(ctx)
	if err != nil {
		slog.Error("ExportReport failed", "error", err)
		return nil, storeError(err)
	}

	report := export.BuildReport(roster, expenses, s.now())
	slog.Info("Report exported", "expenses", report.Summary.TotalExpenses)
	return connect.NewResponse(&ExportReportResponse{Report: report}), nil
}

func (s *LedgerService) load(ctx context.Context) (models.Roster, []models.Expense, error) {
	roster, err := s.store.ListParticipants(ctx)
	if err != nil {
		return nil, nil, err
	}
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, nil, err
	}
	return roster, expenses, nil
}
