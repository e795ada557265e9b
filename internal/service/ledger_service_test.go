package service

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/splitbook/internal/metrics"
	"github.com/mmynk/splitbook/internal/middleware"
	"github.com/mmynk/splitbook/internal/models"
	"github.com/mmynk/splitbook/internal/storage/sqlite"
)

// setupTestServer creates a test server backed by a temporary SQLite database.
func setupTestServer(t *testing.T) (*LedgerServiceClient, *metrics.Metrics) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	m := metrics.New()
	svc := NewLedgerService(store, m)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	path, handler := NewLedgerServiceHandler(svc, connect.WithInterceptors(
		middleware.LoggingInterceptor(nil),
		middleware.MetricsInterceptor(m),
	))
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return NewLedgerServiceClient(http.DefaultClient, server.URL), m
}

func addParticipant(t *testing.T, client *LedgerServiceClient, name string) models.Participant {
	t.Helper()
	resp, err := client.SaveParticipant(context.Background(), connect.NewRequest(&SaveParticipantRequest{
		Participant: models.Participant{Name: name},
	}))
	if err != nil {
		t.Fatalf("SaveParticipant(%s) failed: %v", name, err)
	}
	return resp.Msg.Participant
}

func addExpense(t *testing.T, client *LedgerServiceClient, e models.Expense) models.Expense {
	t.Helper()
	resp, err := client.CreateExpense(context.Background(), connect.NewRequest(&CreateExpenseRequest{Expense: e}))
	if err != nil {
		t.Fatalf("CreateExpense(%s) failed: %v", e.Description, err)
	}
	return resp.Msg.Expense
}

func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %v", want)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect error, got %T", err)
	}
	if connectErr.Code() != want {
		t.Errorf("expected %v, got %v (%s)", want, connectErr.Code(), connectErr.Message())
	}
}

func TestSaveParticipant(t *testing.T) {
	client, _ := setupTestServer(t)

	alice := addParticipant(t, client, "Alice")
	bob := addParticipant(t, client, "Bob")

	if alice.ID == "" {
		t.Error("expected non-empty participant ID")
	}
	if alice.Color != models.Palette[0] || bob.Color != models.Palette[1] {
		t.Errorf("expected palette colors, got %s and %s", alice.Color, bob.Color)
	}

	// Rename keeps the color
	resp, err := client.SaveParticipant(context.Background(), connect.NewRequest(&SaveParticipantRequest{
		Participant: models.Participant{ID: alice.ID, Name: "Alice A."},
	}))
	if err != nil {
		t.Fatalf("SaveParticipant failed: %v", err)
	}
	if resp.Msg.Participant.Color != alice.Color {
		t.Errorf("color changed on rename: %s", resp.Msg.Participant.Color)
	}

	list, err := client.ListParticipants(context.Background(), connect.NewRequest(&ListParticipantsRequest{}))
	if err != nil {
		t.Fatalf("ListParticipants failed: %v", err)
	}
	if len(list.Msg.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(list.Msg.Participants))
	}
	if list.Msg.Participants[0].Name != "Alice A." {
		t.Errorf("name: expected 'Alice A.', got '%s'", list.Msg.Participants[0].Name)
	}
}

func TestSaveParticipant_EmptyName(t *testing.T) {
	client, _ := setupTestServer(t)

	_, err := client.SaveParticipant(context.Background(), connect.NewRequest(&SaveParticipantRequest{
		Participant: models.Participant{Name: "  "},
	}))
	expectCode(t, err, connect.CodeInvalidArgument)
}

func TestDeleteParticipant_NotFound(t *testing.T) {
	client, _ := setupTestServer(t)

	_, err := client.DeleteParticipant(context.Background(), connect.NewRequest(&DeleteParticipantRequest{ID: "nobody"}))
	expectCode(t, err, connect.CodeNotFound)
}

func TestCreateExpense(t *testing.T) {
	client, _ := setupTestServer(t)
	alice := addParticipant(t, client, "Alice")
	bob := addParticipant(t, client, "Bob")

	e := addExpense(t, client, models.Expense{
		Description:  "Groceries",
		Amount:       42.5,
		PaidBy:       alice.ID,
		Participants: []string{alice.ID, bob.ID},
		Split:        models.CustomSplit{Shares: map[string]float64{alice.ID: 12.5, bob.ID: 30}},
	})

	if e.ID == "" {
		t.Error("expected non-empty expense ID")
	}
	if e.Status != models.StatusPending {
		t.Errorf("status: expected pending, got %s", e.Status)
	}
	if !e.Date.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("expected date defaulted to now, got %v", e.Date)
	}
	custom, ok := e.Split.(models.CustomSplit)
	if !ok {
		t.Fatalf("expected custom split, got %T", e.Split)
	}
	if custom.Shares[bob.ID] != 30 {
		t.Errorf("bob share: expected 30, got %.2f", custom.Shares[bob.ID])
	}
}

func TestCreateExpense_Invalid(t *testing.T) {
	client, _ := setupTestServer(t)
	alice := addParticipant(t, client, "Alice")
	bob := addParticipant(t, client, "Bob")
	carol := addParticipant(t, client, "Carol")

	tests := []struct {
		name    string
		expense models.Expense
	}{
		{"empty description", models.Expense{Description: "", Amount: 10, PaidBy: alice.ID}},
		{"long description", models.Expense{Description: strings.Repeat("a", 201), Amount: 10, PaidBy: alice.ID}},
		{"zero amount", models.Expense{Description: "Coffee", Amount: 0, PaidBy: alice.ID}},
		{"unknown payer", models.Expense{Description: "Coffee", Amount: 10, PaidBy: "ghost"}},
		{"unknown participant", models.Expense{Description: "Coffee", Amount: 10, PaidBy: alice.ID, Participants: []string{"ghost"}}},
		{"shares do not sum", models.Expense{
			Description: "Hotel", Amount: 100, PaidBy: alice.ID,
			Split: models.CustomSplit{Shares: map[string]float64{alice.ID: 50, bob.ID: 40}},
		}},
		{"share for non-participant", models.Expense{
			Description: "Dinner", Amount: 90, PaidBy: alice.ID, Participants: []string{alice.ID, bob.ID},
			Split: models.CustomSplit{Shares: map[string]float64{alice.ID: 30, bob.ID: 30, carol.ID: 30}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreateExpense(context.Background(), connect.NewRequest(&CreateExpenseRequest{Expense: tt.expense}))
			expectCode(t, err, connect.CodeInvalidArgument)
		})
	}
}

func TestUpdateAndDeleteExpense(t *testing.T) {
	client, _ := setupTestServer(t)
	ctx := context.Background()
	alice := addParticipant(t, client, "Alice")
	bob := addParticipant(t, client, "Bob")

	e := addExpense(t, client, models.Expense{Description: "Taxi", Amount: 20, PaidBy: alice.ID})

	e.Amount = 24
	e.PaidBy = bob.ID
	e.Status = ""
	resp, err := client.UpdateExpense(ctx, connect.NewRequest(&UpdateExpenseRequest{Expense: e}))
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	if resp.Msg.Expense.Amount != 24 || resp.Msg.Expense.PaidBy != bob.ID {
		t.Errorf("update not applied: %+v", resp.Msg.Expense)
	}
	if resp.Msg.Expense.Status != models.StatusPending {
		t.Errorf("expected stored status kept, got %s", resp.Msg.Expense.Status)
	}

	if _, err := client.DeleteExpense(ctx, connect.NewRequest(&DeleteExpenseRequest{ID: e.ID})); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}

	_, err = client.UpdateExpense(ctx, connect.NewRequest(&UpdateExpenseRequest{Expense: e}))
	expectCode(t, err, connect.CodeNotFound)
	_, err = client.DeleteExpense(ctx, connect.NewRequest(&DeleteExpenseRequest{ID: e.ID}))
	expectCode(t, err, connect.CodeNotFound)
}

func TestListExpenses_StatusFilter(t *testing.T) {
	client, _ := setupTestServer(t)
	ctx := context.Background()
	alice := addParticipant(t, client, "Alice")

	first := addExpense(t, client, models.Expense{Description: "Old", Amount: 5, PaidBy: alice.ID, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	addExpense(t, client, models.Expense{Description: "New", Amount: 7, PaidBy: alice.ID, Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})

	if _, err := client.SetExpenseStatus(ctx, connect.NewRequest(&SetExpenseStatusRequest{ID: first.ID, Status: models.StatusSettled})); err != nil {
		t.Fatalf("SetExpenseStatus failed: %v", err)
	}

	all, err := client.ListExpenses(ctx, connect.NewRequest(&ListExpensesRequest{}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(all.Msg.Expenses) != 2 || all.Msg.Expenses[0].Description != "New" {
		t.Fatalf("expected 2 expenses newest first, got %+v", all.Msg.Expenses)
	}

	settled, err := client.ListExpenses(ctx, connect.NewRequest(&ListExpensesRequest{Status: models.StatusSettled}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(settled.Msg.Expenses) != 1 || settled.Msg.Expenses[0].ID != first.ID {
		t.Errorf("expected only the settled expense, got %+v", settled.Msg.Expenses)
	}

	_, err = client.ListExpenses(ctx, connect.NewRequest(&ListExpensesRequest{Status: "archived"}))
	expectCode(t, err, connect.CodeInvalidArgument)
	_, err = client.SetExpenseStatus(ctx, connect.NewRequest(&SetExpenseStatusRequest{ID: first.ID, Status: "archived"}))
	expectCode(t, err, connect.CodeInvalidArgument)
}

func TestGetBalances(t *testing.T) {
	client, m := setupTestServer(t)
	ctx := context.Background()
	alice := addParticipant(t, client, "Alice")
	bob := addParticipant(t, client, "Bob")
	charlie := addParticipant(t, client, "Charlie")

	// Alice pays 90 for all three, Bob pays 30 for himself and Charlie.
	addExpense(t, client, models.Expense{Description: "Dinner", Amount: 90, PaidBy: alice.ID})
	addExpense(t, client, models.Expense{Description: "Taxi", Amount: 30, PaidBy: bob.ID, Participants: []string{bob.ID, charlie.ID}})

	resp, err := client.GetBalances(ctx, connect.NewRequest(&GetBalancesRequest{}))
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}

	want := map[string]float64{alice.ID: 60, bob.ID: -15, charlie.ID: -45}
	if len(resp.Msg.Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(resp.Msg.Members))
	}
	for _, member := range resp.Msg.Members {
		if math.Abs(member.Net-want[member.ParticipantID]) > 0.01 {
			t.Errorf("%s net: expected %.2f, got %.2f", member.Name, want[member.ParticipantID], member.Net)
		}
	}
	if resp.Msg.Members[0].Name != "Alice" || resp.Msg.Members[0].Paid != 90 {
		t.Errorf("unexpected first member: %+v", resp.Msg.Members[0])
	}

	if len(resp.Msg.Settlements) != 2 {
		t.Fatalf("expected 2 settlements, got %+v", resp.Msg.Settlements)
	}
	if s := resp.Msg.Settlements[0]; s.From != charlie.ID || s.To != alice.ID || math.Abs(s.Amount-45) > 0.01 {
		t.Errorf("unexpected first settlement: %+v", s)
	}
	if s := resp.Msg.Settlements[1]; s.From != bob.ID || s.To != alice.ID || math.Abs(s.Amount-15) > 0.01 {
		t.Errorf("unexpected second settlement: %+v", s)
	}
	if resp.Msg.SettledUp {
		t.Error("expected SettledUp false")
	}

	if got := testutil.ToFloat64(m.RPCRequests.WithLabelValues(GetBalancesProcedure, "ok")); got != 1 {
		t.Errorf("expected 1 GetBalances call recorded, got %v", got)
	}
}

func TestGetBalances_RemovedParticipant(t *testing.T) {
	client, _ := setupTestServer(t)
	ctx := context.Background()
	alice := addParticipant(t, client, "Alice")
	bob := addParticipant(t, client, "Bob")

	addExpense(t, client, models.Expense{Description: "Lunch", Amount: 20, PaidBy: bob.ID, Participants: []string{alice.ID, bob.ID}})
	if _, err := client.DeleteParticipant(ctx, connect.NewRequest(&DeleteParticipantRequest{ID: bob.ID})); err != nil {
		t.Fatalf("DeleteParticipant failed: %v", err)
	}

	resp, err := client.GetBalances(ctx, connect.NewRequest(&GetBalancesRequest{}))
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	if len(resp.Msg.UnknownParticipants) != 1 || resp.Msg.UnknownParticipants[0] != bob.ID {
		t.Errorf("expected %s reported as unknown, got %v", bob.ID, resp.Msg.UnknownParticipants)
	}
	if len(resp.Msg.Settlements) != 1 || resp.Msg.Settlements[0].From != alice.ID || resp.Msg.Settlements[0].To != bob.ID {
		t.Errorf("expected alice to pay the removed payer, got %+v", resp.Msg.Settlements)
	}
}

func TestSettleAll(t *testing.T) {
	client, _ := setupTestServer(t)
	ctx := context.Background()
	alice := addParticipant(t, client, "Alice")
	addParticipant(t, client, "Bob")

	addExpense(t, client, models.Expense{Description: "Rent", Amount: 1000, PaidBy: alice.ID})
	addExpense(t, client, models.Expense{Description: "Power", Amount: 80, PaidBy: alice.ID})

	resp, err := client.SettleAll(ctx, connect.NewRequest(&SettleAllRequest{}))
	if err != nil {
		t.Fatalf("SettleAll failed: %v", err)
	}
	if resp.Msg.Settled != 2 {
		t.Errorf("expected 2 settled, got %d", resp.Msg.Settled)
	}

	balances, err := client.GetBalances(ctx, connect.NewRequest(&GetBalancesRequest{}))
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	if !balances.Msg.SettledUp || len(balances.Msg.Settlements) != 0 {
		t.Errorf("expected settled up with no transfers, got %+v", balances.Msg)
	}

	again, err := client.SettleAll(ctx, connect.NewRequest(&SettleAllRequest{}))
	if err != nil {
		t.Fatalf("SettleAll failed: %v", err)
	}
	if again.Msg.Settled != 0 {
		t.Errorf("expected nothing left to settle, got %d", again.Msg.Settled)
	}
}

func TestExportReport(t *testing.T) {
	client, _ := setupTestServer(t)
	alice := addParticipant(t, client, "Alice")
	bob := addParticipant(t, client, "Bob")
	addExpense(t, client, models.Expense{Description: "Museum", Amount: 30, PaidBy: bob.ID, Participants: []string{alice.ID, bob.ID}})

	resp, err := client.ExportReport(context.Background(), connect.NewRequest(&ExportReportRequest{}))
	if err != nil {
		t.Fatalf("ExportReport failed: %v", err)
	}

	report := resp.Msg.Report
	if report.Summary.TotalExpenses != 1 || report.Summary.PendingAmount != 30 {
		t.Errorf("unexpected summary: %+v", report.Summary)
	}
	if len(report.Users) != 2 {
		t.Errorf("expected 2 users, got %d", len(report.Users))
	}
	if report.Expenses[0].PaidByName != "Bob" {
		t.Errorf("paidByName: expected 'Bob', got '%s'", report.Expenses[0].PaidByName)
	}
	if len(report.Settlements) != 1 || report.Settlements[0].Amount != 15 {
		t.Errorf("unexpected settlements: %+v", report.Settlements)
	}
}
