package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitbook/internal/calculator"
	"github.com/mmynk/splitbook/internal/models"
	"github.com/mmynk/splitbook/internal/storage/kv"
)

var (
	roster = models.Roster{
		{ID: "alice", Name: "Alice", Color: "#3B82F6"},
		{ID: "bob", Name: "Bob", Color: "#EF4444"},
		{ID: "charlie", Name: "Charlie", Color: "#10B981"},
	}
	exportedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func sampleExpenses() []models.Expense {
	day := func(d int) time.Time { return time.Date(2024, 2, d, 0, 0, 0, 0, time.UTC) }
	return []models.Expense{
		{
			ID: "dinner", Description: "Dinner", Amount: 100, PaidBy: "alice",
			Split: models.EqualSplit{}, Date: day(20), Status: models.StatusPending,
		},
		{
			ID: "hotel", Description: "Hotel, 2 nights", Amount: 90, PaidBy: "bob",
			Participants: []string{"alice", "bob"},
			Split:        models.CustomSplit{Shares: map[string]float64{"alice": 60, "bob": 30}},
			Date:         day(10), Status: models.StatusPending,
		},
		{
			ID: "taxi", Description: "Taxi", Amount: 20.5, PaidBy: "charlie",
			Participants: []string{"charlie", "bob"},
			Split:        models.EqualSplit{}, Date: day(5), Status: models.StatusSettled,
		},
	}
}

func TestBuildReport(t *testing.T) {
	expenses := sampleExpenses()
	report := BuildReport(roster, expenses, exportedAt)

	assert.Equal(t, exportedAt, report.ExportDate)
	assert.Equal(t, Summary{
		TotalExpenses: 3,
		TotalAmount:   210.5,
		PendingAmount: 190,
		SettledAmount: 20.5,
		PendingCount:  2,
		SettledCount:  1,
	}, report.Summary)
	assert.Len(t, report.Users, 3)
	require.Len(t, report.Expenses, 3)

	dinner := report.Expenses[0]
	assert.Equal(t, "Alice", dinner.PaidByName)
	assert.Equal(t, models.SplitTypeEqual, dinner.SplitType)
	require.Len(t, dinner.Splits, 3)
	assert.Equal(t, ShareEntry{UserID: "alice", UserName: "Alice", Amount: 33.33}, dinner.Splits[0])

	hotel := report.Expenses[1]
	assert.Equal(t, models.SplitTypeCustom, hotel.SplitType)
	assert.Equal(t, []ShareEntry{
		{UserID: "alice", UserName: "Alice", Amount: 60},
		{UserID: "bob", UserName: "Bob", Amount: 30},
	}, hotel.Splits)

	assert.Equal(t, calculator.SummarizeMembers(expenses, roster), report.Balances)
	assert.Equal(t, calculator.PlanSettlements(calculator.CalculateBalances(expenses, roster)), report.Settlements)
}

func TestBuildReport_Empty(t *testing.T) {
	report := BuildReport(nil, nil, exportedAt)

	assert.Equal(t, 0, report.Summary.TotalExpenses)
	assert.NotNil(t, report.Expenses)
	assert.Empty(t, report.Settlements)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, report))
	assert.Contains(t, buf.String(), `"expenses": []`)
	assert.Contains(t, buf.String(), `"settlements": []`)
}

func TestBuildReport_RemovedParticipant(t *testing.T) {
	expenses := []models.Expense{{
		ID: "e1", Description: "Snacks", Amount: 10, PaidBy: "dave",
		Participants: []string{"alice"}, Split: models.EqualSplit{}, Status: models.StatusPending,
	}}

	report := BuildReport(roster, expenses, exportedAt)
	assert.Equal(t, "dave", report.Expenses[0].PaidByName)
	assert.Equal(t, []models.Settlement{{From: "alice", To: "dave", Amount: 10}}, report.Settlements)
}

func TestWriteCSV(t *testing.T) {
	report := BuildReport(roster, sampleExpenses(), exportedAt)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, report))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		"2024-02-10", "Hotel, 2 nights", "90.00", "Bob", "custom", "pending", "Alice: 60.00; Bob: 30.00",
	}, rows[2])
	assert.Equal(t, "20.50", rows[3][2])
}

func TestJSONRoundTrip(t *testing.T) {
	report := BuildReport(roster, sampleExpenses(), exportedAt)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, report))

	decoded, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, report, *decoded)
}

func TestReadJSON_Invalid(t *testing.T) {
	_, err := ReadJSON(bytes.NewBufferString("[]"))
	assert.Error(t, err)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	expenses := sampleExpenses()
	report := BuildReport(roster, expenses, exportedAt)

	store := kv.NewMemory()
	defer store.Close()

	result, err := Import(ctx, store, &report)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Participants: 3, Created: 3}, result)

	gotRoster, err := store.ListParticipants(ctx)
	require.NoError(t, err)
	assert.Equal(t, roster, gotRoster)

	hotel, err := store.GetExpense(ctx, "hotel")
	require.NoError(t, err)
	assert.Equal(t, models.CustomSplit{Shares: map[string]float64{"alice": 60, "bob": 30}}, hotel.Split)

	taxi, err := store.GetExpense(ctx, "taxi")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSettled, taxi.Status)

	// Balances survive the round trip.
	imported, err := store.ListExpenses(ctx)
	require.NoError(t, err)
	want := calculator.CalculateBalances(expenses, roster)
	got := calculator.CalculateBalances(imported, gotRoster)
	for id, v := range want {
		assert.InDelta(t, v, got[id], models.Tolerance, id)
	}

	// Importing again replaces instead of duplicating.
	result, err = Import(ctx, store, &report)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Participants: 3, Updated: 3}, result)
	imported, err = store.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Len(t, imported, 3)
}

func TestImport_RejectsInvalidExpense(t *testing.T) {
	report := Report{
		Expenses: []ExpenseEntry{{ID: "bad", Description: "", Amount: 10, PaidBy: "alice", SplitType: models.SplitTypeEqual}},
	}

	_, err := Import(context.Background(), kv.NewMemory(), &report)
	assert.ErrorIs(t, err, models.ErrEmptyDescription)
}

func TestReadJSON_BrowserBackup(t *testing.T) {
	backup := `{
		"users": [{"id":"u1","name":"Ana","color":"#3B82F6"},{"id":"u2","name":"Ben","color":"#EF4444"}],
		"expenses": [
			{"id":"e1","description":"Pizza","amount":30,"paidBy":"u1","participants":[],"splitType":"equal","date":"2024-04-01T00:00:00Z","status":"pending"},
			{"id":"e2","description":"Tickets","amount":50,"paidBy":"u2","splitType":"custom","customSplits":{"u2":20,"u1":30},"date":"2024-04-02T00:00:00Z"}
		]
	}`

	report, err := ReadJSON(strings.NewReader(backup))
	require.NoError(t, err)
	require.Len(t, report.Expenses, 2)
	assert.Empty(t, report.Expenses[0].Splits)
	assert.Equal(t, []ShareEntry{{UserID: "u1", Amount: 30}, {UserID: "u2", Amount: 20}}, report.Expenses[1].Splits)

	ctx := context.Background()
	store := kv.NewMemory()
	result, err := Import(ctx, store, report)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Participants: 2, Created: 2}, result)

	pizza, err := store.GetExpense(ctx, "e1")
	require.NoError(t, err)
	assert.Empty(t, pizza.Participants)

	roster, err := store.ListParticipants(ctx)
	require.NoError(t, err)
	expenses, err := store.ListExpenses(ctx)
	require.NoError(t, err)
	balances := calculator.CalculateBalances(expenses, roster)
	assert.InDelta(t, -15.0, balances["u1"], models.Tolerance)
	assert.InDelta(t, 15.0, balances["u2"], models.Tolerance)
}
