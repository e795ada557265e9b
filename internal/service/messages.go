package service

import (
	"github.com/mmynk/splitbook/internal/export"
	"github.com/mmynk/splitbook/internal/models"
)

type ListParticipantsRequest struct{}

type ListParticipantsResponse struct {
	Participants []models.Participant `json:"participants"`
}

type SaveParticipantRequest struct {
	Participant models.Participant `json:"participant"`
}

type SaveParticipantResponse struct {
	Participant models.Participant `json:"participant"`
}

type DeleteParticipantRequest struct {
	ID string `json:"id"`
}

type DeleteParticipantResponse struct{}

type ListExpensesRequest struct {
	// Status filters the list when set.
	Status models.Status `json:"status,omitempty"`
}

type ListExpensesResponse struct {
	Expenses []models.Expense `json:"expenses"`
}

type CreateExpenseRequest struct {
	Expense models.Expense `json:"expense"`
}

type CreateExpenseResponse struct {
	Expense models.Expense `json:"expense"`
}

type UpdateExpenseRequest struct {
	Expense models.Expense `json:"expense"`
}

type UpdateExpenseResponse struct {
	Expense models.Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ID string `json:"id"`
}

type DeleteExpenseResponse struct{}

type SetExpenseStatusRequest struct {
	ID     string        `json:"id"`
	Status models.Status `json:"status"`
}

type SetExpenseStatusResponse struct {
	Expense models.Expense `json:"expense"`
}

type SettleAllRequest struct{}

type SettleAllResponse struct {
	Settled int `json:"settled"`
}

type GetBalancesRequest struct{}

// MemberSummary is a member balance with the display fields of the participant.
type MemberSummary struct {
	models.MemberBalance
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type GetBalancesResponse struct {
	Members     []MemberSummary     `json:"members"`
	Settlements []models.Settlement `json:"settlements"`
	SettledUp   bool                `json:"settledUp"`

	// UnknownParticipants lists ids referenced by pending expenses that are
	// no longer on the roster.
	UnknownParticipants []string `json:"unknownParticipants,omitempty"`
}

type ExportReportRequest struct{}

type ExportReportResponse struct {
	Report export.Report `json:"report"`
}
