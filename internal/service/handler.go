package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// LedgerServiceName is the fully-qualified name of the ledger service.
const LedgerServiceName = "splitbook.v1.LedgerService"

// Procedure paths served by NewLedgerServiceHandler.
const (
	ListParticipantsProcedure  = "/" + LedgerServiceName + "/ListParticipants"
	SaveParticipantProcedure   = "/" + LedgerServiceName + "/SaveParticipant"
	DeleteParticipantProcedure = "/" + LedgerServiceName + "/DeleteParticipant"
	ListExpensesProcedure      = "/" + LedgerServiceName + "/ListExpenses"
	CreateExpenseProcedure     = "/" + LedgerServiceName + "/CreateExpense"
	UpdateExpenseProcedure     = "/" + LedgerServiceName + "/UpdateExpense"
	DeleteExpenseProcedure     = "/" + LedgerServiceName + "/DeleteExpense"
	SetExpenseStatusProcedure  = "/" + LedgerServiceName + "/SetExpenseStatus"
	SettleAllProcedure         = "/" + LedgerServiceName + "/SettleAll"
	GetBalancesProcedure       = "/" + LedgerServiceName + "/GetBalances"
	ExportReportProcedure      = "/" + LedgerServiceName + "/ExportReport"
)

// NewLedgerServiceHandler builds an HTTP handler for every LedgerService
// procedure. It returns the path prefix to mount the handler on.
func NewLedgerServiceHandler(svc *LedgerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ListParticipantsProcedure, connect.NewUnaryHandler(ListParticipantsProcedure, svc.ListParticipants, opts...))
	mux.Handle(SaveParticipantProcedure, connect.NewUnaryHandler(SaveParticipantProcedure, svc.SaveParticipant, opts...))
	mux.Handle(DeleteParticipantProcedure, connect.NewUnaryHandler(DeleteParticipantProcedure, svc.DeleteParticipant, opts...))
	mux.Handle(ListExpensesProcedure, connect.NewUnaryHandler(ListExpensesProcedure, svc.ListExpenses, opts...))
	mux.Handle(CreateExpenseProcedure, connect.NewUnaryHandler(CreateExpenseProcedure, svc.CreateExpense, opts...))
	mux.Handle(UpdateExpenseProcedure, connect.NewUnaryHandler(UpdateExpenseProcedure, svc.UpdateExpense, opts...))
	mux.Handle(DeleteExpenseProcedure, connect.NewUnaryHandler(DeleteExpenseProcedure, svc.DeleteExpense, opts...))
	mux.Handle(SetExpenseStatusProcedure, connect.NewUnaryHandler(SetExpenseStatusProcedure, svc.SetExpenseStatus, opts...))
	mux.Handle(SettleAllProcedure, connect.NewUnaryHandler(SettleAllProcedure, svc.SettleAll, opts...))
	mux.Handle(GetBalancesProcedure, connect.NewUnaryHandler(GetBalancesProcedure, svc.GetBalances, opts...))
	mux.Handle(ExportReportProcedure, connect.NewUnaryHandler(ExportReportProcedure, svc.ExportReport, opts...))

	return "/" + LedgerServiceName + "/", mux
}

// IsProcedurePath reports whether path belongs to the ledger service.
func IsProcedurePath(path string) bool {
	return strings.HasPrefix(path, "/"+LedgerServiceName+"/")
}

// LedgerServiceClient calls a LedgerService over HTTP.
type LedgerServiceClient struct {
	listParticipants  *connect.Client[ListParticipantsRequest, ListParticipantsResponse]
	saveParticipant   *connect.Client[SaveParticipantRequest, SaveParticipantResponse]
	deleteParticipant *connect.Client[DeleteParticipantRequest, DeleteParticipantResponse]
	listExpenses      *connect.Client[ListExpensesRequest, ListExpensesResponse]
	createExpense     *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	updateExpense     *connect.Client[UpdateExpenseRequest, UpdateExpenseResponse]
	deleteExpense     *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	setExpenseStatus  *connect.Client[SetExpenseStatusRequest, SetExpenseStatusResponse]
	settleAll         *connect.Client[SettleAllRequest, SettleAllResponse]
	getBalances       *connect.Client[GetBalancesRequest, GetBalancesResponse]
	exportReport      *connect.Client[ExportReportRequest, ExportReportResponse]
}

// NewLedgerServiceClient constructs a client for the service at baseURL
// (e.g. http://localhost:8080).
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &LedgerServiceClient{
		listParticipants:  connect.NewClient[ListParticipantsRequest, ListParticipantsResponse](httpClient, baseURL+ListParticipantsProcedure, opts...),
		saveParticipant:   connect.NewClient[SaveParticipantRequest, SaveParticipantResponse](httpClient, baseURL+SaveParticipantProcedure, opts...),
		deleteParticipant: connect.NewClient[DeleteParticipantRequest, DeleteParticipantResponse](httpClient, baseURL+DeleteParticipantProcedure, opts...),
		listExpenses:      connect.NewClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL+ListExpensesProcedure, opts...),
		createExpense:     connect.NewClient[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL+CreateExpenseProcedure, opts...),
		updateExpense:     connect.NewClient[UpdateExpenseRequest, UpdateExpenseResponse](httpClient, baseURL+UpdateExpenseProcedure, opts...),
		deleteExpense:     connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+DeleteExpenseProcedure, opts...),
		setExpenseStatus:  connect.NewClient[SetExpenseStatusRequest, SetExpenseStatusResponse](httpClient, baseURL+SetExpenseStatusProcedure, opts...),
		settleAll:         connect.NewClient[SettleAllRequest, SettleAllResponse](httpClient, baseURL+SettleAllProcedure, opts...),
		getBalances:       connect.NewClient[GetBalancesRequest, GetBalancesResponse](httpClient, baseURL+GetBalancesProcedure, opts...),
		exportReport:      connect.NewClient[ExportReportRequest, ExportReportResponse](httpClient, baseURL+ExportReportProcedure, opts...),
	}
}

func (c *LedgerServiceClient) ListParticipants(ctx context.Context, req *connect.Request[ListParticipantsRequest]) (*connect.Response[ListParticipantsResponse], error) {
	return c.listParticipants.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) SaveParticipant(ctx context.Context, req *connect.Request[SaveParticipantRequest]) (*connect.Response[SaveParticipantResponse], error) {
	return c.saveParticipant.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) DeleteParticipant(ctx context.Context, req *connect.Request[DeleteParticipantRequest]) (*connect.Response[DeleteParticipantResponse], error) {
	return c.deleteParticipant.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) SetExpenseStatus(ctx context.Context, req *connect.Request[SetExpenseStatusRequest]) (*connect.Response[SetExpenseStatusResponse], error) {
	return c.setExpenseStatus.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) SettleAll(ctx context.Context, req *connect.Request[SettleAllRequest]) (*connect.Response[SettleAllResponse], error) {
	return c.settleAll.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ExportReport(ctx context.Context, req *connect.Request[ExportReportRequest]) (*connect.Response[ExportReportResponse], error) {
	return c.exportReport.CallUnary(ctx, req)
}
