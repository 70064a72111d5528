package http

import (
	"context"
	"net/http"
	"time"

	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/application/usecases/queries"
	"lastmile/internal/core/domain/model/actiontoken"
	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/finance"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/salary"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

type (
	createDriverHandler interface {
		Handle(ctx context.Context, cmd commands.CreateDriverCommand) error
	}
	deleteDriverHandler interface {
		Handle(ctx context.Context, cmd commands.DeleteDriverCommand) error
	}
	updateDriverLocationHandler interface {
		Handle(ctx context.Context, cmd commands.UpdateDriverLocationCommand) error
	}
	createRouteHandler interface {
		Handle(ctx context.Context, cmd commands.CreateRouteCommand) error
	}
	deleteRouteHandler interface {
		Handle(ctx context.Context, cmd commands.DeleteRouteCommand) error
	}
	completeRouteHandler interface {
		Handle(ctx context.Context, cmd commands.CompleteRouteCommand) (route.Snapshot, error)
	}
	finalizeRouteHandler interface {
		Handle(ctx context.Context, cmd commands.FinalizeRouteCommand) (commands.FinalizeRouteResult, error)
	}
	transitionPackageHandler interface {
		Handle(ctx context.Context, cmd commands.TransitionPackageCommand) (commands.PackageTransitionResult, error)
	}
	ledgerEntryHandler interface {
		HandleExpense(ctx context.Context, cmd commands.AddExpenseCommand) error
		HandleIncome(ctx context.Context, cmd commands.AddIncomeCommand) error
		HandleMileage(ctx context.Context, cmd commands.AddMileageCommand) error
	}
	createSalaryPaymentHandler interface {
		Handle(ctx context.Context, cmd commands.CreateSalaryPaymentCommand) error
	}
	confirmSalaryPaymentsHandler interface {
		Handle(ctx context.Context, cmd commands.ConfirmSalaryPaymentsCommand) ([]commands.PaymentResult, error)
	}
	issueActionTokenHandler interface {
		Handle(ctx context.Context, cmd commands.IssueActionTokenCommand) (actiontoken.Snapshot, error)
	}
	resolveActionTokenHandler interface {
		Handle(ctx context.Context, cmd commands.ResolveActionTokenCommand) (commands.ResolveResult, error)
	}

	getRouteHandler interface {
		Handle(ctx context.Context, query queries.GetRouteQuery) (queries.GetRouteQueryResponse, error)
	}
	getRouteSettlementHandler interface {
		Handle(ctx context.Context, query queries.GetRouteSettlementQuery) (queries.GetRouteSettlementQueryResponse, error)
	}
	getDriverLocationHandler interface {
		Handle(ctx context.Context, query queries.GetDriverLocationQuery) (ports.DriverLocation, error)
	}
	listSalaryPaymentsHandler interface {
		Handle(ctx context.Context, query queries.ListSalaryPaymentsQuery) ([]queries.SalaryPaymentView, error)
	}
	getFinancialReportHandler interface {
		Handle(ctx context.Context, query queries.GetFinancialReportQuery) (queries.GetFinancialReportQueryResponse, error)
	}
)

// Handlers are the use cases served under /api/v1. Every field is required.
type Handlers struct {
	// Command handlers
	CreateDriver          createDriverHandler
	DeleteDriver          deleteDriverHandler
	UpdateDriverLocation  updateDriverLocationHandler
	CreateRoute           createRouteHandler
	DeleteRoute           deleteRouteHandler
	CompleteRoute         completeRouteHandler
	FinalizeRoute         finalizeRouteHandler
	TransitionPackage     transitionPackageHandler
	LedgerEntries         ledgerEntryHandler
	CreateSalaryPayment   createSalaryPaymentHandler
	ConfirmSalaryPayments confirmSalaryPaymentsHandler
	IssueActionToken      issueActionTokenHandler
	ResolveActionToken    resolveActionTokenHandler

	// Query handlers
	GetRoute           getRouteHandler
	GetRouteSettlement getRouteSettlementHandler
	GetDriverLocation  getDriverLocationHandler
	ListSalaryPayments listSalaryPaymentsHandler
	GetFinancialReport getFinancialReportHandler
}

// Server translates HTTP requests into commands and queries.
type Server struct {
	h Handlers
	// strictCoordinates applies the service-area bounds to proof locations.
	strictCoordinates bool
}

func NewServer(h Handlers, strictCoordinates bool) *Server {
	return &Server{h: h, strictCoordinates: strictCoordinates}
}

func (s *Server) register(g *echo.Group) {
	g.POST("/drivers", s.CreateDriver)
	g.DELETE("/drivers/:driverId", s.DeleteDriver)
	g.PUT("/drivers/:driverId/location", s.UpdateDriverLocation)
	g.GET("/drivers/:driverId/location", s.GetDriverLocation)

	g.POST("/routes", s.CreateRoute)
	g.GET("/routes/:routeId", s.GetRoute)
	g.DELETE("/routes/:routeId", s.DeleteRoute)
	g.POST("/routes/:routeId/complete", s.CompleteRoute)
	g.POST("/routes/:routeId/finalize", s.FinalizeRoute)
	g.GET("/routes/:routeId/settlement", s.GetRouteSettlement)
	g.POST("/routes/:routeId/mileage", s.AddMileage)

	g.POST("/packages/:packageId/transition", s.TransitionPackage)

	g.POST("/expenses", s.AddExpense)
	g.POST("/incomes", s.AddIncome)

	g.GET("/salary-payments", s.ListSalaryPayments)
	g.POST("/salary-payments", s.CreateSalaryPayment)
	g.POST("/salary-payments/confirm", s.ConfirmSalaryPayments)

	g.POST("/tokens", s.IssueToken)
	g.POST("/tokens/:token/resolve", s.ResolveToken)

	g.GET("/reports/financial", s.GetFinancialReport)
}

// CreateDriver handles POST /api/v1/drivers.
func (s *Server) CreateDriver(c echo.Context) error {
	var req newDriverRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	role, err := kernel.ParseRole(req.Role)
	if err != nil {
		return err
	}
	rate := driver.PayRate{}
	if req.PayRate != nil {
		kind, kindErr := driver.ParseRateKind(req.PayRate.Kind)
		if kindErr != nil {
			return kindErr
		}
		if rate, err = driver.NewPayRate(kind, req.PayRate.Amount); err != nil {
			return err
		}
	}

	id := kernel.NewUUID()
	cmd, err := commands.NewCreateDriverCommand(id, req.ExternalID, req.DisplayName, role, rate, actorFrom(c))
	if err != nil {
		return err
	}
	if err = s.h.CreateDriver.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createdResponse{ID: id.String()})
}

// DeleteDriver handles DELETE /api/v1/drivers/{driverId}.
func (s *Server) DeleteDriver(c echo.Context) error {
	id, err := pathID(c, "driverId")
	if err != nil {
		return err
	}
	cmd, err := commands.NewDeleteDriverCommand(id, actorFrom(c))
	if err != nil {
		return err
	}
	if err = s.h.DeleteDriver.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateDriverLocation handles PUT /api/v1/drivers/{driverId}/location.
func (s *Server) UpdateDriverLocation(c echo.Context) error {
	id, err := pathID(c, "driverId")
	if err != nil {
		return err
	}
	var req locationFixRequest
	if err = bindBody(c, &req); err != nil {
		return err
	}
	cmd, err := commands.NewUpdateDriverLocationCommand(id, req.Lat, req.Lon, req.AccuracyM, actorFrom(c))
	if err != nil {
		return err
	}
	if err = s.h.UpdateDriverLocation.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetDriverLocation handles GET /api/v1/drivers/{driverId}/location.
func (s *Server) GetDriverLocation(c echo.Context) error {
	id, err := pathID(c, "driverId")
	if err != nil {
		return err
	}
	query, err := queries.NewGetDriverLocationQuery(id)
	if err != nil {
		return err
	}
	loc, err := s.h.GetDriverLocation.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, locationOf(loc))
}

// CreateRoute handles POST /api/v1/routes.
func (s *Server) CreateRoute(c echo.Context) error {
	var req newRouteRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	driverID, err := optionalKernelID("driver_id", req.DriverID)
	if err != nil {
		return err
	}
	packages := make([]commands.PackageInput, 0, len(req.Packages))
	for _, p := range req.Packages {
		packages = append(packages, commands.PackageInput{
			TrackingCode: p.TrackingCode,
			Address:      p.Address,
			Neighborhood: p.Neighborhood,
			Phone:        p.Phone,
			Lat:          p.Lat,
			Lon:          p.Lon,
		})
	}

	id := kernel.NewUUID()
	cmd, err := commands.NewCreateRouteCommand(id, req.Name, driverID, packages, actorFrom(c))
	if err != nil {
		return err
	}
	if err = s.h.CreateRoute.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createdResponse{ID: id.String()})
}

// GetRoute handles GET /api/v1/routes/{routeId}.
func (s *Server) GetRoute(c echo.Context) error {
	id, err := pathID(c, "routeId")
	if err != nil {
		return err
	}
	query, err := queries.NewGetRouteQuery(id)
	if err != nil {
		return err
	}
	resp, err := s.h.GetRoute.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, routeViewOf(resp))
}

// DeleteRoute handles DELETE /api/v1/routes/{routeId}.
func (s *Server) DeleteRoute(c echo.Context) error {
	id, err := pathID(c, "routeId")
	if err != nil {
		return err
	}
	cmd, err := commands.NewDeleteRouteCommand(id, actorFrom(c))
	if err != nil {
		return err
	}
	if err = s.h.DeleteRoute.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// CompleteRoute handles POST /api/v1/routes/{routeId}/complete.
func (s *Server) CompleteRoute(c echo.Context) error {
	id, err := pathID(c, "routeId")
	if err != nil {
		return err
	}
	cmd, err := commands.NewCompleteRouteCommand(id, actorFrom(c))
	if err != nil {
		return err
	}
	snapshot, err := s.h.CompleteRoute.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summaryOf(snapshot))
}

// FinalizeRoute handles POST /api/v1/routes/{routeId}/finalize.
func (s *Server) FinalizeRoute(c echo.Context) error {
	id, err := pathID(c, "routeId")
	if err != nil {
		return err
	}
	var req financialInputsRequest
	if err = bindBody(c, &req); err != nil {
		return err
	}
	cmd, err := commands.NewFinalizeRouteCommand(id, req.inputs(), actorFrom(c))
	if err != nil {
		return err
	}
	result, err := s.h.FinalizeRoute.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, finalizeResponse{
		Route:           summaryOf(result.Route),
		Settlement:      settlementOf(result.Settlement),
		SalaryPaymentID: idString(result.SalaryPaymentID),
	})
}

// GetRouteSettlement handles GET /api/v1/routes/{routeId}/settlement.
func (s *Server) GetRouteSettlement(c echo.Context) error {
	if err := actorFrom(c).RequireManager("view route settlement"); err != nil {
		return err
	}
	id, err := pathID(c, "routeId")
	if err != nil {
		return err
	}
	query, err := queries.NewGetRouteSettlementQuery(id)
	if err != nil {
		return err
	}
	resp, err := s.h.GetRouteSettlement.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, routeSettlementResponse{
		RouteID:    resp.RouteID.String(),
		Status:     resp.Status,
		Final:      resp.Final,
		Settlement: settlementOf(resp.Settlement),
	})
}

// AddMileage handles POST /api/v1/routes/{routeId}/mileage.
func (s *Server) AddMileage(c echo.Context) error {
	routeID, err := pathID(c, "routeId")
	if err != nil {
		return err
	}
	var req newMileageRequest
	if err = bindBody(c, &req); err != nil {
		return err
	}
	reading := commands.MileageReading{
		KmStart:  nullDecimal(req.KmStart),
		KmEnd:    nullDecimal(req.KmEnd),
		Distance: nullDecimal(req.Distance),
	}

	id := kernel.NewUUID()
	cmd, err := commands.NewAddMileageCommand(id, routeID, reading, kernelDate(req.RecordedOn), req.Notes, actorFrom(c))
	if err != nil {
		return err
	}
	if err = s.h.LedgerEntries.HandleMileage(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createdResponse{ID: id.String()})
}

// TransitionPackage handles POST /api/v1/packages/{packageId}/transition.
func (s *Server) TransitionPackage(c echo.Context) error {
	id, err := pathID(c, "packageId")
	if err != nil {
		return err
	}
	var req packageTransitionRequest
	if err = bindBody(c, &req); err != nil {
		return err
	}
	target, err := shipment.ParseStatus(req.Status)
	if err != nil {
		return err
	}
	proof, err := req.Proof.input(s.strictCoordinates)
	if err != nil {
		return err
	}
	cmd, err := commands.NewTransitionPackageCommand(id, target, proof, actorFrom(c))
	if err != nil {
		return err
	}
	result, err := s.h.TransitionPackage.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transitionOf(result))
}

// AddExpense handles POST /api/v1/expenses.
func (s *Server) AddExpense(c echo.Context) error {
	var req newLedgerEntryRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	routeID, err := optionalKernelID("route_id", req.RouteID)
	if err != nil {
		return err
	}
	category, err := finance.ParseExpenseCategory(req.Category)
	if err != nil {
		return err
	}

	id := kernel.NewUUID()
	cmd, err := commands.NewAddExpenseCommand(id, routeID, category, req.Amount, req.Description,
		kernelDate(req.OccurredOn), actorFrom(c))
	if err != nil {
		return err
	}
	if err = s.h.LedgerEntries.HandleExpense(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createdResponse{ID: id.String()})
}

// AddIncome handles POST /api/v1/incomes.
func (s *Server) AddIncome(c echo.Context) error {
	var req newLedgerEntryRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	routeID, err := optionalKernelID("route_id", req.RouteID)
	if err != nil {
		return err
	}
	category, err := finance.ParseIncomeCategory(req.Category)
	if err != nil {
		return err
	}

	id := kernel.NewUUID()
	cmd, err := commands.NewAddIncomeCommand(id, routeID, category, req.Amount, req.Description,
		kernelDate(req.OccurredOn), actorFrom(c))
	if err != nil {
		return err
	}
	if err = s.h.LedgerEntries.HandleIncome(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createdResponse{ID: id.String()})
}

// ListSalaryPayments handles GET /api/v1/salary-payments.
func (s *Server) ListSalaryPayments(c echo.Context) error {
	if err := actorFrom(c).RequireManager("list salary payments"); err != nil {
		return err
	}
	var (
		driverParam *openapi_types.UUID
		statusParam *[]string
	)
	if err := runtime.BindQueryParameter("form", true, false, "driver_id", c.QueryParams(), &driverParam); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("driver_id", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "status", c.QueryParams(), &statusParam); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("status", err)
	}
	driverID, err := optionalKernelID("driver_id", driverParam)
	if err != nil {
		return err
	}
	var statuses []salary.Status
	if statusParam != nil {
		for _, raw := range *statusParam {
			st, parseErr := salary.ParseStatus(raw)
			if parseErr != nil {
				return parseErr
			}
			statuses = append(statuses, st)
		}
	}

	query, err := queries.NewListSalaryPaymentsQuery(driverID, statuses...)
	if err != nil {
		return err
	}
	views, err := s.h.ListSalaryPayments.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, salaryPaymentsOf(views))
}

// CreateSalaryPayment handles POST /api/v1/salary-payments.
func (s *Server) CreateSalaryPayment(c echo.Context) error {
	var req newSalaryPaymentRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	driverID, err := kernelID("driver_id", req.DriverID)
	if err != nil {
		return err
	}
	routeID, err := optionalKernelID("route_id", req.RouteID)
	if err != nil {
		return err
	}

	id := kernel.NewUUID()
	cmd, err := commands.NewCreateSalaryPaymentCommand(id, driverID, routeID, req.Amount, kernelDate(req.DueDate),
		actorFrom(c))
	if err != nil {
		return err
	}
	if err = s.h.CreateSalaryPayment.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createdResponse{ID: id.String()})
}

// ConfirmSalaryPayments handles POST /api/v1/salary-payments/confirm.
func (s *Server) ConfirmSalaryPayments(c echo.Context) error {
	var req confirmSalaryPaymentsRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	ids, err := kernelIDs("payment_ids", req.PaymentIDs)
	if err != nil {
		return err
	}
	cmd, err := commands.NewConfirmSalaryPaymentsCommand(ids, actorFrom(c))
	if err != nil {
		return err
	}
	results, err := s.h.ConfirmSalaryPayments.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, paymentBatchOf(results))
}

// IssueToken handles POST /api/v1/tokens.
func (s *Server) IssueToken(c echo.Context) error {
	var req newTokenRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	kind, err := actiontoken.ParseKind(req.Kind)
	if err != nil {
		return err
	}
	targets, err := kernelIDs("target_ids", req.TargetIDs)
	if err != nil {
		return err
	}
	var ttl *time.Duration
	if req.TTLSeconds != nil {
		d := time.Duration(*req.TTLSeconds) * time.Second
		ttl = &d
	}

	cmd, err := commands.NewIssueActionTokenCommand(kind, targets, ttl, actorFrom(c))
	if err != nil {
		return err
	}
	snapshot, err := s.h.IssueActionToken.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	resp := tokenResponse{
		Token:     snapshot.Key,
		Kind:      string(snapshot.Kind),
		TargetIDs: make([]string, 0, len(snapshot.Targets)),
		ExpiresAt: snapshot.ExpiresAt,
	}
	for _, id := range snapshot.Targets {
		resp.TargetIDs = append(resp.TargetIDs, id.String())
	}
	return c.JSON(http.StatusCreated, resp)
}

// ResolveToken handles POST /api/v1/tokens/{token}/resolve.
func (s *Server) ResolveToken(c echo.Context) error {
	var key string
	if err := runtime.BindStyledParameterWithOptions("simple", "token", c.Param("token"), &key,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true}); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("token", err)
	}
	var req resolveTokenRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	proof, err := req.Proof.input(s.strictCoordinates)
	if err != nil {
		return err
	}
	cmd, err := commands.NewResolveActionTokenCommand(key, proof, actorFrom(c))
	if err != nil {
		return err
	}
	result, err := s.h.ResolveActionToken.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resolveBatchOf(result))
}

// GetFinancialReport handles GET /api/v1/reports/financial.
func (s *Server) GetFinancialReport(c echo.Context) error {
	if err := actorFrom(c).RequireManager("view financial report"); err != nil {
		return err
	}
	var from, to openapi_types.Date
	if err := runtime.BindQueryParameter("form", true, true, "from", c.QueryParams(), &from); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("from", err)
	}
	if err := runtime.BindQueryParameter("form", true, true, "to", c.QueryParams(), &to); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("to", err)
	}
	query, err := queries.NewGetFinancialReportQuery(kernelDate(from), kernelDate(to))
	if err != nil {
		return err
	}
	resp, err := s.h.GetFinancialReport.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reportOf(resp))
}

func pathID(c echo.Context, name string) (kernel.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return kernelID(name, id)
}

func bindBody(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("body", err)
	}
	return nil
}
