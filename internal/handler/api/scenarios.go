package api

import (
	"errors"
	"net/http"

	"SentiMatch/internal/domain/models"
	domrepo "SentiMatch/internal/domain/repository"
	"SentiMatch/internal/usecase"
	xhttp "SentiMatch/pkg/http"
	xlogger "SentiMatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScenariosHandler exposes sweep reports and ad-hoc scenario evaluation.
type ScenariosHandler struct {
	logger     *xlogger.Logger
	reports    *usecase.ReportsUseCase
	evaluateMW []echo.MiddlewareFunc
}

// NewScenariosHandler wraps POST /evaluate with evaluateMW, typically a rate limiter.
func NewScenariosHandler(logger *xlogger.Logger, reports *usecase.ReportsUseCase, evaluateMW ...echo.MiddlewareFunc) *ScenariosHandler {
	return &ScenariosHandler{logger: logger, reports: reports, evaluateMW: evaluateMW}
}

func (h *ScenariosHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/scenarios")
	g.GET("", h.List)
	g.GET("/:input/:output", h.Get)
	g.POST("/evaluate", h.Evaluate, h.evaluateMW...)
}

// List godoc: GET /api/scenarios?run_id=
func (h *ScenariosHandler) List(c echo.Context) error {
	req := &models.ScenarioListRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.reports.List(c.Request().Context(), req.RunID)
	if err != nil {
		return h.fail(c, "list scenarios", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

// Get godoc: GET /api/scenarios/:input/:output?run_id=&limit=&offset=
func (h *ScenariosHandler) Get(c echo.Context) error {
	req := &models.ScenarioDetailRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.reports.Get(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "get scenario", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Evaluate godoc: POST /api/scenarios/evaluate
func (h *ScenariosHandler) Evaluate(c echo.Context) error {
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.reports.Evaluate(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("evaluate usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("scenario inputs unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScenariosHandler) fail(c echo.Context, op string, err error) error {
	if errors.Is(err, domrepo.ErrNotFound) {
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("ERR_SCENARIO_NOT_FOUND", "", "no stored result for this run or scenario", http.StatusNotFound).WithError(err))
	}
	h.logger.Error(op+" usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}
