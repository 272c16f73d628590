package http

import (
	"errors"
	"net/http"
	"strconv"

	"abyss-screener/internal/dto"
	"abyss-screener/internal/strategy"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func (h *HttpAPIHandler) SetupBacktest(base *echo.Group) {
	backtestGroup := base.Group("/backtest")
	backtestGroup.POST("", h.runBacktest)
	backtestGroup.GET("/runs", h.listBacktestRuns)
	backtestGroup.GET("/runs/:id", h.getBacktestRun)
	backtestGroup.GET("/runs/:id/chart", h.getBacktestRunChart)
}

func (h *HttpAPIHandler) runBacktest(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.BacktestRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := h.service.BacktestService.RunBacktest(ctx, *req)
	if err != nil {
		if errors.Is(err, strategy.ErrBacktestAlreadyRunning) {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to run backtest"})
	}

	return c.JSON(http.StatusOK, result)
}

func (h *HttpAPIHandler) listBacktestRuns(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = 20
	}

	runs, err := h.service.BacktestService.GetRuns(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get backtest runs"})
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", runs))
}

func (h *HttpAPIHandler) getBacktestRun(c echo.Context) error {
	ctx := c.Request().Context()

	run, outcomes, err := h.service.BacktestService.GetRunReport(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "backtest run not found"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", map[string]interface{}{
		"run":      run,
		"outcomes": outcomes,
	}))
}

// getBacktestRunChart serves the rendered chart of a finished run as HTML.
func (h *HttpAPIHandler) getBacktestRunChart(c echo.Context) error {
	ctx := c.Request().Context()

	run, err := h.service.BacktestService.GetRun(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "backtest run not found"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if !run.ReportPath.Valid || run.ReportPath.String == "" {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no chart stored for this run"})
	}

	return c.File(run.ReportPath.String)
}
