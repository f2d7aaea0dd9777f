package http

import (
	"context"
	"net/http"

	"golang-backtest/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupBacktest(base *echo.Group) {
	backtestGroup := base.Group("/backtest")
	backtestGroup.POST("", h.runBacktest)
}

func (h *HttpAPIHandler) SetupOptimize(base *echo.Group) {
	optimizeGroup := base.Group("/optimize")
	optimizeGroup.POST("", h.runOptimize)
}

func (h *HttpAPIHandler) runBacktest(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.BacktestRequest)
	if resp := h.bind(c, req); resp != nil {
		return c.JSON(resp.Code, resp)
	}

	result, err := h.service.BacktestService.RunBacktest(ctx, *req)
	if err != nil {
		resp := errorResponse(err)
		return c.JSON(resp.Code, resp)
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Backtest completed", result))
}

func (h *HttpAPIHandler) runOptimize(c echo.Context) error {
	req := new(dto.OptimizeRequest)
	if resp := h.bind(c, req); resp != nil {
		return c.JSON(resp.Code, resp)
	}

	// hasil dikirim lewat telegram
	return h.runAsync(c, "optimize "+req.Strategy, func(ctx context.Context) error {
		_, err := h.service.OptimizerService.Optimize(ctx, *req)
		return err
	})
}
