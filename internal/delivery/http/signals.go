package http

import (
	"context"
	"net/http"

	"golang-backtest/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupSignals(base *echo.Group) {
	signalGroup := base.Group("/signals")
	signalGroup.GET("", h.getTodaySignals)
	signalGroup.POST("/send", h.sendTodaySignals)
}

func (h *HttpAPIHandler) getTodaySignals(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.SignalRequest)
	if resp := h.bind(c, req); resp != nil {
		return c.JSON(resp.Code, resp)
	}

	result, err := h.service.SignalService.GetTodaySignals(ctx, *req)
	if err != nil {
		resp := errorResponse(err)
		return c.JSON(resp.Code, resp)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Today signals", result))
}

func (h *HttpAPIHandler) sendTodaySignals(c echo.Context) error {
	req := new(dto.SignalRequest)
	if resp := h.bind(c, req); resp != nil {
		return c.JSON(resp.Code, resp)
	}

	return h.runAsync(c, "signals "+req.Strategy, func(ctx context.Context) error {
		_, err := h.service.SignalService.SendTodaySignals(ctx, *req)
		return err
	})
}
