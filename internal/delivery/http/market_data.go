package http

import (
	"context"
	"net/http"

	"golang-backtest/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupMarketData(base *echo.Group) {
	dataGroup := base.Group("/data")
	dataGroup.POST("/update", h.updateData)
	dataGroup.GET("/check", h.checkHistory)
}

func (h *HttpAPIHandler) updateData(c echo.Context) error {
	req := new(dto.UpdateDataRequest)
	if resp := h.bind(c, req); resp != nil {
		return c.JSON(resp.Code, resp)
	}

	return h.runAsync(c, "update data", func(ctx context.Context) error {
		marketData := h.service.MarketDataService
		var tickers []string
		if len(req.Tickers) > 0 || req.RankEnd > 0 {
			universe, err := marketData.ResolveUniverse(ctx, req.UniverseRequest)
			if err != nil {
				return err
			}
			tickers = universe
		}

		if _, err := marketData.UpdateHistory(ctx, tickers); err != nil {
			return err
		}
		if !req.Earnings {
			return nil
		}
		_, err := marketData.UpdateEarnings(ctx, tickers)
		return err
	})
}

func (h *HttpAPIHandler) checkHistory(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.UniverseRequest)
	if resp := h.bind(c, req); resp != nil {
		return c.JSON(resp.Code, resp)
	}

	report, err := h.service.MarketDataService.CheckHistory(ctx, req.Tickers)
	if err != nil {
		resp := errorResponse(err)
		return c.JSON(resp.Code, resp)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("History checked", report))
}
