package http

import (
	"context"
	"errors"
	"net/http"

	"golang-backtest/internal/dto"
	"golang-backtest/internal/service"
	"golang-backtest/internal/strategy"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/utils"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const asyncMessage = "Strategy will be executed, results will be sent"

type HttpAPIHandler struct {
	ctx       context.Context
	echo      *echo.Echo
	log       *logger.Logger
	validator *goValidator.Validate
	service   *service.Service
}

// NewHttpAPIHandler builds the API handler. Background work started by the
// async endpoints is bound to ctx.
func NewHttpAPIHandler(ctx context.Context, echo *echo.Echo, log *logger.Logger, validator *goValidator.Validate, service *service.Service) *HttpAPIHandler {
	return &HttpAPIHandler{
		ctx:       ctx,
		echo:      echo,
		log:       log,
		validator: validator,
		service:   service,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	h.echo.GET("/health", h.health)

	base := h.echo.Group("/api")
	h.SetupBacktest(base)
	h.SetupSignals(base)
	h.SetupOptimize(base)
	h.SetupMarketData(base)
	h.SetupJobs(base)
}

func (h *HttpAPIHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", nil))
}

// bind decodes and validates the request into req.
func (h *HttpAPIHandler) bind(c echo.Context, req interface{}) *dto.BaseResponse {
	if err := c.Bind(req); err != nil {
		return dto.NewBadRequestResponse("invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return dto.NewValidationErrorResponse(err)
	}
	return nil
}

// errorResponse maps caller errors to 400 and everything else to 500.
func errorResponse(err error) *dto.BaseResponse {
	var validationErrs goValidator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return dto.NewValidationErrorResponse(err)
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrEmptyUniverse),
		errors.Is(err, strategy.ErrInvalidParameters):
		return dto.NewBadRequestResponse(err.Error())
	default:
		return dto.NewInternalErrorResponse(err.Error())
	}
}

// runAsync answers 202 and continues fn in background.
func (h *HttpAPIHandler) runAsync(c echo.Context, name string, fn func(ctx context.Context) error) error {
	ctx := h.ctx
	h.log.InfoContext(ctx, "Accepted background request", logger.StringField("request", name))
	utils.GoSafe(func() {
		if err := fn(ctx); err != nil {
			h.log.ErrorContextWithAlert(ctx, "Background request failed", logger.ErrorField(err), logger.StringField("request", name))
		}
	})
	return c.JSON(http.StatusAccepted, dto.NewAcceptedResponse(asyncMessage))
}
