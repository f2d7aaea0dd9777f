package cmd

import (
	"context"
	"errors"
	"fmt"
	httpNet "net/http"
	"time"

	"golang-backtest/internal/delivery/http"
	"golang-backtest/pkg/logger"

	"github.com/labstack/echo/v4"
)

const httpShutdownTimeout = 10 * time.Second

type HTTPServer struct {
	log     *logger.Logger
	echo    *echo.Echo
	port    int
	handler *http.HttpAPIHandler
}

func NewHTTPServer(appDep *AppDependency, handler *http.HttpAPIHandler) *HTTPServer {
	return &HTTPServer{
		log:     appDep.log,
		echo:    appDep.echo,
		port:    appDep.cfg.API.Port,
		handler: handler,
	}
}

// Start registers the routes and blocks serving until Stop.
func (s *HTTPServer) Start() error {
	s.handler.SetupRoutes()

	s.log.Info("Starting HTTP server", logger.IntField("port", s.port))
	if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && !errors.Is(err, httpNet.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	s.log.Info("HTTP server stopped successfully")
	return nil
}
