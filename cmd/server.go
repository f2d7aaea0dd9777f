package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang-backtest/internal/delivery/http"
	telegramDelivery "golang-backtest/internal/delivery/telegram"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/utils"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the HTTP API and the signal scheduler",
	Run:   Start,
}

func Start(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}

	services := appDep.NewServices(nil)
	httpHandler := http.NewHttpAPIHandler(ctx, appDep.echo, appDep.log, appDep.validator, services)

	if err := services.SchedulerService.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	var telegramHandler *telegramDelivery.TelegramBotHandler
	if appDep.bot != nil {
		telegramHandler = telegramDelivery.NewTelegramBotHandler(ctx, appDep.cfg, appDep.log, appDep.bot, appDep.echo, services)
		if err := telegramHandler.Start(); err != nil {
			log.Fatalf("Failed to start telegram bot: %v", err)
		}
	}

	apiServer := NewHTTPServer(appDep, httpHandler)
	utils.GoSafe(func() {
		if err := apiServer.Start(); err != nil {
			appDep.log.Error("HTTP server stopped unexpectedly", logger.ErrorField(err))
			stop()
		}
	})

	<-ctx.Done()
	appDep.log.Info("Shutting down gracefully...")

	<-services.SchedulerService.Stop().Done()

	if telegramHandler != nil {
		telegramHandler.Stop()
	}

	if err := apiServer.Stop(ctx); err != nil {
		appDep.log.Error("Failed to stop HTTP server", logger.ErrorField(err))
	}

	if err := appDep.Close(); err != nil {
		log.Fatalf("Failed to close app dependency: %v", err)
	}
}
