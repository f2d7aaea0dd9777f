package cmd

import (
	"context"
	"fmt"

	"golang-backtest/config"
	"golang-backtest/internal/optimizer"
	"golang-backtest/internal/repository"
	"golang-backtest/internal/service"
	"golang-backtest/pkg/cache"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/middleware"
	"golang-backtest/pkg/postgres"
	"golang-backtest/pkg/telegram"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/telebot.v3"
)

type AppDependency struct {
	db        *postgres.DB
	cfg       *config.Config
	log       *logger.Logger
	validator *goValidator.Validate
	echo      *echo.Echo
	cache     cache.Cache
	notifier  telegram.Notifier
	bot       *telebot.Bot
}

func NewAppDependency(ctx context.Context) (*AppDependency, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	var bot *telebot.Bot
	notifier := telegram.NewNopNotifier(log)
	if cfg.Telegram.Enabled() {
		bot, err = telegram.NewBot(&cfg.Telegram, log)
		if err != nil {
			log.Error("Failed to create telegram bot", zap.Error(err))
			return nil, err
		}
		notifier = telegram.NewNotifier(&cfg.Telegram, log, bot)
		log = log.WithAlert(notifier, zapcore.ErrorLevel)
	}

	db, err := postgres.NewDB(cfg.DB, log)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.WithRequestLogger(log))
	e.Use(middleware.NewRateLimiterMiddleware(cfg.API.RateLimit, cfg.API.RateBurst, "/health", "/api/telegram"))
	e.Use(middleware.WithTimeout(cfg.API.Timeout))

	return &AppDependency{
		cfg:       cfg,
		log:       log,
		validator: goValidator.New(),
		db:        db,
		echo:      e,
		cache:     cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
		notifier:  notifier,
		bot:       bot,
	}, nil
}

// NewServices wires repositories and services on top of the dependency.
func (d *AppDependency) NewServices(optimizerProgress func(optimizer.Progress)) *service.Service {
	repo := repository.NewRepository(d.cfg, d.db.DB, d.log)
	return service.NewService(d.cfg, d.log, repo, d.cache, d.notifier, optimizerProgress)
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	_ = d.log.Sync()
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
