package config

import (
	"fmt"
	"strings"
	"time"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log          Logger         `mapstructure:"logger"`
	DB           Database       `mapstructure:"database"`
	API          API            `mapstructure:"api"`
	Cache        Cache          `mapstructure:"cache"`
	YahooFinance YahooFinance   `mapstructure:"yahoo_finance"`
	MarketData   MarketData     `mapstructure:"market_data"`
	Backtest     Backtest       `mapstructure:"backtest"`
	Simulation   Simulation     `mapstructure:"simulation"`
	Optimizer    Optimizer      `mapstructure:"optimizer"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
	Scheduler    Scheduler      `mapstructure:"scheduler"`
}

type Logger struct {
	Level    string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Encoding string `mapstructure:"encoding" validate:"required,oneof=json console"`
}

type Database struct {
	Host            string `mapstructure:"host" validate:"required"`
	Port            int    `mapstructure:"port" validate:"required,gt=0"`
	User            string `mapstructure:"user" validate:"required"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name" validate:"required"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port      int           `mapstructure:"port" validate:"required,gt=0"`
	RateLimit float64       `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst int           `mapstructure:"rate_burst" validate:"gte=0"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type YahooFinance struct {
	BaseURL             string        `mapstructure:"base_url" validate:"required,url"`
	QuoteSummaryURL     string        `mapstructure:"quote_summary_url" validate:"required,url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute" validate:"gt=0"`
}

type MarketData struct {
	StartDate         string `mapstructure:"start_date" validate:"required,datetime=2006-01-02"`
	FreshLookbackDays int    `mapstructure:"fresh_lookback_days" validate:"gt=0"`
	MaxConcurrency    int    `mapstructure:"max_concurrency" validate:"gt=0"`
}

type Backtest struct {
	Workers                int     `mapstructure:"workers" validate:"gte=0"`
	PriceFloor             float64 `mapstructure:"price_floor" validate:"gte=0"`
	VolumeFloor            int64   `mapstructure:"volume_floor" validate:"gte=0"`
	MaxAbsWinPercent       float64 `mapstructure:"max_abs_win_percent" validate:"gt=0"`
	MinWeekPreviousEntries int     `mapstructure:"min_week_previous_entries" validate:"gte=0,lte=4"`
	SamplesPerInstrument   int     `mapstructure:"samples_per_instrument" validate:"gte=0"`
	SampleSeed             int64   `mapstructure:"sample_seed"`
}

type Simulation struct {
	TotalAmount    float64 `mapstructure:"total_amount" validate:"gt=0"`
	TransactionMin float64 `mapstructure:"transaction_min" validate:"gte=0"`
	TransactionMax float64 `mapstructure:"transaction_max" validate:"gtefield=TransactionMin"`
	MaxTradesByDay int     `mapstructure:"max_trades_by_day" validate:"gt=0"`
	Fee            float64 `mapstructure:"fee" validate:"gte=0"`
}

type Optimizer struct {
	Workers   int    `mapstructure:"workers" validate:"gte=0"`
	Objective string `mapstructure:"objective" validate:"oneof=mean_win win_rate wealth"`
	RankStart int    `mapstructure:"rank_start" validate:"gte=0"`
	RankEnd   int    `mapstructure:"rank_end" validate:"gtefield=RankStart"`
}

type TelegramConfig struct {
	BotToken                  string        `mapstructure:"bot_token"`
	ChatID                    int64         `mapstructure:"chat_id"`
	Timeout                   time.Duration `mapstructure:"timeout"`
	MaxGlobalRequestPerSecond int           `mapstructure:"max_global_request_per_second" validate:"gt=0"`

	// WebhookURL enables the bot commands when set.
	WebhookURL string `mapstructure:"webhook_url" validate:"omitempty,url"`
}

// Enabled reports whether notifications can be delivered.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != 0
}

type Scheduler struct {
	TimeZone string         `mapstructure:"time_zone"`
	Jobs     []SchedulerJob `mapstructure:"jobs" validate:"dive"`
}

// SchedulerJob is a live signal job triggered on a cron expression.
type SchedulerJob struct {
	Name                   string `mapstructure:"name" json:"name" validate:"required"`
	Strategy               string `mapstructure:"strategy" json:"strategy" validate:"required,oneof=macd recovery record reverse earnings"`
	Cron                   string `mapstructure:"cron" json:"cron" validate:"required"`
	RankStart              int    `mapstructure:"rank_start" json:"rank_start" validate:"gte=0"`
	RankEnd                int    `mapstructure:"rank_end" json:"rank_end" validate:"gtefield=RankStart"`
	DaysToNextResult       int    `mapstructure:"days_to_next_result" json:"days_to_next_result" validate:"gte=0"`
	DaysSinceLastResult    int    `mapstructure:"days_since_last_result" json:"days_since_last_result" validate:"gte=0"`
	MinWeekPreviousEntries int    `mapstructure:"min_week_previous_entries" json:"min_week_previous_entries" validate:"gte=0,lte=4"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "backtest")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.log_level", "Warn")

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.rate_limit", 10)
	v.SetDefault("api.rate_burst", 20)
	v.SetDefault("api.timeout", 5*time.Minute)

	v.SetDefault("cache.default_expiration", 6*time.Hour)
	v.SetDefault("cache.cleanup_interval", time.Hour)

	v.SetDefault("yahoo_finance.base_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("yahoo_finance.quote_summary_url", "https://query2.finance.yahoo.com/v10/finance/quoteSummary")
	v.SetDefault("yahoo_finance.timeout", 30*time.Second)
	v.SetDefault("yahoo_finance.max_request_per_minute", 120)

	v.SetDefault("market_data.start_date", "2010-01-01")
	v.SetDefault("market_data.fresh_lookback_days", 400)
	v.SetDefault("market_data.max_concurrency", 4)

	v.SetDefault("backtest.price_floor", 2)
	v.SetDefault("backtest.volume_floor", 100000)
	v.SetDefault("backtest.max_abs_win_percent", 50)
	v.SetDefault("backtest.min_week_previous_entries", 1)

	v.SetDefault("simulation.total_amount", 30000)
	v.SetDefault("simulation.transaction_min", 1800)
	v.SetDefault("simulation.transaction_max", 2500)
	v.SetDefault("simulation.max_trades_by_day", 3)
	v.SetDefault("simulation.fee", 2)

	v.SetDefault("optimizer.objective", "mean_win")
	v.SetDefault("optimizer.rank_end", 500)

	v.SetDefault("telegram.timeout", 10*time.Second)
	v.SetDefault("telegram.max_global_request_per_second", 25)

	v.SetDefault("scheduler.time_zone", "America/New_York")
}

// Load reads config.yaml from the working directory, or from path when set,
// and overlays environment variables (database.host -> DATABASE_HOST).
func Load(path ...string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if len(path) > 0 && path[0] != "" {
		v.SetConfigFile(path[0])
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if len(path) > 0 && path[0] != "" {
			return nil, fmt.Errorf("failed to read config %s: %w", path[0], err)
		}
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags of every section.
func (c *Config) Validate() error {
	if err := goValidator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
