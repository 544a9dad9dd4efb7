package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ServiceName    = "alpaca-mcp-server"
	ServiceVersion = "0.1.0"
)

var (
	Env *EnvConfig
)

var (
	ErrMissingCredentials = errors.New("alpaca api key and secret key are required")
)

const (
	PaperTradeAPIURL     = "https://paper-api.alpaca.markets"
	LiveTradeAPIURL      = "https://api.alpaca.markets"
	DefaultDataAPIURL    = "https://data.alpaca.markets"
	DefaultStreamDataWSS = "wss://stream.data.alpaca.markets"
)

type EnvConfig struct {
	Env                     string                    `mapstructure:"env"`
	Log                     LogConfig                 `mapstructure:"log"`
	GracefulShutdownTimeout time.Duration             `mapstructure:"graceful_shutdown_timeout"`
	APIKeys                 []APIKeyConfig            `mapstructure:"api_keys"`
	Port                    map[string]string         `mapstructure:"port"`
	Alpaca                  AlpacaConfig              `mapstructure:"alpaca"`
	Database                map[string]DatabaseConfig `mapstructure:"database"`
	Redis                   map[string]RedisConfig    `mapstructure:"redis"`
	NatsJetstream           NatsJetstreamConfig       `mapstructure:"nats_jetstream"`
	OrderJournal            OrderJournalConfig        `mapstructure:"order_journal"`
	OrderThrottle           OrderThrottleConfig       `mapstructure:"order_throttle"`
	HTTPRateLimit           HTTPRateLimitConfig       `mapstructure:"http_rate_limit"`
}

type AlpacaConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	APISecret      string        `mapstructure:"api_secret"`
	Paper          bool          `mapstructure:"paper"`
	TradeAPIURL    string        `mapstructure:"trade_api_url"`
	DataAPIURL     string        `mapstructure:"data_api_url"`
	StreamDataWSS  string        `mapstructure:"stream_data_wss"`
	OptionsFeed    string        `mapstructure:"options_feed"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Validate fails when the credentials needed by every broker call are absent.
func (c AlpacaConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" || strings.TrimSpace(c.APISecret) == "" {
		return ErrMissingCredentials
	}

	return nil
}

func (c AlpacaConfig) ResolveTradeAPIURL() string {
	if url := strings.TrimSpace(c.TradeAPIURL); url != "" {
		return strings.TrimRight(url, "/")
	}

	if c.Paper {
		return PaperTradeAPIURL
	}

	return LiveTradeAPIURL
}

func (c AlpacaConfig) ResolveDataAPIURL() string {
	if url := strings.TrimSpace(c.DataAPIURL); url != "" {
		return strings.TrimRight(url, "/")
	}

	return DefaultDataAPIURL
}

func (c AlpacaConfig) ResolveStreamDataWSS() string {
	if url := strings.TrimSpace(c.StreamDataWSS); url != "" {
		return strings.TrimRight(url, "/")
	}

	return DefaultStreamDataWSS
}

type OrderJournalConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	BufferSize   int           `mapstructure:"buffer_size"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
	Publish      bool          `mapstructure:"publish"`
}

type OrderThrottleConfig struct {
	MaxOrders int           `mapstructure:"max_orders"`
	Window    time.Duration `mapstructure:"window"`
}

// HTTPRateLimitConfig limits gateway requests per client address. Zero disables it.
type HTTPRateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type APIKeyConfig struct {
	Name      string `mapstructure:"name"`
	Key       string `mapstructure:"key"`
	Active    bool   `mapstructure:"active"`
	ExpiredAt any    `mapstructure:"expired_at"`
}

type NatsJetstreamConfig struct {
	URL             string                   `mapstructure:"url"`
	MaxRetries      int                      `mapstructure:"max_retries"`
	ReconnectFactor float64                  `mapstructure:"reconnect_factor"`
	MinJitter       time.Duration            `mapstructure:"min_jitter"`
	MaxJitter       time.Duration            `mapstructure:"max_jitter"`
	TimeoutHandler  map[string]time.Duration `mapstructure:"timeout_handler"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	ReconnectFactor float64       `mapstructure:"reconnect_factor"`
	MinJitter       time.Duration `mapstructure:"min_jitter"`
	MaxJitter       time.Duration `mapstructure:"max_jitter"`
	MaxRetry        int           `mapstructure:"max_retry"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxActiveConns  int           `mapstructure:"max_active_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type LogConfig struct {
	ShowCaller bool   `mapstructure:"show_caller"`
	LogLevel   string `mapstructure:"log_level"`
}

type RedisConfig struct {
	CacheDSN string `mapstructure:"cache_dsn"`
}

// LoadConfig reads the optional config file and overlays the environment.
// A missing default config.yml is not an error, so the server can run from
// environment variables alone.
func LoadConfig(configPath string) error {
	viper.Reset()

	configPath = strings.TrimSpace(configPath)
	if configPath == "" {
		viper.SetConfigName("config")
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
	} else {
		ext := strings.ToLower(filepath.Ext(configPath))
		if ext == ".yml" || ext == ".yaml" {
			viper.SetConfigFile(configPath)
		} else {
			viper.SetConfigName(filepath.Base(configPath))
			viper.SetConfigType("yml")
			configDir := filepath.Dir(configPath)
			if configDir == "." || configDir == "" {
				viper.AddConfigPath(".")
			} else {
				viper.AddConfigPath(configDir)
			}
		}
	}

	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	setDefaults()
	if err := bindEnvAliases(); err != nil {
		return fmt.Errorf("failed to bind environment: %w", err)
	}

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	err = viper.Unmarshal(&Env)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("env", "development")
	viper.SetDefault("log.log_level", "info")
	viper.SetDefault("graceful_shutdown_timeout", 10*time.Second)
	viper.SetDefault("alpaca.api_key", "")
	viper.SetDefault("alpaca.api_secret", "")
	viper.SetDefault("alpaca.paper", true)
	viper.SetDefault("alpaca.trade_api_url", "")
	viper.SetDefault("alpaca.data_api_url", "")
	viper.SetDefault("alpaca.stream_data_wss", "")
	viper.SetDefault("alpaca.options_feed", "")
	viper.SetDefault("alpaca.request_timeout", 15*time.Second)
	viper.SetDefault("order_journal.enabled", false)
	viper.SetDefault("order_journal.buffer_size", 256)
	viper.SetDefault("order_journal.write_timeout", 5*time.Second)
	viper.SetDefault("order_journal.sync_interval", 30*time.Second)
	viper.SetDefault("order_throttle.max_orders", 0)
	viper.SetDefault("order_throttle.window", time.Minute)
}

// bindEnvAliases keeps the variable names operators already export for the
// Alpaca tooling working alongside the ALPACA_* keys derived from the config.
func bindEnvAliases() error {
	aliases := map[string][]string{
		"alpaca.api_key":         {"ALPACA_API_KEY"},
		"alpaca.api_secret":      {"ALPACA_SECRET_KEY", "ALPACA_API_SECRET"},
		"alpaca.paper":           {"PAPER", "ALPACA_PAPER"},
		"alpaca.trade_api_url":   {"trade_api_url", "TRADE_API_URL"},
		"alpaca.data_api_url":    {"data_api_url", "DATA_API_URL"},
		"alpaca.stream_data_wss": {"stream_data_wss", "STREAM_DATA_WSS"},
	}

	for key, envs := range aliases {
		input := append([]string{key}, envs...)
		if err := viper.BindEnv(input...); err != nil {
			return err
		}
	}

	return nil
}
