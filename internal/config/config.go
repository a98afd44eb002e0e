package config

import (
	"strings"

	"github.com/AceKusamaDev/solbotrader2/internal/models"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Jupiter  Jupiter  `mapstructure:"jupiter"`
	Solana   Solana   `mapstructure:"solana"`
	Oracle   Oracle   `mapstructure:"oracle"`
	Trading  Trading  `mapstructure:"trading"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// Jupiter holds the configuration for the Jupiter swap-routing API.
type Jupiter struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Solana holds the configuration for the blockchain RPC endpoint and the
// local signing key.
type Solana struct {
	RPCEndpoint        string `mapstructure:"rpc_endpoint"`
	Commitment         string `mapstructure:"commitment"`
	PrivateKey         string `mapstructure:"private_key"`    // base64-encoded ed25519 keypair, optional
	WalletAddress      string `mapstructure:"wallet_address"` // base58 public key of the signer
	ConfirmPollSeconds int    `mapstructure:"confirm_poll_seconds"`
}

// Oracle holds the configuration for the price feed.
type Oracle struct {
	BaseURL        string  `mapstructure:"base_url"`
	APIKey         string  `mapstructure:"api_key"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Trading holds the configuration for the trading strategy.
type Trading struct {
	Strategy               string  `mapstructure:"strategy"`
	Amount                 float64 `mapstructure:"amount"`
	Pair                   string  `mapstructure:"pair"`
	StopLossPercent        float64 `mapstructure:"stop_loss_percent"`
	TakeProfitPercent      float64 `mapstructure:"take_profit_percent"`
	MaxRuns                int     `mapstructure:"max_runs"`
	RunIntervalMinutes     int     `mapstructure:"run_interval_minutes"`
	CompoundCapital        bool    `mapstructure:"compound_capital"`
	TestMode               bool    `mapstructure:"test_mode"`
	Action                 string  `mapstructure:"action"`
	SlippagePercent        float64 `mapstructure:"slippage_percent"`
	HistoryLimit           int     `mapstructure:"history_limit"`
	MaxConsecutiveFailures int     `mapstructure:"max_consecutive_failures"`
	Autostart              bool    `mapstructure:"autostart"`
	APIPort                int     `mapstructure:"api_port"`
}

// Settings converts the trading section into the controller's settings model.
func (t Trading) Settings() models.Settings {
	return models.Settings{
		Strategy:           t.Strategy,
		Amount:             t.Amount,
		Pair:               t.Pair,
		StopLossPercent:    t.StopLossPercent,
		TakeProfitPercent:  t.TakeProfitPercent,
		MaxRuns:            t.MaxRuns,
		RunIntervalMinutes: t.RunIntervalMinutes,
		CompoundCapital:    t.CompoundCapital,
		TestMode:           t.TestMode,
		Action:             models.Action(t.Action),
	}
}

// Server holds the configuration for the dashboard web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the trade journal database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("jupiter.base_url", "https://quote-api.jup.ag/v6")
	viper.SetDefault("jupiter.rate_limit", 10) // requests per second
	viper.SetDefault("jupiter.rate_limit_burst", 5)
	viper.SetDefault("solana.rpc_endpoint", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("solana.commitment", "confirmed")
	viper.SetDefault("solana.confirm_poll_seconds", 2)
	viper.SetDefault("oracle.base_url", "https://api.coingecko.com/api/v3")
	viper.SetDefault("oracle.rate_limit", 1)
	viper.SetDefault("oracle.rate_limit_burst", 2)
	viper.SetDefault("trading.strategy", "TrendTracker")
	viper.SetDefault("trading.amount", 0.1)
	viper.SetDefault("trading.pair", "SOL/USDC")
	viper.SetDefault("trading.stop_loss_percent", 2.5)
	viper.SetDefault("trading.take_profit_percent", 5)
	viper.SetDefault("trading.max_runs", 1)
	viper.SetDefault("trading.run_interval_minutes", 5)
	viper.SetDefault("trading.test_mode", true)
	viper.SetDefault("trading.action", "buy")
	viper.SetDefault("trading.slippage_percent", 0.5)
	viper.SetDefault("trading.history_limit", 50)
	viper.SetDefault("trading.max_consecutive_failures", 3)
	viper.SetDefault("trading.autostart", true)
	viper.SetDefault("trading.api_port", 8081)
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.dsn", "trades.db")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
