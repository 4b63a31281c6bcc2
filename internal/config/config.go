package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	// 容器內可能沒有 zoneinfo
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-mem-wallet/internal/app/core/domain"
)

// 帳本引擎
const (
	EngineMutex = "mutex"
	EngineActor = "actor"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	GRPCAddr    string `yaml:"grpc_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

type LedgerConfig struct {
	// Engine: mutex 或 actor
	Engine    string `yaml:"engine"`
	QueueSize int    `yaml:"queue_size"`
}

type WalletConfig struct {
	// DailyWithdrawalLimit 以字串表示避免浮點誤差
	DailyWithdrawalLimit string `yaml:"daily_withdrawal_limit"`
	DailyDepositLimit    int    `yaml:"daily_deposit_limit"`
	// TimeZone 決定「今天」是哪一天
	TimeZone string `yaml:"timezone"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// RateLimitConfig RPS <= 0 表示不限流
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Load 讀取設定檔，補上預設值並套用環境變數
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse 解析 YAML 內容，補上預設值並套用環境變數
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnvironment()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults 補全預設配置 (如果 yaml 沒寫)
func (c *Config) applyDefaults() {
	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = ":50051"
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = ":9090"
	}
	if c.Ledger.Engine == "" {
		c.Ledger.Engine = EngineMutex
	}
	if c.Wallet.DailyWithdrawalLimit == "" {
		c.Wallet.DailyWithdrawalLimit = strconv.Itoa(domain.DefaultDailyWithdrawalLimit)
	}
	if c.Wallet.DailyDepositLimit == 0 {
		c.Wallet.DailyDepositLimit = domain.DefaultDailyDepositCount
	}
	if c.Wallet.TimeZone == "" {
		c.Wallet.TimeZone = "UTC"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = int(c.RateLimit.RPS)
		if c.RateLimit.Burst < 1 {
			c.RateLimit.Burst = 1
		}
	}
}

// applyEnvironment 環境變數優先於設定檔
func (c *Config) applyEnvironment() {
	overrides := map[string]*string{
		"WALLET_GRPC_ADDR":     &c.Server.GRPCAddr,
		"WALLET_METRICS_ADDR":  &c.Server.MetricsAddr,
		"WALLET_LEDGER_ENGINE": &c.Ledger.Engine,
		"WALLET_LOG_LEVEL":     &c.Log.Level,
		"WALLET_TIMEZONE":      &c.Wallet.TimeZone,
	}
	for key, target := range overrides {
		if v := os.Getenv(key); len(v) != 0 {
			*target = v
		}
	}
	c.Ledger.Engine = strings.ToLower(c.Ledger.Engine)
}

// Validate 檢查設定是否可用
func (c *Config) Validate() error {
	switch c.Ledger.Engine {
	case EngineMutex, EngineActor:
	default:
		return fmt.Errorf("unknown ledger engine %q", c.Ledger.Engine)
	}
	if _, err := c.Limits(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Limits 新錢包使用的每日限制
func (c *Config) Limits() (domain.Limits, error) {
	amount, err := decimal.NewFromString(c.Wallet.DailyWithdrawalLimit)
	if err != nil {
		return domain.Limits{}, fmt.Errorf("parse daily_withdrawal_limit: %w", err)
	}
	limits := domain.Limits{
		DailyWithdrawal:   amount,
		DailyDepositCount: c.Wallet.DailyDepositLimit,
	}
	if err := limits.Validate(); err != nil {
		return domain.Limits{}, err
	}
	return limits, nil
}

// Location 交易日期使用的時區
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Wallet.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Wallet.TimeZone, err)
	}
	return loc, nil
}
