package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/pricefeed"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Feed     FeedConfig     `json:"feed"`
	Account  AccountConfig  `json:"account"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr         string   `json:"addr"`
	AllowOrigins []string `json:"allowOrigins"`
}

// DatabaseConfig selects the repository backend. Driver is "postgres" or
// "memory".
type DatabaseConfig struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
}

// FeedConfig describes the upstream price stream.
type FeedConfig struct {
	Host           string         `json:"host"`
	BackoffSeconds int            `json:"backoffSeconds"`
	Symbols        []SymbolConfig `json:"symbols"`
}

// SymbolConfig maps one source stream symbol to an internal symbol.
type SymbolConfig struct {
	Stream string `json:"stream"`
	Symbol string `json:"symbol"`
}

// AccountConfig seeds the paper account on first boot.
type AccountConfig struct {
	StartingBalance string `json:"startingBalance"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Server          ServerConfig
	Database        DatabaseConfig
	Feed            pricefeed.Config
	StartingBalance decimal.Decimal
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return resolve(cfg)
}

// Default is the configuration used when no file is given: memory storage,
// the three default symbols, and a 100k starting balance.
func Default() Loaded {
	loaded, err := resolve(FileConfig{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Driver: "memory"},
		Feed: FeedConfig{
			Symbols: []SymbolConfig{
				{Stream: "BTCUSDT", Symbol: "BTC"},
				{Stream: "ETHUSDT", Symbol: "ETH"},
				{Stream: "SOLUSDT", Symbol: "SOL"},
			},
		},
		Account: AccountConfig{StartingBalance: "100000"},
	})
	if err != nil {
		panic(err)
	}
	return loaded
}

func resolve(cfg FileConfig) (Loaded, error) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "memory"
	}
	switch cfg.Database.Driver {
	case "memory", "postgres":
	default:
		return Loaded{}, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	feed, err := resolveFeed(cfg.Feed)
	if err != nil {
		return Loaded{}, err
	}

	balance, err := resolveStartingBalance(cfg.Account)
	if err != nil {
		return Loaded{}, err
	}

	return Loaded{
		Server:          cfg.Server,
		Database:        cfg.Database,
		Feed:            feed,
		StartingBalance: balance,
	}, nil
}

func resolveFeed(cfg FeedConfig) (pricefeed.Config, error) {
	if len(cfg.Symbols) == 0 {
		return pricefeed.Config{}, fmt.Errorf("feed symbols are empty")
	}

	symbolMap := make(map[string]string, len(cfg.Symbols))
	seen := make(map[string]bool, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		if sym.Stream == "" || sym.Symbol == "" {
			return pricefeed.Config{}, fmt.Errorf("feed symbol entry is incomplete: %+v", sym)
		}
		if _, ok := symbolMap[sym.Stream]; ok {
			return pricefeed.Config{}, fmt.Errorf("duplicate feed stream: %s", sym.Stream)
		}
		if seen[sym.Symbol] {
			return pricefeed.Config{}, fmt.Errorf("duplicate feed symbol: %s", sym.Symbol)
		}
		symbolMap[sym.Stream] = sym.Symbol
		seen[sym.Symbol] = true
	}

	backoff := time.Duration(cfg.BackoffSeconds) * time.Second
	if cfg.BackoffSeconds < 0 {
		return pricefeed.Config{}, fmt.Errorf("feed backoffSeconds must be >= 0")
	}

	return pricefeed.Config{
		Host:      cfg.Host,
		SymbolMap: symbolMap,
		Backoff:   backoff,
	}, nil
}

func resolveStartingBalance(cfg AccountConfig) (decimal.Decimal, error) {
	if cfg.StartingBalance == "" {
		cfg.StartingBalance = "100000"
	}
	balance, err := decimal.NewFromString(cfg.StartingBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid startingBalance: %w", err)
	}
	if !balance.IsPositive() {
		return decimal.Zero, fmt.Errorf("startingBalance must be > 0")
	}
	return balance, nil
}
