// Package config reads service settings from the environment, an optional
// .env file and command-line flags bound by the caller.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the game-state service reads.
type Config struct {
	Port            string
	StartingBalance int
	ResetDelay      time.Duration
	DefaultTableID  string

	Ledger LedgerConfig
	Events EventsConfig
}

// LedgerConfig selects the PostgreSQL transaction ledger.
type LedgerConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// DSN is the lib/pq connection string.
func (l LedgerConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		l.Host, l.Port, l.Name, l.User, l.Password,
	)
}

// EventsConfig selects the Redis round-event publisher.
type EventsConfig struct {
	Enabled        bool
	Addr           string
	Channel        string
	BalanceChannel string
}

// New returns a viper instance with defaults and environment binding set up.
// Flags may be bound onto it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("PORT", "3001")
	v.SetDefault("STARTING_BALANCE", 1000)
	v.SetDefault("RESET_DELAY", "2s")
	v.SetDefault("DEFAULT_TABLE_ID", "demo-table-00000000-0000-0000-0000-000000000001")

	v.SetDefault("LEDGER_ENABLED", false)
	v.SetDefault("BANK_DB_HOST", "bank-db")
	v.SetDefault("BANK_DB_PORT", "5432")
	v.SetDefault("BANK_DB_NAME", "bankdb")
	v.SetDefault("BANK_DB_USER", "bankuser")
	v.SetDefault("BANK_DB_PASSWORD", "bankpass")

	v.SetDefault("EVENTS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "redis")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_CHANNEL", "swarm:rounds")
	v.SetDefault("BALANCE_CHANNEL", "swarm:balance")
	return v
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored; variables already set win.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load reads a Config out of v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:            strings.TrimSpace(v.GetString("PORT")),
		StartingBalance: v.GetInt("STARTING_BALANCE"),
		ResetDelay:      v.GetDuration("RESET_DELAY"),
		DefaultTableID:  strings.TrimSpace(v.GetString("DEFAULT_TABLE_ID")),
		Ledger: LedgerConfig{
			Enabled:  v.GetBool("LEDGER_ENABLED"),
			Host:     v.GetString("BANK_DB_HOST"),
			Port:     v.GetString("BANK_DB_PORT"),
			Name:     v.GetString("BANK_DB_NAME"),
			User:     v.GetString("BANK_DB_USER"),
			Password: v.GetString("BANK_DB_PASSWORD"),
		},
		Events: EventsConfig{
			Enabled:        v.GetBool("EVENTS_ENABLED"),
			Addr:           v.GetString("REDIS_HOST") + ":" + v.GetString("REDIS_PORT"),
			Channel:        v.GetString("REDIS_CHANNEL"),
			BalanceChannel: v.GetString("BALANCE_CHANNEL"),
		},
	}
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("config: PORT is empty")
	}
	if cfg.StartingBalance < 0 {
		return Config{}, fmt.Errorf("config: STARTING_BALANCE must not be negative, got %d", cfg.StartingBalance)
	}
	if cfg.ResetDelay < 0 {
		return Config{}, fmt.Errorf("config: RESET_DELAY must not be negative, got %s", cfg.ResetDelay)
	}
	return cfg, nil
}
