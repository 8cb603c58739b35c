// internal/config/config.go
//
// Process configuration.
// Responsibilities:
//   - Read settings from the environment (a .env file is loaded by main first).
//   - Accept the browser build's VITE_NEXT_PUBLIC_* names as aliases for the
//     network settings.
//   - Validate before the server starts.
//
// Notes:
//   - Viper supplies typed defaults and env binding; nothing is read from disk
//     here.
//   - Defaults are placeholders. No real key belongs in this file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cosmosStaker/secret-hand-showdown/internal/game"
	"github.com/cosmosStaker/secret-hand-showdown/internal/wallet"
)

// DevJWTSecret is the development fallback; production refuses to start with it.
const DevJWTSecret = "dev_secret_change_me"

// Config is everything main needs to wire the server.
type Config struct {
	Env          string
	Port         string
	LogLevel     string
	ClientOrigin string
	DatabasePath string

	JWTSecret  string
	JWTExpires time.Duration
	CookieName string

	RequireSignature bool
	ChallengeTTL     time.Duration

	TickInterval time.Duration
	IdleTimeout  time.Duration
	ReapInterval time.Duration
	SeedSalt     string
	Seed         uint64

	Network wallet.Network
	Rules   game.Rules
}

// Production reports whether APP_ENV is "production".
func (c Config) Production() bool { return c.Env == "production" }

// env bindings: key, then accepted variable names in priority order.
var bindings = [][]string{
	{"app_env", "APP_ENV"},
	{"port", "PORT"},
	{"log_level", "LOG_LEVEL"},
	{"client_origin", "CLIENT_ORIGIN"},
	{"database_path", "DATABASE_PATH"},
	{"jwt_secret", "JWT_SECRET"},
	{"jwt_expires_days", "JWT_EXPIRES_DAYS"},
	{"cookie_name", "COOKIE_NAME"},
	{"wallet_require_signature", "WALLET_REQUIRE_SIGNATURE"},
	{"challenge_ttl", "CHALLENGE_TTL"},
	{"tick_interval", "TICK_INTERVAL"},
	{"idle_timeout", "TABLE_IDLE_TIMEOUT"},
	{"reap_interval", "TABLE_REAP_INTERVAL"},
	{"seed_salt", "GAME_SEED_SALT"},
	{"seed", "GAME_SEED"},
	{"turn_seconds", "TURN_SECONDS"},
	{"hand_size", "HAND_SIZE"},
	{"mana_cap", "MANA_CAP"},
	{"starting_health", "STARTING_HEALTH"},

	{"chain_id", "CHAIN_ID", "VITE_NEXT_PUBLIC_CHAIN_ID"},
	{"chain_name", "CHAIN_NAME"},
	{"rpc_url", "RPC_URL", "VITE_NEXT_PUBLIC_RPC_URL"},
	{"alt_rpc_url", "ALT_RPC_URL"},
	{"infura_api_key", "INFURA_API_KEY", "VITE_NEXT_PUBLIC_INFURA_API_KEY"},
	{"wallet_connect_project_id", "WALLET_CONNECT_PROJECT_ID", "VITE_NEXT_PUBLIC_WALLET_CONNECT_PROJECT_ID"},
	{"game_contract", "GAME_CONTRACT_ADDRESS"},
	{"fhe_contract", "FHE_CONTRACT_ADDRESS"},
}

func newViper() *viper.Viper {
	v := viper.New()
	net := wallet.Sepolia()
	rules := game.DefaultRules()

	v.SetDefault("app_env", "development")
	v.SetDefault("port", "5175")
	v.SetDefault("log_level", "info")
	v.SetDefault("client_origin", "http://localhost:5173")
	v.SetDefault("database_path", "./data/showdown.db")
	v.SetDefault("jwt_secret", DevJWTSecret)
	v.SetDefault("jwt_expires_days", 14)
	v.SetDefault("cookie_name", "showdown_token")
	v.SetDefault("wallet_require_signature", true)
	v.SetDefault("challenge_ttl", 5*time.Minute)
	v.SetDefault("tick_interval", 200*time.Millisecond)
	v.SetDefault("idle_timeout", 30*time.Minute)
	v.SetDefault("reap_interval", time.Minute)
	v.SetDefault("seed_salt", "")
	v.SetDefault("seed", 0)
	v.SetDefault("turn_seconds", rules.TurnSeconds)
	v.SetDefault("hand_size", rules.HandSize)
	v.SetDefault("mana_cap", rules.ManaCap)
	v.SetDefault("starting_health", rules.StartingHealth)

	v.SetDefault("chain_id", net.ChainID)
	v.SetDefault("chain_name", net.Name)
	v.SetDefault("rpc_url", "")
	v.SetDefault("alt_rpc_url", net.AltRPCURL)
	v.SetDefault("infura_api_key", "")
	v.SetDefault("wallet_connect_project_id", net.WalletConnectProjectID)
	v.SetDefault("game_contract", "")
	v.SetDefault("fhe_contract", "")

	for _, b := range bindings {
		_ = v.BindEnv(b...)
	}
	return v
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	v := newViper()

	rules := game.DefaultRules()
	rules.TurnSeconds = v.GetInt("turn_seconds")
	rules.HandSize = v.GetInt("hand_size")
	rules.ManaCap = v.GetInt("mana_cap")
	rules.StartingHealth = v.GetInt("starting_health")

	cfg := Config{
		Env:              strings.ToLower(v.GetString("app_env")),
		Port:             v.GetString("port"),
		LogLevel:         v.GetString("log_level"),
		ClientOrigin:     v.GetString("client_origin"),
		DatabasePath:     v.GetString("database_path"),
		JWTSecret:        v.GetString("jwt_secret"),
		JWTExpires:       time.Duration(v.GetInt("jwt_expires_days")) * 24 * time.Hour,
		CookieName:       v.GetString("cookie_name"),
		RequireSignature: v.GetBool("wallet_require_signature"),
		ChallengeTTL:     v.GetDuration("challenge_ttl"),
		TickInterval:     v.GetDuration("tick_interval"),
		IdleTimeout:      v.GetDuration("idle_timeout"),
		ReapInterval:     v.GetDuration("reap_interval"),
		SeedSalt:         v.GetString("seed_salt"),
		Seed:             v.GetUint64("seed"),
		Network:          network(v),
		Rules:            rules,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// network assembles the public chain settings. An explicit RPC URL wins; an
// Infura key alone expands to the Sepolia Infura endpoint.
func network(v *viper.Viper) wallet.Network {
	n := wallet.Sepolia()
	n.ChainID = v.GetInt64("chain_id")
	n.Name = v.GetString("chain_name")
	n.AltRPCURL = v.GetString("alt_rpc_url")
	n.WalletConnectProjectID = v.GetString("wallet_connect_project_id")
	n.GameContract = v.GetString("game_contract")
	n.FHEContract = v.GetString("fhe_contract")
	switch rpc, key := v.GetString("rpc_url"), v.GetString("infura_api_key"); {
	case rpc != "":
		n.RPCURL = rpc
	case key != "":
		n.RPCURL = "https://sepolia.infura.io/v3/" + key
	}
	return n
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is empty"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is empty"))
	} else if c.Production() && c.JWTSecret == DevJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.JWTExpires <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_DAYS must be positive"))
	}
	if c.Network.ChainID <= 0 {
		errs = append(errs, fmt.Errorf("CHAIN_ID %d is not a chain id", c.Network.ChainID))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, errors.New("TICK_INTERVAL must be positive"))
	}
	if c.ChallengeTTL <= 0 {
		errs = append(errs, errors.New("CHALLENGE_TTL must be positive"))
	}
	if err := c.Rules.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Warnings lists non-fatal problems worth logging at startup.
func (c Config) Warnings() []string {
	var out []string
	for _, f := range c.Network.Placeholders() {
		out = append(out, "network "+f+" is a placeholder")
	}
	if c.JWTSecret == DevJWTSecret {
		out = append(out, "using the development JWT secret")
	}
	if !c.RequireSignature {
		out = append(out, "wallet signatures are not required (mock wallet mode)")
	}
	return out
}
