package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"

	ChatAuto   = "auto"
	ChatRelay  = "relay"
	ChatDirect = "direct"
	ChatLocal  = "local"
)

type Config struct {
	Env      string
	LogLevel string

	// server
	Port          string
	DatabaseURL   string
	JWTSecret     string
	EncryptionKey string
	BlindIndexKey string
	CORSOrigins   []string

	// client
	Home       string
	Storage    string
	Namespace  string
	LocalKey   string
	AuthURL    string
	RelayURL   string
	AnonKey    string
	ChatMode   string
	RelayModel string

	// OpenAI-compatible upstream, used by the relay and by direct chat mode
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	home := get("MINDBLOOM_HOME", "")
	if home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		home = filepath.Join(dir, ".mindbloom")
	}

	cfg := &Config{
		Env:           get("APP_ENV", "development"),
		LogLevel:      get("LOG_LEVEL", ""),
		Port:          get("PORT", "8080"),
		DatabaseURL:   get("DATABASE_URL", ""),
		JWTSecret:     get("JWT_SECRET", ""),
		EncryptionKey: get("ENCRYPTION_KEY", ""),
		BlindIndexKey: get("BLIND_INDEX_KEY", ""),
		CORSOrigins:   splitList(get("CORS_ORIGINS", "*")),
		Home:          home,
		Storage:       strings.ToLower(get("MINDBLOOM_STORAGE", StorageFile)),
		Namespace:     get("MINDBLOOM_NAMESPACE", ""),
		LocalKey:      get("MINDBLOOM_LOCAL_KEY", ""),
		AuthURL:       strings.TrimRight(get("MINDBLOOM_AUTH_URL", ""), "/"),
		RelayURL:      get("MINDBLOOM_RELAY_URL", ""),
		AnonKey:       get("MINDBLOOM_ANON_KEY", ""),
		ChatMode:      strings.ToLower(get("CHAT_MODE", ChatAuto)),
		RelayModel:    get("MINDBLOOM_RELAY_MODEL", "openai"),
		LLMBaseURL:    get("LLM_BASE_URL", ""),
		LLMAPIKey:     get("LLM_API_KEY", ""),
		LLMModel:      get("LLM_MODEL", ""),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings shared by both binaries.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	switch c.Storage {
	case StorageFile, StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("MINDBLOOM_STORAGE must be one of: file, sqlite, memory (got %q)", c.Storage)
	}
	switch c.ChatMode {
	case ChatAuto, ChatRelay, ChatDirect, ChatLocal:
	default:
		return fmt.Errorf("CHAT_MODE must be one of: auto, relay, direct, local (got %q)", c.ChatMode)
	}
	return nil
}

// ValidateServer checks what cmd/server needs on top of Validate.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if (c.EncryptionKey == "") != (c.BlindIndexKey == "") {
		return errors.New("ENCRYPTION_KEY and BLIND_INDEX_KEY must be set together")
	}
	if c.Env == "production" && c.EncryptionKey == "" {
		return errors.New("ENCRYPTION_KEY is required in production")
	}
	return nil
}

// ResolvedChatMode turns "auto" into a concrete mode based on which
// credentials are present.
func (c *Config) ResolvedChatMode() string {
	if c.ChatMode != ChatAuto {
		return c.ChatMode
	}
	switch {
	case c.RelayURL != "" && c.AnonKey != "":
		return ChatRelay
	case c.LLMAPIKey != "":
		return ChatDirect
	}
	return ChatLocal
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

func (c *Config) DataPath() string {
	if c.Storage == StorageSQLite {
		return filepath.Join(c.Home, "mindbloom.db")
	}
	return filepath.Join(c.Home, "local_storage.json")
}

func (c *Config) SessionPath() string {
	return filepath.Join(c.Home, "session.json")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
