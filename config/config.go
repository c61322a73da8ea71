package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Port           int      `toml:"port"`
	LogLevel       string   `toml:"log_level"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// BackendConfig is where the form submits scheduling requests.
type BackendConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type SMTPConfig struct {
	Server      string `toml:"server"`
	Port        int    `toml:"port"`
	UseSTARTTLS bool   `toml:"use_starttls"` // true for port 587, false for port 465
}

type LLMConfig struct {
	Provider    string  `toml:"provider"` // "openai" or "ollama"
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	OllamaURL   string  `toml:"ollama_url"`
}

type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

type RateLimitConfig struct {
	Requests      int `toml:"requests"`
	WindowSeconds int `toml:"window_seconds"`
}

type FormConfig struct {
	DefaultCron string `toml:"default_cron"`
}

// Secrets never live in the TOML file; they come from the environment or .env.
type Secrets struct {
	SMTPUser      string `env:"SMTP_USER"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT"`
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
}

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Backend   BackendConfig   `toml:"backend"`
	SMTP      SMTPConfig      `toml:"smtp"`
	LLM       LLMConfig       `toml:"llm"`
	Storage   StorageConfig   `toml:"storage"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Form      FormConfig      `toml:"form"`
	Secrets   Secrets         `toml:"-"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var config Config

	config.Server.Port = 8000
	config.Server.LogLevel = "info"
	config.Server.AllowedOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}

	config.Backend.BaseURL = "http://localhost:8000"
	config.Backend.TimeoutSeconds = 60

	config.SMTP.Server = "smtp.gmail.com"
	config.SMTP.Port = 587
	config.SMTP.UseSTARTTLS = true

	config.LLM.Provider = "openai"
	config.LLM.Model = "gpt-4.1-mini"
	config.LLM.Temperature = 0.7
	config.LLM.OllamaURL = "http://localhost:11434"

	config.Storage.DataDir = "./data"

	config.RateLimit.Requests = 30
	config.RateLimit.WindowSeconds = 60

	config.Form.DefaultCron = "*/2 * * * *"

	return &config
}

// LoadConfig reads filepath over the defaults, then applies environment secrets.
// A missing file is not an error.
func LoadConfig(filepath string) (*Config, error) {
	config := Default()

	if filepath != "" {
		if _, err := toml.DecodeFile(filepath, config); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("decode %s: %w", filepath, err)
		}
	}

	if err := config.LoadSecrets(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadSecrets reads .env (if present) and the process environment.
// SMTP_HOST and SMTP_PORT override the file's SMTP server settings.
func (c *Config) LoadSecrets() error {
	_ = godotenv.Load()

	secrets, err := env.ParseAs[Secrets]()
	if err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	c.Secrets = secrets

	if secrets.SMTPHost != "" {
		c.SMTP.Server = secrets.SMTPHost
	}
	if secrets.SMTPPort != 0 {
		c.SMTP.Port = secrets.SMTPPort
	}
	return nil
}

// Validate checks the settings that would otherwise fail late at request time.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url %q is not an absolute URL", c.Backend.BaseURL)
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "ollama":
	default:
		return fmt.Errorf("llm.provider %q is not supported (openai, ollama)", c.LLM.Provider)
	}
	if c.RateLimit.Requests < 0 || c.RateLimit.WindowSeconds < 0 {
		return fmt.Errorf("rate_limit values must not be negative")
	}
	return nil
}

// GetPort returns the SMTP port, deriving it from the TLS mode when unset
func (c *SMTPConfig) GetPort() int {
	if c.Port != 0 {
		return c.Port
	}
	if c.UseSTARTTLS {
		return 587
	}
	return 465
}

// Timeout is the form's HTTP client timeout.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Window is the rate limiter's refill window.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}
