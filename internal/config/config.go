package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server             ServerConfig    `json:"server"`
	Database           DatabaseConfig  `json:"database"`
	ChatProvider       ProviderConfig  `json:"chat_provider"`
	ClassifierProvider ProviderConfig  `json:"classifier_provider"`
	Search             SearchConfig    `json:"search"`
	Mail               MailConfig      `json:"mail"`
	Speech             SpeechConfig    `json:"speech"`
	Admin              AdminConfig     `json:"admin"`
	Auth               AuthConfig      `json:"auth"`
	Intent             IntentConfig    `json:"intent"`
	Skills             SkillsConfig    `json:"skills"`
	Assistant          AssistantConfig `json:"assistant"`
	Logging            LoggingConfig   `json:"logging"`
}

// ServerConfig controls the HTTP server
type ServerConfig struct {
	Port          int    `json:"port"`
	BindAddress   string `json:"bind_address"`
	SecureCookies bool   `json:"secure_cookies"`
}

// Addr returns host:port for http.Server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.Port)
}

// DatabaseConfig selects the relational store
type DatabaseConfig struct {
	Driver string `json:"driver"` // "sqlite" or "postgres"
	DSN    string `json:"dsn"`    // file path for sqlite, connection string for postgres
}

// ProviderConfig configures a completion service client
type ProviderConfig struct {
	Type           string `json:"type"` // "openai" (any OpenAI-compatible API, e.g. Groq), "ollama", "anthropic"
	Endpoint       string `json:"endpoint"`
	APIKey         string `json:"api_key,omitempty"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Timeout returns the per-request timeout
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// SearchConfig points at a SearXNG-compatible JSON search endpoint
type SearchConfig struct {
	Endpoint       string `json:"endpoint"`
	MaxResults     int    `json:"max_results"`
	FetchPages     bool   `json:"fetch_pages"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// MailConfig configures the SMTP notification sender. Mail is disabled
// (OTP codes are only logged as sent) when Host or Username is empty.
type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	From     string `json:"from"`
}

// Enabled reports whether enough is configured to actually send mail
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.Username != ""
}

// SpeechConfig configures the text-to-speech client
type SpeechConfig struct {
	Endpoint       string `json:"endpoint"`
	APIKey         string `json:"api_key,omitempty"`
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	OutputPath     string `json:"output_path"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// AdminConfig holds the single administrator credential pair
type AdminConfig struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}

// AuthConfig controls the authentication flows
type AuthConfig struct {
	OTPTTLMinutes      int  `json:"otp_ttl_minutes"`
	SessionExpiryDays  int  `json:"session_expiry_days"`
	ConsumeOTPOnReset  bool `json:"consume_otp_on_reset"`
	RateLimitPerMinute int  `json:"rate_limit_per_minute"`
	RateLimitBurst     int  `json:"rate_limit_burst"`
}

// IntentConfig bounds the intent classifier
type IntentConfig struct {
	MaxAttempts    int    `json:"max_attempts"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	PromptFile     string `json:"prompt_file"` // optional YAML prompt, built-in prompt when empty
}

// SkillsConfig controls automation skills
type SkillsConfig struct {
	Enabled      bool   `json:"enabled"`
	Dir          string `json:"dir"`
	WatchChanges bool   `json:"watch_changes"`
}

// AssistantConfig names the assistant in prompts
type AssistantConfig struct {
	Name     string `json:"name"`
	UserName string `json:"user_name"` // fallback display name when an account has none
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level      string `json:"level"` // "debug", "info", "warn", "error"
	File       string `json:"file"`  // empty logs to stdout only
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			BindAddress: "127.0.0.1",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "jarvis.db",
		},
		ChatProvider: ProviderConfig{
			Type:           "openai",
			Endpoint:       "https://api.groq.com/openai/v1",
			Model:          "llama3-70b-8192",
			TimeoutSeconds: 60,
		},
		ClassifierProvider: ProviderConfig{
			Type:           "openai",
			Endpoint:       "https://api.groq.com/openai/v1",
			Model:          "llama3-8b-8192",
			TimeoutSeconds: 30,
		},
		Search: SearchConfig{
			Endpoint:       "http://localhost:8888/search",
			MaxResults:     5,
			TimeoutSeconds: 10,
		},
		Mail: MailConfig{
			Host: "smtp.gmail.com",
			Port: 465,
		},
		Speech: SpeechConfig{
			Endpoint:       "https://api.openai.com/v1",
			Model:          "tts-1",
			Voice:          "onyx",
			OutputPath:     "Data/speech.mp3",
			TimeoutSeconds: 30,
		},
		Admin: AdminConfig{
			Username: "admin",
		},
		Auth: AuthConfig{
			OTPTTLMinutes:      5,
			SessionExpiryDays:  7,
			RateLimitPerMinute: 10,
			RateLimitBurst:     5,
		},
		Intent: IntentConfig{
			MaxAttempts:    3,
			TimeoutSeconds: 30,
		},
		Skills: SkillsConfig{
			Enabled:      true,
			Dir:          "skills",
			WatchChanges: true,
		},
		Assistant: AssistantConfig{
			Name:     "Jarvis",
			UserName: "User",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads configuration in layers: built-in defaults, the JSON file at path
// (written with defaults when absent), dotenv files (".env" unless envFiles
// is given; real environment variables win), then JARVIS_* overrides.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// unmarshal over the defaults so absent keys keep their default value
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := loadDotEnv(envFiles); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadDotEnv(files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

// Save writes configuration to file. Secrets are omitted when empty and
// should normally come from the environment instead.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) applyEnvOverrides() {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	flag := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	num("JARVIS_SERVER_PORT", &c.Server.Port)
	str("JARVIS_SERVER_BIND_ADDRESS", &c.Server.BindAddress)
	flag("JARVIS_SECURE_COOKIES", &c.Server.SecureCookies)

	str("JARVIS_DB_DRIVER", &c.Database.Driver)
	str("JARVIS_DB_DSN", &c.Database.DSN)

	str("JARVIS_CHAT_PROVIDER", &c.ChatProvider.Type)
	str("JARVIS_CHAT_ENDPOINT", &c.ChatProvider.Endpoint)
	str("JARVIS_CHAT_API_KEY", &c.ChatProvider.APIKey)
	str("JARVIS_CHAT_MODEL", &c.ChatProvider.Model)

	str("JARVIS_CLASSIFIER_PROVIDER", &c.ClassifierProvider.Type)
	str("JARVIS_CLASSIFIER_ENDPOINT", &c.ClassifierProvider.Endpoint)
	str("JARVIS_CLASSIFIER_API_KEY", &c.ClassifierProvider.APIKey)
	str("JARVIS_CLASSIFIER_MODEL", &c.ClassifierProvider.Model)

	str("JARVIS_SEARCH_ENDPOINT", &c.Search.Endpoint)
	num("JARVIS_SEARCH_MAX_RESULTS", &c.Search.MaxResults)

	str("JARVIS_SMTP_HOST", &c.Mail.Host)
	num("JARVIS_SMTP_PORT", &c.Mail.Port)
	str("JARVIS_SMTP_USERNAME", &c.Mail.Username)
	str("JARVIS_SMTP_PASSWORD", &c.Mail.Password)
	str("JARVIS_SMTP_FROM", &c.Mail.From)

	str("JARVIS_SPEECH_ENDPOINT", &c.Speech.Endpoint)
	str("JARVIS_SPEECH_API_KEY", &c.Speech.APIKey)
	str("JARVIS_SPEECH_VOICE", &c.Speech.Voice)

	str("JARVIS_ADMIN_USERNAME", &c.Admin.Username)
	str("JARVIS_ADMIN_PASSWORD", &c.Admin.Password)

	flag("JARVIS_CONSUME_OTP_ON_RESET", &c.Auth.ConsumeOTPOnReset)

	str("JARVIS_ASSISTANT_NAME", &c.Assistant.Name)
	str("JARVIS_USER_NAME", &c.Assistant.UserName)

	str("JARVIS_LOG_LEVEL", &c.Logging.Level)
	str("JARVIS_LOG_FILE", &c.Logging.File)
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite or postgres)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}

	if err := c.ChatProvider.validate("chat_provider"); err != nil {
		return err
	}
	if err := c.ClassifierProvider.validate("classifier_provider"); err != nil {
		return err
	}

	if c.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results must be at least 1")
	}

	if c.Mail.Enabled() && (c.Mail.Port < 1 || c.Mail.Port > 65535) {
		return fmt.Errorf("invalid mail port: %d", c.Mail.Port)
	}

	if c.Admin.Password != "" && c.Admin.Username == "" {
		return fmt.Errorf("admin username is required when an admin password is set")
	}

	if c.Auth.OTPTTLMinutes < 1 {
		return fmt.Errorf("auth.otp_ttl_minutes must be at least 1")
	}
	if c.Auth.SessionExpiryDays < 1 {
		return fmt.Errorf("auth.session_expiry_days must be at least 1")
	}
	if c.Auth.RateLimitPerMinute < 0 || c.Auth.RateLimitBurst < 0 {
		return fmt.Errorf("auth rate limits must not be negative")
	}

	if c.Intent.MaxAttempts < 1 {
		return fmt.Errorf("intent.max_attempts must be at least 1")
	}
	if c.Intent.TimeoutSeconds < 1 {
		return fmt.Errorf("intent.timeout_seconds must be at least 1")
	}

	if c.Skills.Enabled && c.Skills.Dir == "" {
		return fmt.Errorf("skills.dir is required when skills are enabled")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}

func (p ProviderConfig) validate(section string) error {
	switch p.Type {
	case "openai", "ollama":
	case "anthropic":
		if p.APIKey == "" {
			return fmt.Errorf("%s: Anthropic API key is required", section)
		}
	default:
		return fmt.Errorf("%s: unknown provider type: %s", section, p.Type)
	}
	if p.Endpoint == "" {
		return fmt.Errorf("%s: endpoint is required", section)
	}
	if p.Model == "" {
		return fmt.Errorf("%s: model is required", section)
	}
	if p.TimeoutSeconds < 1 {
		return fmt.Errorf("%s: timeout_seconds must be at least 1", section)
	}
	return nil
}

// Warnings lists settings that are valid but probably not what production wants
func (c *Config) Warnings() []string {
	var w []string
	if c.ChatProvider.Type == "openai" && c.ChatProvider.APIKey == "" {
		w = append(w, "chat_provider has no API key; set JARVIS_CHAT_API_KEY")
	}
	if c.ClassifierProvider.Type == "openai" && c.ClassifierProvider.APIKey == "" {
		w = append(w, "classifier_provider has no API key; set JARVIS_CLASSIFIER_API_KEY")
	}
	if !c.Mail.Enabled() {
		w = append(w, "mail is not configured; OTP codes will be logged instead of emailed")
	}
	if c.Admin.Password == "" {
		w = append(w, "admin password is empty; admin login is disabled")
	}
	if !c.Server.SecureCookies && c.Server.BindAddress != "127.0.0.1" && c.Server.BindAddress != "localhost" {
		w = append(w, "server is reachable from the network but secure_cookies is off")
	}
	return w
}
