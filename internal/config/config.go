package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "config.yaml"
	configPathEnv     = "NEWSAGENT_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	llmAPIKeyEnv      = "GEMINI_API_KEY"
	llmModelEnv       = "LLM_MODEL"
	llmEndpointEnv    = "LLM_ENDPOINT"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrInvalid marks configuration that cannot be used; it is fatal at startup.
var ErrInvalid = errors.New("invalid configuration")

// Config holds high-level settings required across the application.
type Config struct {
	Feeds         []FeedConfig       `yaml:"feeds"`
	Tagging       TaggingConfig      `yaml:"tagging"`
	LLM           LLMConfig          `yaml:"llm"`
	Database      DatabaseConfig     `yaml:"database"`
	Search        SearchConfig       `yaml:"search"`
	Server        ServerConfig       `yaml:"server"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// FeedConfig describes a single feed source; Category is an advisory hint for classification.
type FeedConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

// TaggingConfig is the taxonomy used to guide classification.
type TaggingConfig struct {
	Interests  []string `yaml:"interests"`
	Categories []string `yaml:"categories"`
}

// LLMConfig defines how to contact the classification engine.
// The API key is only ever read from the environment.
type LLMConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
	APIKey   string        `yaml:"-"`
}

// DatabaseConfig selects the storage driver and its connection string.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SearchConfig points at the external web search provider.
type SearchConfig struct {
	Endpoint   string `yaml:"endpoint"`
	MaxResults int    `yaml:"maxResults"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"staticDir"`
}

// SchedulerConfig enables periodic ingestion while serving; zero disables it.
type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LoggingConfig sets the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Path resolves the config file location from the flag value or the environment.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(configPathEnv); v != "" {
		return v
	}
	return defaultConfigPath
}

// Load reads the YAML file at path, applies .env and environment overrides and validates the result.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	return Parse(raw)
}

// Parse builds a validated Config from a YAML document without touching disk.
func Parse(raw []byte) (Config, error) {
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse yaml: %v", ErrInvalid, err)
	}

	cfg := mergeConfig(defaultConfig(), fileCfg)
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first problem that makes the configuration unusable.
func (c Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Feeds))
	for i, feed := range c.Feeds {
		name := strings.TrimSpace(feed.Name)
		if name == "" {
			return fmt.Errorf("%w: feeds[%d]: name is required", ErrInvalid, i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: feeds[%d]: duplicate name %q", ErrInvalid, i, name)
		}
		seen[name] = struct{}{}

		u, err := url.Parse(strings.TrimSpace(feed.URL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: feeds[%d] %s: url must be absolute http(s), got %q", ErrInvalid, i, name, feed.URL)
		}
	}

	for i, interest := range c.Tagging.Interests {
		if strings.TrimSpace(interest) == "" {
			return fmt.Errorf("%w: tagging.interests[%d] is blank", ErrInvalid, i)
		}
	}
	for i, category := range c.Tagging.Categories {
		if strings.TrimSpace(category) == "" {
			return fmt.Errorf("%w: tagging.categories[%d] is blank", ErrInvalid, i)
		}
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: database.driver must be %s or %s, got %q", ErrInvalid, DriverSQLite, DriverPostgres, c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("%w: database.dsn is required", ErrInvalid)
	}

	if strings.TrimSpace(c.LLM.Model) == "" {
		return fmt.Errorf("%w: llm.model is required", ErrInvalid)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("%w: llm.timeout must not be negative", ErrInvalid)
	}
	if c.Scheduler.Interval < 0 {
		return fmt.Errorf("%w: scheduler.interval must not be negative", ErrInvalid)
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("%w: search.maxResults must not be negative", ErrInvalid)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(llmEndpointEnv); v != "" {
		c.LLM.Endpoint = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	base.Feeds = override.Feeds
	base.Tagging = override.Tagging

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.Timeout != 0 {
		base.LLM.Timeout = override.LLM.Timeout
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Search.Endpoint != "" {
		base.Search.Endpoint = override.Search.Endpoint
	}
	if override.Search.MaxResults != 0 {
		base.Search.MaxResults = override.Search.MaxResults
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.StaticDir != "" {
		base.Server.StaticDir = override.Server.StaticDir
	}

	if override.Scheduler.Interval != 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Endpoint: "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions",
			Model:    "gemini-1.5-flash",
			Timeout:  60 * time.Second,
		},
		Database: DatabaseConfig{Driver: DriverSQLite, DSN: "data/news.db"},
		Search: SearchConfig{
			Endpoint:   "https://html.duckduckgo.com/html/",
			MaxResults: 5,
		},
		Server:  ServerConfig{Addr: ":8000", StaticDir: "static"},
		Logging: LoggingConfig{Level: "info"},
	}
}
