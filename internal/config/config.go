package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/fundqa-bot/internal/pkg/retry"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	PlatformBedrock = "bedrock"
	PlatformOpenAI  = "openai"

	GraphProtocolHTTPS = "https"
	GraphProtocolBolt  = "bolt"

	defaultConfigPath = "config/app.yaml"
)

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Bedrock    BedrockConfig    `yaml:"bedrock"`
	LLM        LLMConfig        `yaml:"llm"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Neptune    NeptuneConfig    `yaml:"neptune"`
	OpenSearch OpenSearchConfig `yaml:"opensearch"`
	Chat       ChatConfig       `yaml:"chat"`
	Database   DatabaseConfig   `yaml:"database"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	ASR        ASRConfig        `yaml:"asr"`
	Auth       AuthConfig       `yaml:"auth"`

	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`
	EnableMocks bool   `yaml:"enable_mocks" env:"ENABLE_MOCKS"`

	// Environment (set from flag, not from env var)
	Environment string `yaml:"-"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr" env:"SERVER_ADDR"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS" envSeparator:","`
}

// BedrockConfig is shared by the Bedrock LLM and embedding clients.
type BedrockConfig struct {
	Region string `yaml:"region" env:"BEDROCK_REGION"`
	// SecretID names a Secrets Manager secret holding {"access_key_id","secret_access_key"}.
	// Empty means the default AWS credential chain.
	SecretID    string               `yaml:"secrets_ak_sk" env:"BEDROCK_SECRETS_AK_SK"`
	ReadTimeout time.Duration        `yaml:"read_timeout" env:"BEDROCK_READ_TIMEOUT"`
	Retry       pkgRetry.RetryConfig `yaml:"retry" envPrefix:"BEDROCK_RETRY_"`
}

type LLMConfig struct {
	Platform    string       `yaml:"platform" env:"LLM_PLATFORM"`
	ModelID     string       `yaml:"model_id" env:"LLM_MODEL_ID"`
	MaxTokens   int          `yaml:"max_tokens" env:"LLM_MAX_TOKENS"`
	Temperature float64      `yaml:"temperature" env:"LLM_TEMPERATURE"`
	TopP        float64      `yaml:"top_p" env:"LLM_TOP_P"`
	OpenAI      OpenAIConfig `yaml:"openai" envPrefix:"LLM_OPENAI_"`
}

type EmbeddingConfig struct {
	Platform  string       `yaml:"platform" env:"EMBEDDING_PLATFORM"`
	Name      string       `yaml:"name" env:"EMBEDDING_NAME"`
	Dimension int          `yaml:"dimension" env:"EMBEDDING_DIMENSION"`
	Region    string       `yaml:"region" env:"EMBEDDING_REGION"`
	OpenAI    OpenAIConfig `yaml:"openai" envPrefix:"EMBEDDING_OPENAI_"`
}

type OpenAIConfig struct {
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	APIKey  string `yaml:"api_key" env:"API_KEY"`
}

type NeptuneConfig struct {
	HTTPClientConfig   `yaml:",inline" envPrefix:"NEPTUNE_"`
	Endpoint           string `yaml:"endpoint" env:"NEPTUNE_ENDPOINT"`
	Port               int    `yaml:"port" env:"NEPTUNE_PORT"`
	Protocol           string `yaml:"protocol" env:"GRAPH_PROTOCOL"`
	Username           string `yaml:"username" env:"NEPTUNE_USERNAME"`
	Password           string `yaml:"password" env:"NEPTUNE_PASSWORD"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" env:"GRAPH_INSECURE_SKIP_VERIFY"`
	ReadOnly           bool   `yaml:"read_only" env:"GRAPH_READ_ONLY"`
}

type OpenSearchConfig struct {
	HTTPClientConfig   `yaml:",inline" envPrefix:"OPENSEARCH_"`
	Host               string `yaml:"host" env:"OPENSEARCH_HOST"`
	Port               int    `yaml:"port" env:"OPENSEARCH_PORT"`
	Domain             string `yaml:"domain" env:"OPENSEARCH_DOMAIN"`
	Region             string `yaml:"region" env:"OPENSEARCH_REGION"`
	Username           string `yaml:"username" env:"OPENSEARCH_USERNAME"`
	Password           string `yaml:"password" env:"OPENSEARCH_PASSWORD"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" env:"OPENSEARCH_INSECURE_SKIP_VERIFY"`
}

// ChatConfig drives the question answering pipeline.
type ChatConfig struct {
	Profile          string        `yaml:"profile" env:"CHAT_PROFILE"`
	Index            string        `yaml:"index" env:"CHAT_INDEX"`
	TopK             int           `yaml:"top_k" env:"CHAT_TOP_K"`
	MaxMessageLength int           `yaml:"max_message_length" env:"CHAT_MAX_MESSAGE_LENGTH"`
	HistoryTTL       time.Duration `yaml:"history_ttl" env:"CHAT_HISTORY_TTL"`
}

type DatabaseConfig struct {
	URL               string        `yaml:"url" env:"DATABASE_URL"`
	MaxConns          int           `yaml:"max_conns" env:"DB_MAX_CONNS"`
	MinConns          int           `yaml:"min_conns" env:"DB_MIN_CONNS"`
	MaxConnLifetime   time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME"`
	MaxConnIdleTime   time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME"`
	HealthCheckPeriod time.Duration `yaml:"health_check_period" env:"DB_HEALTH_CHECK_PERIOD"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string  `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	UpdateTimeout      int     `yaml:"update_timeout" env:"TELEGRAM_UPDATE_TIMEOUT"`
	MaxConcurrentUsers int     `yaml:"max_concurrent_users" env:"TELEGRAM_MAX_CONCURRENT_USERS"`
	RateLimitPerMinute int     `yaml:"rate_limit_per_minute" env:"TELEGRAM_RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst     int     `yaml:"rate_limit_burst" env:"TELEGRAM_RATE_LIMIT_BURST"`
	ShutdownTimeout    int     `yaml:"shutdown_timeout" env:"TELEGRAM_SHUTDOWN_TIMEOUT"` // seconds
	AllowedUserIDs     []int64 `yaml:"allowed_user_ids" env:"TELEGRAM_ALLOWED_USER_IDS" envSeparator:","`
}

// ASRConfig controls transcription of Telegram voice questions.
type ASRConfig struct {
	Enabled          bool          `yaml:"enabled" env:"ASR_ENABLED"`
	Model            string        `yaml:"model" env:"ASR_MODEL"`
	Timeout          time.Duration `yaml:"timeout" env:"ASR_TIMEOUT"`
	MaxVoiceDuration int           `yaml:"max_voice_duration" env:"ASR_MAX_VOICE_DURATION"` // seconds
	OpenAI           OpenAIConfig  `yaml:"openai" envPrefix:"ASR_OPENAI_"`
}

type AuthConfig struct {
	Enabled         bool   `yaml:"enabled" env:"AUTH_ENABLED"`
	CredentialsPath string `yaml:"credentials_path" env:"AUTH_CREDENTIALS_PATH"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `yaml:"timeout" env:"TIMEOUT"`
	ConnTimeout           time.Duration `yaml:"conn_timeout" env:"CONN_TIMEOUT"`
	KeepAlive             time.Duration `yaml:"keep_alive" env:"KEEP_ALIVE"`
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout" env:"IDLE_CONN_TIMEOUT"`
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout" env:"RESPONSE_HEADER_TIMEOUT"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	pathFlag := flag.String("config", "", "Path to the YAML configuration file")
	flag.Parse()

	return Load(*envFlag, *pathFlag)
}

// Load reads .env.<environment>, the YAML file and environment overrides, in that order.
func Load(environment, path string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment overrides: %w", err)
	}

	cfg.Environment = environment
	cfg.applyDefaults()

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFile decodes a YAML configuration file without applying overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	// login gates the web UI unless the file turns it off
	cfg := &Config{Auth: AuthConfig{Enabled: true}}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.LogLevel, "info")
	setDefault(&c.Server.Addr, ":8080")
	setDefault(&c.Server.ReadTimeout, 15*time.Second)
	// model calls may take up to the Bedrock read timeout twice per turn
	setDefault(&c.Server.RequestTimeout, 20*time.Minute)
	setDefault(&c.Server.WriteTimeout, c.Server.RequestTimeout+30*time.Second)

	setDefault(&c.Bedrock.Region, "us-east-1")
	setDefault(&c.Bedrock.ReadTimeout, 600*time.Second)
	c.Bedrock.Retry = c.Bedrock.Retry.WithDefaults()

	setDefault(&c.LLM.Platform, PlatformBedrock)
	setDefault(&c.LLM.ModelID, "meta.llama3-70b-instruct-v1:0")
	setDefault(&c.LLM.MaxTokens, 2048)
	setDefault(&c.LLM.Temperature, 0.01)
	setDefault(&c.LLM.TopP, 0.9)

	setDefault(&c.Embedding.Platform, PlatformBedrock)
	setDefault(&c.Embedding.Name, "amazon.titan-embed-text-v2:0")
	setDefault(&c.Embedding.Dimension, 256)
	setDefault(&c.Embedding.Region, c.Bedrock.Region)

	setDefault(&c.Neptune.Port, 8182)
	setDefault(&c.Neptune.Protocol, GraphProtocolHTTPS)

	setDefault(&c.OpenSearch.Port, 443)
	setDefault(&c.OpenSearch.Region, c.Bedrock.Region)

	setDefault(&c.Chat.Profile, "profile1")
	setDefault(&c.Chat.Index, "text_neptune")
	setDefault(&c.Chat.TopK, 1)
	setDefault(&c.Chat.MaxMessageLength, 4000)
	setDefault(&c.Chat.HistoryTTL, 24*time.Hour)

	setDefault(&c.Database.MaxConns, 25)
	setDefault(&c.Database.MinConns, 5)
	setDefault(&c.Database.MaxConnLifetime, time.Hour)
	setDefault(&c.Database.MaxConnIdleTime, 30*time.Minute)
	setDefault(&c.Database.HealthCheckPeriod, time.Minute)

	setDefault(&c.Telegram.UpdateTimeout, 60)
	setDefault(&c.Telegram.MaxConcurrentUsers, 20)
	setDefault(&c.Telegram.RateLimitPerMinute, 10)
	setDefault(&c.Telegram.RateLimitBurst, 3)
	setDefault(&c.Telegram.ShutdownTimeout, 30)

	setDefault(&c.ASR.Model, "whisper-1")
	setDefault(&c.ASR.Timeout, 2*time.Minute)
	setDefault(&c.ASR.MaxVoiceDuration, 120)

	setDefault(&c.Auth.CredentialsPath, "config/credentials.yaml")
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

func validateConfig(cfg *Config) error {
	var errors []string

	if cfg.Embedding.Dimension <= 0 {
		errors = append(errors, fmt.Sprintf("EMBEDDING_DIMENSION must be positive, got %d", cfg.Embedding.Dimension))
	}

	if cfg.Chat.TopK < 1 {
		errors = append(errors, fmt.Sprintf("CHAT_TOP_K must be at least 1, got %d", cfg.Chat.TopK))
	}

	if cfg.Neptune.Port < 1 || cfg.Neptune.Port > 65535 {
		errors = append(errors, fmt.Sprintf("NEPTUNE_PORT must be between 1 and 65535, got %d", cfg.Neptune.Port))
	}

	if cfg.OpenSearch.Port < 1 || cfg.OpenSearch.Port > 65535 {
		errors = append(errors, fmt.Sprintf("OPENSEARCH_PORT must be between 1 and 65535, got %d", cfg.OpenSearch.Port))
	}

	if !oneOf(cfg.LLM.Platform, PlatformBedrock, PlatformOpenAI) {
		errors = append(errors, fmt.Sprintf("LLM_PLATFORM must be %s or %s, got %q", PlatformBedrock, PlatformOpenAI, cfg.LLM.Platform))
	}

	if !oneOf(cfg.Embedding.Platform, PlatformBedrock, PlatformOpenAI) {
		errors = append(errors, fmt.Sprintf("EMBEDDING_PLATFORM must be %s or %s, got %q", PlatformBedrock, PlatformOpenAI, cfg.Embedding.Platform))
	}

	if !oneOf(cfg.Neptune.Protocol, GraphProtocolHTTPS, GraphProtocolBolt) {
		errors = append(errors, fmt.Sprintf("GRAPH_PROTOCOL must be %s or %s, got %q", GraphProtocolHTTPS, GraphProtocolBolt, cfg.Neptune.Protocol))
	}

	if !cfg.EnableMocks {
		if cfg.Neptune.Endpoint == "" {
			errors = append(errors, "NEPTUNE_ENDPOINT is required when mocks are disabled")
		}
		if cfg.OpenSearch.Host == "" && cfg.OpenSearch.Domain == "" {
			errors = append(errors, "OPENSEARCH_HOST or OPENSEARCH_DOMAIN is required when mocks are disabled")
		}
	}

	if cfg.Database.MaxConns < 1 || cfg.Database.MaxConns > 200 {
		errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.Database.MaxConns))
	}

	if cfg.Database.MinConns < 0 || cfg.Database.MinConns > cfg.Database.MaxConns {
		errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.Database.MaxConns, cfg.Database.MinConns))
	}

	if cfg.Telegram.RateLimitPerMinute < 1 || cfg.Telegram.RateLimitPerMinute > 60 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", cfg.Telegram.RateLimitPerMinute))
	}

	if cfg.Telegram.RateLimitBurst < 1 || cfg.Telegram.RateLimitBurst > 20 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_BURST must be between 1 and 20, got %d", cfg.Telegram.RateLimitBurst))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
