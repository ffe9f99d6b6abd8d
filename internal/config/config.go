package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Server   ServerConfig
	Datasets DatasetConfig
	Scenario ScenarioConfig
	LLM      LLMConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatasetConfig struct {
	BrandsFile      string
	CompetitorsFile string
	SupplyChainFile string
	LoadTimeout     time.Duration
}

type ScenarioConfig struct {
	Country string
}

type LLMConfig struct {
	Provider    string
	APIKey      string `json:"-"`
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// String omits the credential so the config can be logged.
func (c LLMConfig) String() string {
	return fmt.Sprintf("{Provider:%s Model:%s BaseURL:%s MaxTokens:%d Temperature:%.2f Timeout:%s}",
		c.Provider, c.Model, c.BaseURL, c.MaxTokens, c.Temperature, c.Timeout)
}

type LoggerConfig struct {
	Level  string
	Format string
	File   string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

// DefaultDatasets mirrors the layout of the exported data folder.
func DefaultDatasets() DatasetConfig {
	return DatasetConfig{
		BrandsFile:      getEnvString("DATA_BRANDS_FILE", "Data/brand.csv"),
		CompetitorsFile: getEnvString("DATA_COMPETITORS_FILE", "Data/competitors.csv"),
		SupplyChainFile: getEnvString("DATA_SUPPLY_CHAIN_FILE", "Data/Competitors_Supply_chain.csv"),
		LoadTimeout:     getEnvDuration("DATA_LOAD_TIMEOUT", 30*time.Second),
	}
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	provider := strings.ToLower(getEnvString("LLM_PROVIDER", ProviderOpenAI))

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8050),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Datasets: DefaultDatasets(),
		Scenario: ScenarioConfig{
			Country: getEnvString("SCENARIO_COUNTRY", "China"),
		},
		LLM: LLMConfig{
			Provider:    provider,
			APIKey:      apiKeyFor(provider),
			Model:       getEnvString("LLM_MODEL", defaultModel(provider)),
			BaseURL:     getEnvString("LLM_BASE_URL", "https://api.openai.com/v1"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 300),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			Timeout:     getEnvDuration("LLM_TIMEOUT", 45*time.Second),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
			File:   getEnvString("LOG_FILE", ""),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 50),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 20),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8050"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if err := c.Datasets.Validate(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Scenario.Country) == "" {
		return fmt.Errorf("scenario country cannot be empty")
	}

	if err := c.LLM.validate(); err != nil {
		return err
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func (d DatasetConfig) Validate() error {
	if d.BrandsFile == "" || d.CompetitorsFile == "" || d.SupplyChainFile == "" {
		return fmt.Errorf("dataset file paths cannot be empty")
	}
	if d.LoadTimeout <= 0 {
		return fmt.Errorf("dataset load timeout must be positive")
	}
	return nil
}

func (l LLMConfig) validate() error {
	switch l.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("invalid LLM provider %q, must be one of: %s, %s", l.Provider, ProviderOpenAI, ProviderGemini)
	}

	if l.APIKey == "" {
		return fmt.Errorf("%s must be set for LLM provider %q", apiKeyEnv(l.Provider), l.Provider)
	}

	if l.MaxTokens <= 0 {
		return fmt.Errorf("LLM max tokens must be positive")
	}

	if l.Timeout <= 0 {
		return fmt.Errorf("LLM timeout must be positive")
	}

	return nil
}

func apiKeyEnv(provider string) string {
	if provider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

func apiKeyFor(provider string) string {
	return getEnvString(apiKeyEnv(provider), "")
}

func defaultModel(provider string) string {
	if provider == ProviderGemini {
		return "gemini-2.0-flash"
	}
	return "gpt-3.5-turbo"
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
