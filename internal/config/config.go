package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Display  DisplayConfig
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

// DataConfig locates the sales export and controls how it is normalized.
type DataConfig struct {
	SourceFile string
	SheetName  string
	// SchemaFile is an optional YAML profile overriding the column candidate lists.
	SchemaFile    string
	CacheDir      string
	StrictNumbers bool
}

// DisplayConfig holds the dashboard defaults a client may override per request.
type DisplayConfig struct {
	USDRate float64
	ShowUSD bool
	TopN    int
}

const (
	MinUSDRate = 100
	MaxUSDRate = 2000
	MinTopN    = 5
	MaxTopN    = 30
)

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableCSRF      bool
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Data: DataConfig{
			SourceFile:    getEnvString("DATA_SOURCE_FILE", "ventas.xlsx"),
			SheetName:     getEnvString("DATA_SHEET_NAME", "Data venta"),
			SchemaFile:    getEnvString("DATA_SCHEMA_FILE", ""),
			CacheDir:      getEnvString("DATA_CACHE_DIR", ".cache"),
			StrictNumbers: getEnvBool("DATA_STRICT_NUMBERS", false),
		},
		Display: DisplayConfig{
			USDRate: getEnvFloat("DISPLAY_USD_RATE", 950),
			ShowUSD: getEnvBool("DISPLAY_SHOW_USD", true),
			TopN:    getEnvInt("DISPLAY_TOP_N", 12),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableCSRF:      getEnvBool("SECURITY_CSRF_ENABLED", true),
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
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

	if c.Data.SourceFile == "" {
		return fmt.Errorf("data source file cannot be empty")
	}

	if c.Display.USDRate < MinUSDRate || c.Display.USDRate > MaxUSDRate {
		return fmt.Errorf("USD rate must be between %d and %d, got %g", MinUSDRate, MaxUSDRate, c.Display.USDRate)
	}

	if c.Display.TopN < MinTopN || c.Display.TopN > MaxTopN {
		return fmt.Errorf("top N must be between %d and %d, got %d", MinTopN, MaxTopN, c.Display.TopN)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
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
		return strings.Split(value, ",")
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	return slices.Contains(slice, item)
}

// ClampTopN bounds n to the accepted top-N range, using def when n is unset.
func ClampTopN(n, def int) int {
	if n <= 0 {
		n = def
	}
	return min(max(n, MinTopN), MaxTopN)
}

// ClampUSDRate bounds rate to the accepted exchange rate range, using def
// when rate is unset.
func ClampUSDRate(rate, def float64) float64 {
	if rate <= 0 {
		rate = def
	}
	return min(max(rate, MinUSDRate), MaxUSDRate)
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
