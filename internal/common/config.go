package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	LLM      LLMConfig
	Document DocumentConfig
	Pricing  PricingConfig
	Log      LogConfig
}

// DatabaseConfig holds catalog database configuration.
// DSN is either a SQLite file path / file: URI or a postgres:// URL.
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
	PersistOffers   bool
}

// ServerConfig holds listener addresses for offerd
type ServerConfig struct {
	GRPCAddr string
	HTTPAddr string
}

// LLMConfig holds completion endpoint configuration
type LLMConfig struct {
	Model            string
	APIKey           string
	BaseURL          string
	Temperature      float32
	Timeout          time.Duration
	MaxRetries       int
	StructuredOutput bool
}

// DocumentConfig controls the rendered quote
type DocumentConfig struct {
	OutputDir     string
	PhotoCacheDir string
	LogoPath      string
	PhotoPaths    []string
	FontPath      string
	CompanyName   string
	Phone         string
	Email         string
	Website       string
}

// PricingConfig holds pricing knobs
type PricingConfig struct {
	Currency             string
	AccessorySurcharge   float64
	RequiredFieldsPolicy string
}

// LogConfig selects zap level and encoder
type LogConfig struct {
	Level  string
	Format string
}

const (
	PolicyWarn  = "warn"
	PolicyBlock = "block"
)

// LoadDotEnv loads a .env file into the process environment unless ENV=production.
// A missing file is not an error.
func LoadDotEnv(logger *zap.Logger, paths ...string) {
	if strings.EqualFold(os.Getenv("ENV"), "production") {
		return
	}
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil && logger != nil {
			logger.Warn("config.dotenv.load_failed", zap.String("path", p), zap.Error(err))
		}
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", "offers.db"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			PersistOffers:   getEnvAsBool("PERSIST_OFFERS", true),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8081"),
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		LLM: LLMConfig{
			Model:            getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:           getEnv("OPENAI_API_KEY", ""),
			BaseURL:          getEnv("OPENAI_BASE_URL", ""),
			Temperature:      getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:          getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
			MaxRetries:       getEnvAsInt("OPENAI_MAX_RETRIES", 1),
			StructuredOutput: getEnvAsBool("OPENAI_STRUCTURED_OUTPUT", true),
		},
		Document: DocumentConfig{
			OutputDir:     getEnv("OUTPUT_DIR", "./temp"),
			PhotoCacheDir: getEnv("PHOTO_CACHE_DIR", "./temp/photos"),
			LogoPath:      getEnv("LOGO_PATH", "images/logo.png"),
			PhotoPaths:    getEnvAsList("OFFER_PHOTOS", []string{"images/test1.jpeg", "images/test2.jpeg", "images/test3.jpeg"}),
			FontPath:      getEnv("FONT_PATH", ""),
			CompanyName:   getEnv("COMPANY_NAME", "Autoadaptacje"),
			Phone:         getEnv("CONTACT_PHONE", "+48 123 456 789"),
			Email:         getEnv("CONTACT_EMAIL", "kontakt@autoadaptacje.pl"),
			Website:       getEnv("CONTACT_WEBSITE", "www.autoadaptacje.pl"),
		},
		Pricing: PricingConfig{
			Currency:             getEnv("CURRENCY", "PLN"),
			AccessorySurcharge:   getEnvAsFloat64("ACCESSORY_SURCHARGE", 100),
			RequiredFieldsPolicy: strings.ToLower(getEnv("REQUIRED_FIELDS_POLICY", PolicyWarn)),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks.
// An explicitly empty list is written as "-".
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if value == "-" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "DB_URL is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError(CodeConfig, "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.LLM.Timeout <= 0 {
		return NewAppError(CodeConfig, "OPENAI_TIMEOUT must be positive", ErrInvalidInput)
	}
	if c.LLM.MaxRetries < 0 {
		return NewAppError(CodeConfig, "OPENAI_MAX_RETRIES must not be negative", ErrInvalidInput)
	}
	if c.Document.OutputDir == "" {
		return NewAppError(CodeConfig, "OUTPUT_DIR is required", ErrInvalidInput)
	}
	switch c.Pricing.RequiredFieldsPolicy {
	case PolicyWarn, PolicyBlock:
	default:
		return NewAppError(CodeConfig, "REQUIRED_FIELDS_POLICY must be warn or block", ErrInvalidInput)
	}
	if v := NewValidator().Field("CURRENCY", c.Pricing.Currency, CurrencyCode); v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
