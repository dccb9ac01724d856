package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	OCR        OCRConfig
	LLM        LLMConfig
	Validation ValidationConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr    string
	UploadDir   string
	MaxFileSize int64
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	PrimaryEngine       string // "tesseract" | "easyocr"
	Tesseract           string // binary name or absolute path
	Pdftoppm            string
	TesseractLang       string
	TessdataDir         string
	DPI                 int
	MaxPages            int
	EnableTSVConfidence bool
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	Provider      string // "ollama" | "openai" | "anthropic" | "huggingface"
	Model         string
	OpenAIKey     string
	AnthropicKey  string
	OpenAIBaseURL string
	OllamaBaseURL string
	Temperature   float32
	Timeout       time.Duration
}

// ValidationConfig holds thresholds consumed by the validation chain.
// The confidence thresholds are accepted and recorded but not enforced as
// hard gates anywhere in the pipeline yet.
type ValidationConfig struct {
	PriceChangeThreshold   float64
	OCRConfidenceThreshold float64
	LLMConfidenceThreshold float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
			UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
			MaxFileSize: int64(getEnvAsInt("MAX_FILE_SIZE", 10<<20)),
		},
		OCR: OCRConfig{
			PrimaryEngine:       getEnv("OCR_PRIMARY_ENGINE", "tesseract"),
			Tesseract:           getEnv("TESSERACT_BIN", "tesseract"),
			Pdftoppm:            getEnv("PDFTOPPM_BIN", "pdftoppm"),
			TesseractLang:       getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:         getEnv("TESSDATA_PREFIX", ""),
			DPI:                 getEnvAsInt("OCR_DPI", 300),
			MaxPages:            getEnvAsInt("OCR_MAX_PAGES", 0),
			EnableTSVConfidence: getEnvAsBool("OCR_TSV_CONFIDENCE", true),
		},
		LLM: LLMConfig{
			Provider:      getEnv("LLM_PROVIDER", "ollama"),
			Model:         getEnv("LLM_MODEL", ""),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:  getEnv("ANTHROPIC_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Temperature:   getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
		},
		Validation: ValidationConfig{
			PriceChangeThreshold:   getEnvAsFloat64("PRICE_CHANGE_THRESHOLD", 0.05),
			OCRConfidenceThreshold: getEnvAsFloat64("OCR_CONFIDENCE_THRESHOLD", 0.7),
			LLMConfidenceThreshold: getEnvAsFloat64("LLM_CONFIDENCE_THRESHOLD", 0.8),
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Validation.PriceChangeThreshold <= 0 {
		return NewAppError("CONFIG_ERROR", "PRICE_CHANGE_THRESHOLD must be positive", ErrInvalidInput)
	}
	return nil
}
