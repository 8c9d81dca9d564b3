package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
	Output    OutputConfig
	Reference ReferenceConfig
	Overlay   OverlayConfig
	Logging   LoggingConfig
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey         string
	EnableFallback bool
}

type OutputConfig struct {
	Dir    string
	Styles []string
}

type ReferenceConfig struct {
	DownloadDir    string
	EnableDownload bool
	MaxImages      int
}

type OverlayConfig struct {
	FontPath string
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-3-pro-image-preview"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		Output: OutputConfig{
			Dir:    getEnv("OUTPUT_DIR", "portraits"),
			Styles: parseCommaSeparated(getEnv("PORTRAIT_STYLES", "BW,Sepia,Color,Painting")),
		},
		Reference: ReferenceConfig{
			DownloadDir:    getEnv("REFERENCE_DOWNLOAD_DIR", "reference_downloads"),
			EnableDownload: getEnvBool("REFERENCE_ENABLE_DOWNLOAD", true),
			MaxImages:      getEnvInt("REFERENCE_MAX_IMAGES", 5),
		},
		Overlay: OverlayConfig{
			FontPath: getEnv("OVERLAY_FONT_PATH", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if len(c.Output.Styles) == 0 {
		return fmt.Errorf("PORTRAIT_STYLES is required")
	}
	if c.Reference.MaxImages < 0 {
		return fmt.Errorf("REFERENCE_MAX_IMAGES must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
