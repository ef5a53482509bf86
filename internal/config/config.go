package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	DataDir          string
	Port             string
	MCPPort          string
	ReadTimeout      int
	WriteTimeout     int
	HistoryLimit     int
	AutosaveSchedule string
	TemplateDir      string
	ExportDir        string
	DesignsAPIURL    string
	JPEGQuality      int
	ExportScale      float64
}

// Load reads the configuration from environment variables.
func Load() *Config {
	dataDir := getEnv("DESIGNER_DATA_DIR", defaultDataDir())
	return &Config{
		DataDir:          dataDir,
		Port:             getEnv("PORT", "3000"),
		MCPPort:          getEnv("MCP_PORT", "3001"),
		ReadTimeout:      getEnvAsInt("READ_TIMEOUT", 30),
		WriteTimeout:     getEnvAsInt("WRITE_TIMEOUT", 60),
		HistoryLimit:     getEnvAsInt("HISTORY_LIMIT", 40),
		AutosaveSchedule: getEnv("AUTOSAVE_SCHEDULE", "@every 30s"),
		TemplateDir:      getEnv("TEMPLATE_DIR", ""),
		ExportDir:        getEnv("EXPORT_DIR", filepath.Join(dataDir, "exports")),
		DesignsAPIURL:    getEnv("DESIGNS_API_URL", ""),
		JPEGQuality:      getEnvAsInt("JPEG_QUALITY", 90),
		ExportScale:      getEnvAsFloat("EXPORT_SCALE", 2),
	}
}

// DBPath is the SQLite file inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "designer.db")
}

// UploadDir holds uploaded images, served under /uploads/.
func (c *Config) UploadDir() string {
	return filepath.Join(c.DataDir, "uploads")
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".designer")
	}
	return ".designer"
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
