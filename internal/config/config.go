package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all AgriScan server configuration.
type Config struct {
	Server ServerConfig
	Model  ModelConfig
	Upload UploadConfig
	Store  StoreConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

// ModelConfig holds inference engine settings.
type ModelConfig struct {
	ModelPath    string
	MetadataPath string
	TopK         int
	Version      string
}

// UploadConfig holds upload validation limits.
type UploadConfig struct {
	MaxFileSize       int64
	AllowedExtensions []string
	AllowedMIMETypes  []string
}

// StoreConfig holds persistence settings. Driver is "postgres" when a DSN
// is configured, "memory" otherwise.
type StoreConfig struct {
	Driver string
	DSN    string
}

const defaultMaxFileSize = 25 << 20 // 25 MiB

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	dsn := os.Getenv("DATABASE_URL")
	driver := getenv("AGRISCAN_STORE", "")
	if driver == "" {
		if dsn != "" {
			driver = "postgres"
		} else {
			driver = "memory"
		}
	}

	return Config{
		Server: ServerConfig{
			Port:        getenv("PORT", "8080"),
			CORSOrigins: splitList(getenv("CORS_ORIGINS", "*")),
		},
		Model: ModelConfig{
			ModelPath:    getenv("AGRISCAN_MODEL_PATH", "models/plant_disease_model.onnx"),
			MetadataPath: getenv("AGRISCAN_METADATA_PATH", "models/model_metadata.json"),
			TopK:         getenvInt("AGRISCAN_TOP_K", 5),
			Version:      getenv("AGRISCAN_MODEL_VERSION", "1.0"),
		},
		Upload: UploadConfig{
			MaxFileSize:       getenvInt64("AGRISCAN_MAX_UPLOAD_BYTES", defaultMaxFileSize),
			AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
			AllowedMIMETypes:  []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		},
		Store: StoreConfig{
			Driver: driver,
			DSN:    dsn,
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getenvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
