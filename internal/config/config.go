package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port       int                   `json:"port"`
	LogConfig  logger.LogConfig      `json:"log_config"`
	Database   DatabaseConfig        `json:"database"`
	FileStore  FileStoreConfig       `json:"file_store"`
	AI         AIConfig              `json:"ai"`
	Ingest     IngestConfig          `json:"ingest"`
	RateLimits map[string]RatePolicy `json:"rate_limits"`
	Schedule   ScheduleConfig        `json:"schedule"`
	CORS       []string              `json:"cors_origins"`
	DemoKey    string                `json:"demo_key"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	Provider  string      `json:"provider"`
	Model     string      `json:"model"`
	Dimension int         `json:"dimension"`
	CacheSize int         `json:"cache_size"`
	CacheTTL  int         `json:"cache_ttl_seconds"`
	Data      interface{} `json:"data"`
}

type IngestConfig struct {
	ChunkSize        int `json:"chunk_size"`
	ChunkOverlap     int `json:"chunk_overlap"`
	MinChunkChars    int `json:"min_chunk_chars"`
	MaxChunksPerDoc  int `json:"max_chunks_per_doc"`
	MaxPDFPages      int `json:"max_pdf_pages"`
	MaxPDFMB         int `json:"max_pdf_mb"`
	WorkerPoolSize   int `json:"worker_pool_size"`
	UploadTTLSeconds int `json:"upload_ttl_seconds"`
}

type RatePolicy struct {
	Limit         int `json:"limit"`
	WindowSeconds int `json:"window_seconds"`
}

type ScheduleConfig struct {
	StaleCleanupSpec  string `json:"stale_cleanup_spec"`
	StalePendingHours int    `json:"stale_pending_hours"`
}

// DefaultRateLimits mirrors the route policies the service ships with.
// Paths not present in the map are never rate limited.
func DefaultRateLimits() map[string]RatePolicy {
	return map[string]RatePolicy{
		"ask":               {Limit: 10, WindowSeconds: 3600},
		"documents/ingest":  {Limit: 3, WindowSeconds: 86400},
		"documents/presign": {Limit: 10, WindowSeconds: 86400},
		"documents/confirm": {Limit: 20, WindowSeconds: 86400},
	}
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "text-embedding-3-small"
	}
	if cfg.AI.Dimension == 0 {
		cfg.AI.Dimension = 1536
	}
	applyIngestDefaults(&cfg.Ingest)
	if len(cfg.RateLimits) == 0 {
		cfg.RateLimits = DefaultRateLimits()
	}
	for route, policy := range cfg.RateLimits {
		if policy.Limit <= 0 || policy.WindowSeconds <= 0 {
			return nil, fmt.Errorf("rate_limits.%s: limit and window_seconds must be positive", route)
		}
	}
	if cfg.Schedule.StaleCleanupSpec == "" {
		cfg.Schedule.StaleCleanupSpec = "0 * * * *"
	}
	if cfg.Schedule.StalePendingHours <= 0 {
		cfg.Schedule.StalePendingHours = 24
	}
	return &cfg, nil
}

func applyIngestDefaults(cfg *IngestConfig) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = 150
	}
	if cfg.MinChunkChars <= 0 {
		cfg.MinChunkChars = 20
	}
	if cfg.MaxChunksPerDoc <= 0 {
		cfg.MaxChunksPerDoc = 500
	}
	if cfg.MaxPDFPages <= 0 {
		cfg.MaxPDFPages = 100
	}
	if cfg.MaxPDFMB <= 0 {
		cfg.MaxPDFMB = 10
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 4
	}
	if cfg.UploadTTLSeconds <= 0 {
		cfg.UploadTTLSeconds = 3600
	}
}
