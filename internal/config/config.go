package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int               `json:"port"`
	LogConfig   logger.LogConfig  `json:"log_config"`
	Database    DatabaseConfig    `json:"database"`
	VectorStore VectorStoreConfig `json:"vector_store"`
	FileStore   FileStoreConfig   `json:"file_store"`
	AI          AIConfig          `json:"ai"`
	Jobs        JobsConfig        `json:"jobs"`
	CORSOrigins []string          `json:"cors_origins"`
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

type VectorStoreConfig struct {
	Dir string `json:"dir"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type EmbedConfig struct {
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	BatchSize       int    `json:"batch_size"`
	CacheSize       int    `json:"cache_size"`
	CacheTTLMinutes int    `json:"cache_ttl_minutes"`
	DBCache         bool   `json:"db_cache"`
}

type AIConfig struct {
	OpenAI         ProviderConfig `json:"openai"`
	Gemini         ProviderConfig `json:"gemini"`
	Embed          EmbedConfig    `json:"embed"`
	TimeoutSeconds int            `json:"timeout_seconds"`
}

type JobsConfig struct {
	EmbeddingCacheCleanupSpec string `json:"embedding_cache_cleanup_spec"`
	EmbeddingCacheMaxAgeDays  int    `json:"embedding_cache_max_age_days"`
	IndexSweepSpec            string `json:"index_sweep_spec"`
	IndexTmpMaxAgeMinutes     int    `json:"index_tmp_max_age_minutes"`
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
	if cfg.VectorStore.Dir == "" {
		return nil, fmt.Errorf("vector_store.dir is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.AI.Embed.Provider == "" {
		cfg.AI.Embed.Provider = "openai"
	}
	if cfg.AI.Embed.Model == "" {
		cfg.AI.Embed.Model = "text-embedding-3-small"
	}
	if cfg.AI.Embed.BatchSize <= 0 {
		cfg.AI.Embed.BatchSize = 64
	}
	if cfg.AI.Embed.CacheSize == 0 {
		cfg.AI.Embed.CacheSize = 10000
	}
	if cfg.AI.Embed.CacheTTLMinutes == 0 {
		cfg.AI.Embed.CacheTTLMinutes = 120
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 120
	}
	if cfg.Jobs.EmbeddingCacheCleanupSpec == "" {
		cfg.Jobs.EmbeddingCacheCleanupSpec = "30 3 * * *"
	}
	if cfg.Jobs.EmbeddingCacheMaxAgeDays <= 0 {
		cfg.Jobs.EmbeddingCacheMaxAgeDays = 30
	}
	if cfg.Jobs.IndexSweepSpec == "" {
		cfg.Jobs.IndexSweepSpec = "*/30 * * * *"
	}
	if cfg.Jobs.IndexTmpMaxAgeMinutes <= 0 {
		cfg.Jobs.IndexTmpMaxAgeMinutes = 60
	}
	return &cfg, nil
}
