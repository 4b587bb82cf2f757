package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Datasets    DatasetsConfig  `mapstructure:"datasets"`
	Matching    MatchingConfig  `mapstructure:"matching"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Redis       RedisConfig     `mapstructure:"redis"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Predictor   PredictorConfig `mapstructure:"predictor"`
	CORS        CORSConfig      `mapstructure:"cors"`
	Log         LogConfig       `mapstructure:"log"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// DatasetsConfig 參考資料集設定
type DatasetsConfig struct {
	RecipesPath             string        `mapstructure:"recipes_path"`
	EmissionsPath           string        `mapstructure:"emissions_path"`
	RecipeTitleColumn       string        `mapstructure:"recipe_title_column"`
	RecipeIngredientsColumn string        `mapstructure:"recipe_ingredients_column"`
	Watch                   bool          `mapstructure:"watch"`
	WatchDebounce           time.Duration `mapstructure:"watch_debounce"`
}

// MatchingConfig 比對門檻設定
type MatchingConfig struct {
	EmissionsMinConfidence int    `mapstructure:"emissions_min_confidence"`
	RecipeThreshold        int    `mapstructure:"recipe_threshold"`
	CandidateLimit         int    `mapstructure:"candidate_limit"`
	DuplicatePolicy        string `mapstructure:"duplicate_policy"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
	Burst    int           `mapstructure:"burst"`
}

// PredictorConfig 外部評分模型服務設定
type PredictorConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// CORSConfig 跨來源設定
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// LogConfig 日誌設定
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Mode       string `mapstructure:"mode"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// 快取後端
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// LoadConfig 載入設定，.env 檔案不存在時只使用環境變數與預設值
func LoadConfig() (*Config, error) {
	// 加載 .env 文件
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"server.port":               "PORT",
		"datasets.recipes_path":     "RECIPES_DATASET",
		"datasets.emissions_path":   "EMISSIONS_DATASET",
		"datasets.watch":            "DATASETS_WATCH",
		"matching.duplicate_policy": "DUPLICATE_POLICY",
		"cache.enabled":             "CACHE_ENABLED",
		"cache.backend":             "CACHE_BACKEND",
		"redis.addr":                "REDIS_ADDR",
		"redis.password":            "REDIS_PASSWORD",
		"rate_limit.enabled":        "RATE_LIMIT_ENABLED",
		"rate_limit.requests":       "RATE_LIMIT_REQUESTS",
		"rate_limit.window":         "RATE_LIMIT_WINDOW",
		"predictor.enabled":         "PREDICTOR_ENABLED",
		"predictor.url":             "PREDICTOR_URL",
		"cors.allow_origins":        "CORS_ALLOW_ORIGINS",
		"dedup_window":              "DEDUP_WINDOW",
		"log.level":                 "LOG_LEVEL",
		"log.mode":                  "LOG_MODE",
		"log.file":                  "LOG_FILE",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskSecret 遮罩密碼，只顯示前後各 2 個字符
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "..." + s[len(s)-2:]
}

// Summary 可安全輸出到日誌的設定摘要
func (c *Config) Summary() map[string]interface{} {
	return map[string]interface{}{
		"env":              c.App.Env,
		"port":             c.Server.Port,
		"recipes_path":     c.Datasets.RecipesPath,
		"emissions_path":   c.Datasets.EmissionsPath,
		"duplicate_policy": c.Matching.DuplicatePolicy,
		"cache_backend":    c.Cache.Backend,
		"cache_enabled":    c.Cache.Enabled,
		"redis_password":   maskSecret(c.Redis.Password),
		"predictor":        c.Predictor.URL,
	}
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "greenbite")

	// 伺服器設定
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.request_timeout", "20s")
	viper.SetDefault("server.max_body_bytes", 1<<20) // 1MB

	// 資料集設定
	viper.SetDefault("datasets.recipes_path", "datasets/filtered_recipes_1m.csv.gz")
	viper.SetDefault("datasets.emissions_path", "datasets/Food_Product_Emissions.csv")
	viper.SetDefault("datasets.recipe_title_column", "title")
	viper.SetDefault("datasets.recipe_ingredients_column", "NER")
	viper.SetDefault("datasets.watch", false)
	viper.SetDefault("datasets.watch_debounce", "2s")

	// 比對設定
	viper.SetDefault("matching.emissions_min_confidence", 80)
	viper.SetDefault("matching.recipe_threshold", 80)
	viper.SetDefault("matching.candidate_limit", 5)
	viper.SetDefault("matching.duplicate_policy", "last_write_wins")

	// 快取設定
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.backend", CacheBackendMemory)
	viper.SetDefault("cache.max_size", 1000)
	viper.SetDefault("cache.ttl", "1h")
	viper.SetDefault("cache.cleanup_interval", "10m")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")
	viper.SetDefault("rate_limit.burst", 20)

	// 評分模型設定
	viper.SetDefault("predictor.enabled", false)
	viper.SetDefault("predictor.url", "http://localhost:8001")
	viper.SetDefault("predictor.timeout", "5s")
	viper.SetDefault("predictor.retries", 1)

	viper.SetDefault("cors.allow_origins", []string{"http://localhost:3000"})

	// 日誌設定
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.mode", "")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 5)
	viper.SetDefault("log.max_age_days", 28)

	viper.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}
	if config.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid max body bytes")
	}

	if config.Datasets.RecipesPath == "" || config.Datasets.EmissionsPath == "" {
		return fmt.Errorf("dataset paths are required")
	}

	if c := config.Matching.EmissionsMinConfidence; c < 0 || c > 100 {
		return fmt.Errorf("invalid emissions min confidence: %d", c)
	}
	if c := config.Matching.RecipeThreshold; c < 0 || c > 100 {
		return fmt.Errorf("invalid recipe threshold: %d", c)
	}
	switch strings.ToLower(config.Matching.DuplicatePolicy) {
	case "", "last_write_wins", "sum":
	default:
		return fmt.Errorf("invalid duplicate policy: %s", config.Matching.DuplicatePolicy)
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case CacheBackendMemory:
			if config.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case CacheBackendRedis:
			if config.Redis.Addr == "" {
				return fmt.Errorf("redis addr is required for redis cache")
			}
		default:
			return fmt.Errorf("invalid cache backend: %s", config.Cache.Backend)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	if config.Predictor.Enabled && config.Predictor.URL == "" {
		return fmt.Errorf("predictor url is required")
	}

	return nil
}
