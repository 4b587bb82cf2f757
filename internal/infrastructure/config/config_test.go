package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir 在沒有 .env 的暫存目錄中執行
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		viper.Reset()
	})
	viper.Reset()
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 20*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "title", cfg.Datasets.RecipeTitleColumn)
	assert.Equal(t, "NER", cfg.Datasets.RecipeIngredientsColumn)
	assert.Equal(t, 80, cfg.Matching.EmissionsMinConfidence)
	assert.Equal(t, 5, cfg.Matching.CandidateLimit)
	assert.Equal(t, "last_write_wins", cfg.Matching.DuplicatePolicy)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, time.Second, cfg.DedupWindow)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowOrigins)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	inTempDir(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DUPLICATE_POLICY", "sum")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("APP_MATCHING_RECIPE_THRESHOLD", "70")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sum", cfg.Matching.DuplicatePolicy)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 70, cfg.Matching.RecipeThreshold)
}

func TestLoadConfig_DotEnvFile(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EMISSIONS_DATASET=data/emissions.xlsx\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("EMISSIONS_DATASET") })

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "data/emissions.xlsx", cfg.Datasets.EmissionsPath)
}

func TestLoadConfig_Invalid(t *testing.T) {
	inTempDir(t)
	t.Setenv("DUPLICATE_POLICY", "average")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate policy")
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8000, MaxBodyBytes: 1024},
			Datasets: DatasetsConfig{RecipesPath: "r.csv", EmissionsPath: "e.csv"},
			Matching: MatchingConfig{EmissionsMinConfidence: 80, RecipeThreshold: 80},
			Cache:    CacheConfig{Enabled: true, Backend: CacheBackendMemory, MaxSize: 10, TTL: time.Minute, CleanupInterval: time.Minute},
		}
	}

	assert.NoError(t, validateConfig(base()))

	cfg := base()
	cfg.Cache.Backend = "memcached"
	assert.Error(t, validateConfig(cfg))

	cfg = base()
	cfg.Matching.EmissionsMinConfidence = 101
	assert.Error(t, validateConfig(cfg))

	cfg = base()
	cfg.Predictor = PredictorConfig{Enabled: true}
	assert.Error(t, validateConfig(cfg))

	cfg = base()
	cfg.Datasets.EmissionsPath = ""
	assert.Error(t, validateConfig(cfg))
}

func TestSummaryMasksSecrets(t *testing.T) {
	cfg := &Config{Redis: RedisConfig{Password: "supersecret"}}
	assert.Equal(t, "su...et", cfg.Summary()["redis_password"])
}
