package dataset

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"greenbite/internal/core/emissions"
	"greenbite/internal/core/recipe"
	"greenbite/internal/infrastructure/config"
	"greenbite/internal/pkg/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Snapshot 一次載入的兩份參考資料；任何一份可能為 nil（載入失敗）
type Snapshot struct {
	Recipes   *recipe.Table
	Emissions *emissions.Table
	Version   string
	LoadedAt  time.Time
	Errors    map[string]string
}

// Ready 兩份資料都可用
func (s *Snapshot) Ready() bool {
	return s != nil && s.Recipes != nil && s.Emissions != nil
}

// Status 資料集狀態
type Status struct {
	Version       string            `json:"version"`
	LoadedAt      time.Time         `json:"loaded_at"`
	Recipes       int               `json:"recipes"`
	EmissionsRows int               `json:"emissions_rows"`
	Ready         bool              `json:"ready"`
	Errors        map[string]string `json:"errors,omitempty"`
}

// Status 摘要
func (s *Snapshot) Status() Status {
	if s == nil {
		return Status{}
	}
	return Status{
		Version:       s.Version,
		LoadedAt:      s.LoadedAt,
		Recipes:       s.Recipes.Len(),
		EmissionsRows: s.Emissions.Len(),
		Ready:         s.Ready(),
		Errors:        s.Errors,
	}
}

// Loader 由檔案建立快照
type Loader struct {
	cfg config.DatasetsConfig
}

// NewLoader 創建載入器
func NewLoader(cfg config.DatasetsConfig) *Loader {
	return &Loader{cfg: cfg}
}

// Paths 監看的檔案路徑
func (l *Loader) Paths() []string {
	return []string{l.cfg.RecipesPath, l.cfg.EmissionsPath}
}

// Load 讀取兩份資料集；單一資料集失敗時記錄在 Snapshot.Errors，不中斷另一份
func (l *Loader) Load(ctx context.Context) *Snapshot {
	snap := &Snapshot{
		Version:  uuid.NewString(),
		LoadedAt: time.Now(),
		Errors:   make(map[string]string),
	}

	if tbl, err := l.loadRecipes(); err != nil {
		snap.Errors["recipes"] = err.Error()
		common.LogError("Failed to load recipes dataset", zap.String("path", l.cfg.RecipesPath), zap.Error(err))
	} else {
		snap.Recipes = tbl
	}

	if err := ctx.Err(); err != nil {
		snap.Errors["emissions"] = err.Error()
		return snap
	}

	if tbl, err := l.loadEmissions(); err != nil {
		snap.Errors["emissions"] = err.Error()
		common.LogError("Failed to load emissions dataset", zap.String("path", l.cfg.EmissionsPath), zap.Error(err))
	} else {
		snap.Emissions = tbl
	}

	return snap
}

func (l *Loader) loadRecipes() (*recipe.Table, error) {
	headers, rows, err := ReadFile(l.cfg.RecipesPath)
	if err != nil {
		return nil, err
	}
	return recipe.NewTable(headers, rows, recipe.Columns{
		Title:       l.cfg.RecipeTitleColumn,
		Ingredients: l.cfg.RecipeIngredientsColumn,
	})
}

func (l *Loader) loadEmissions() (*emissions.Table, error) {
	headers, rows, err := ReadFile(l.cfg.EmissionsPath)
	if err != nil {
		return nil, err
	}
	return emissions.NewTable(headers, rows)
}

// Source 產生快照的來源
type Source interface {
	Load(ctx context.Context) *Snapshot
}

// Store 以原子指標保存目前的快照；讀取端永遠看到完整的一份
type Store struct {
	source  Source
	current atomic.Pointer[Snapshot]
	mu      sync.Mutex
	onSwap  []func(*Snapshot)
}

// NewStore 創建快照存放區
func NewStore(source Source) *Store {
	return &Store{source: source}
}

// OnSwap 註冊快照切換後的回呼
func (s *Store) OnSwap(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSwap = append(s.onSwap, fn)
}

// Current 目前的快照，尚未載入時為 nil
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Set 直接替換快照
func (s *Store) Set(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swap(snap)
}

// Reload 重新載入並切換快照；單一資料表失敗時沿用舊表，兩份都失敗時保留舊快照
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	snap := s.source.Load(ctx)
	if snap == nil {
		return s.current.Load(), fmt.Errorf("dataset source returned no snapshot")
	}
	prev := s.current.Load()
	if prev != nil {
		if snap.Recipes == nil && snap.Emissions == nil {
			common.LogWarn("Dataset reload failed, keeping previous snapshot",
				zap.Any("errors", snap.Errors),
			)
			return prev, fmt.Errorf("reload failed: %v", snap.Errors)
		}
		snap = carryOver(snap, prev)
	}

	s.swap(snap)
	common.LogInfo("Datasets loaded",
		zap.String("version", snap.Version),
		zap.Int("recipes", snap.Recipes.Len()),
		zap.Int("emissions_rows", snap.Emissions.Len()),
		zap.Bool("ready", snap.Ready()),
		zap.Duration("duration", time.Since(start)),
	)
	return snap, nil
}

// carryOver 載入失敗的資料表沿用前一份快照，錯誤仍保留在 Errors
func carryOver(snap, prev *Snapshot) *Snapshot {
	next := *snap
	if next.Recipes == nil && prev.Recipes != nil {
		next.Recipes = prev.Recipes
		common.LogWarn("Recipes reload failed, keeping previous table", zap.String("error", snap.Errors["recipes"]))
	}
	if next.Emissions == nil && prev.Emissions != nil {
		next.Emissions = prev.Emissions
		common.LogWarn("Emissions reload failed, keeping previous table", zap.String("error", snap.Errors["emissions"]))
	}
	return &next
}

// swap 呼叫前須持有鎖
func (s *Store) swap(snap *Snapshot) {
	s.current.Store(snap)
	for _, fn := range s.onSwap {
		fn(snap)
	}
}
