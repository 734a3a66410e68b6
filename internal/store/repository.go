package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"nutriplan/internal/logging"
	"nutriplan/internal/mealplan"
	"nutriplan/internal/nutrition"
)

// Record keys. Values are opaque JSON blobs except the API key, which is
// stored as the bare string.
const (
	KeyPersonalInfo  = "personal_info"
	KeyMeals         = "meals_data"
	KeyAPIKey        = "gemini_api_key"
	KeyFirstTimeUser = "first_time_user"
)

// AllKeys lists every record the repository owns.
var AllKeys = []string{KeyPersonalInfo, KeyMeals, KeyAPIKey, KeyFirstTimeUser}

// ErrEmptyAPIKey is returned when saving a blank API key.
var ErrEmptyAPIKey = errors.New("api key is empty")

// ExportData is a backup snapshot. The API key itself is never exported.
type ExportData struct {
	PersonalInfo *nutrition.PersonalInfo `json:"personalInfo"`
	Meals        []mealplan.Meal         `json:"meals"`
	HasAPIKey    bool                    `json:"hasApiKey"`
}

// ImportData restores a backup. Only the parts present are written. It
// accepts the ExportData shape as is; HasAPIKey is read and ignored.
type ImportData struct {
	PersonalInfo *nutrition.PersonalInfo `json:"personalInfo,omitempty"`
	Meals        []mealplan.Meal         `json:"meals,omitempty"`
	APIKey       string                  `json:"apiKey,omitempty"`
	HasAPIKey    bool                    `json:"hasApiKey,omitempty"`
}

// Stats reports which records exist.
type Stats struct {
	HasPersonalInfo bool `json:"hasPersonalInfo"`
	HasMeals        bool `json:"hasMeals"`
	HasAPIKey       bool `json:"hasApiKey"`
	IsFirstTime     bool `json:"isFirstTime"`
}

// Repository maps application records onto a KV. Read failures are logged
// and reported as "no data"; write failures are logged and returned.
type Repository struct {
	kv  KV
	log *logging.Logger
}

// NewRepository wraps kv.
func NewRepository(kv KV) *Repository {
	return &Repository{kv: kv, log: logging.Get(logging.CategoryStore)}
}

// Close closes the underlying KV.
func (r *Repository) Close() error {
	return r.kv.Close()
}

func (r *Repository) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		r.log.Error("Error encoding %s: %v", key, err)
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.kv.Set(ctx, key, data); err != nil {
		r.log.Error("Error saving %s: %v", key, err)
		return err
	}
	logging.StoreDebug("Saved %s (%d bytes)", key, len(data))
	return nil
}

// getJSON decodes key into v. It returns false when the record is absent or
// unreadable.
func (r *Repository) getJSON(ctx context.Context, key string, v any) bool {
	data, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		r.log.Error("Error getting %s: %v", key, err)
		return false
	}
	if !ok || len(data) == 0 {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		r.log.Error("Error decoding %s: %v", key, err)
		return false
	}
	return true
}

func (r *Repository) delete(ctx context.Context, key string) error {
	if err := r.kv.Delete(ctx, key); err != nil {
		r.log.Error("Error clearing %s: %v", key, err)
		return err
	}
	logging.StoreDebug("Cleared %s", key)
	return nil
}

// =============================================================================
// PERSONAL INFO
// =============================================================================

func (r *Repository) SavePersonalInfo(ctx context.Context, info nutrition.PersonalInfo) error {
	return r.setJSON(ctx, KeyPersonalInfo, info)
}

// GetPersonalInfo returns nil when no profile is stored.
func (r *Repository) GetPersonalInfo(ctx context.Context) *nutrition.PersonalInfo {
	var info nutrition.PersonalInfo
	if !r.getJSON(ctx, KeyPersonalInfo, &info) {
		return nil
	}
	return &info
}

func (r *Repository) ClearPersonalInfo(ctx context.Context) error {
	return r.delete(ctx, KeyPersonalInfo)
}

// HasCompletedSetup reports whether a profile is stored.
func (r *Repository) HasCompletedSetup(ctx context.Context) bool {
	return r.GetPersonalInfo(ctx) != nil
}

// =============================================================================
// MEALS
// =============================================================================

func (r *Repository) SaveMeals(ctx context.Context, meals []mealplan.Meal) error {
	if meals == nil {
		meals = []mealplan.Meal{}
	}
	return r.setJSON(ctx, KeyMeals, meals)
}

// GetMeals returns nil when no meals record is stored.
func (r *Repository) GetMeals(ctx context.Context) []mealplan.Meal {
	var meals []mealplan.Meal
	if !r.getJSON(ctx, KeyMeals, &meals) {
		return nil
	}
	if meals == nil {
		meals = []mealplan.Meal{}
	}
	return meals
}

func (r *Repository) ClearMeals(ctx context.Context) error {
	return r.delete(ctx, KeyMeals)
}

// =============================================================================
// API KEY
// =============================================================================

// SaveAPIKey stores the trimmed key.
func (r *Repository) SaveAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyAPIKey
	}
	if err := r.kv.Set(ctx, KeyAPIKey, []byte(key)); err != nil {
		r.log.Error("Error saving Gemini API key: %v", err)
		return err
	}
	logging.Store("Gemini API key saved")
	return nil
}

// GetAPIKey returns "" when no key is stored.
func (r *Repository) GetAPIKey(ctx context.Context) string {
	data, ok, err := r.kv.Get(ctx, KeyAPIKey)
	if err != nil {
		r.log.Error("Error getting Gemini API key: %v", err)
		return ""
	}
	if !ok {
		return ""
	}
	return string(data)
}

func (r *Repository) ClearAPIKey(ctx context.Context) error {
	return r.delete(ctx, KeyAPIKey)
}

// =============================================================================
// FIRST RUN
// =============================================================================

func (r *Repository) SetFirstTimeUser(ctx context.Context, first bool) error {
	return r.setJSON(ctx, KeyFirstTimeUser, first)
}

// IsFirstTimeUser defaults to true when the flag was never written.
func (r *Repository) IsFirstTimeUser(ctx context.Context) bool {
	first := true
	if !r.getJSON(ctx, KeyFirstTimeUser, &first) {
		return true
	}
	return first
}

// =============================================================================
// BULK OPERATIONS
// =============================================================================

// ClearAll removes every record. All deletions are attempted; the joined
// error reports any that failed.
func (r *Repository) ClearAll(ctx context.Context) error {
	var errs []error
	for _, key := range AllKeys {
		if err := r.delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		logging.Store("All data cleared")
	}
	return errors.Join(errs...)
}

// Export reads the profile, meals and key presence concurrently.
func (r *Repository) Export(ctx context.Context) ExportData {
	var out ExportData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.PersonalInfo = r.GetPersonalInfo(gctx)
		return nil
	})
	g.Go(func() error {
		out.Meals = r.GetMeals(gctx)
		return nil
	})
	g.Go(func() error {
		out.HasAPIKey = r.GetAPIKey(gctx) != ""
		return nil
	})
	_ = g.Wait()
	return out
}

// Import writes whichever parts of data are present.
func (r *Repository) Import(ctx context.Context, data ImportData) error {
	g, gctx := errgroup.WithContext(ctx)
	if data.PersonalInfo != nil {
		info := *data.PersonalInfo
		g.Go(func() error { return r.SavePersonalInfo(gctx, info) })
	}
	if data.Meals != nil {
		meals := data.Meals
		g.Go(func() error { return r.SaveMeals(gctx, meals) })
	}
	if strings.TrimSpace(data.APIKey) != "" {
		key := data.APIKey
		g.Go(func() error { return r.SaveAPIKey(gctx, key) })
	}
	if err := g.Wait(); err != nil {
		r.log.Error("Error importing data: %v", err)
		return fmt.Errorf("import: %w", err)
	}
	logging.Store("Import complete (profile=%v meals=%v apiKey=%v)",
		data.PersonalInfo != nil, data.Meals != nil, data.APIKey != "")
	return nil
}

// Stats reports record presence. Reads run concurrently.
func (r *Repository) Stats(ctx context.Context) Stats {
	var s Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.HasPersonalInfo = r.GetPersonalInfo(gctx) != nil
		return nil
	})
	g.Go(func() error {
		s.HasMeals = r.GetMeals(gctx) != nil
		return nil
	})
	g.Go(func() error {
		s.HasAPIKey = r.GetAPIKey(gctx) != ""
		return nil
	})
	g.Go(func() error {
		s.IsFirstTime = r.IsFirstTimeUser(gctx)
		return nil
	})
	_ = g.Wait()
	return s
}
