package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"econavix/internal/logging"
	"econavix/internal/models"
)

// MaxJSONPlans caps the history kept in the JSON file; oldest entries are dropped
const MaxJSONPlans = 500

// JSONData represents the structure of the JSON file
type JSONData struct {
	Settings     models.Settings                      `json:"settings"`
	Plans        []models.PlanRecord                  `json:"plans"`
	GeocodeCache map[string]models.GeocodeCacheEntry `json:"geocode_cache"`
}

// JSONStore is a JSON file-based data store. Every write rewrites the file.
type JSONStore struct {
	filePath string
	data     *JSONData
	mu       sync.RWMutex
	logger   *zap.Logger

	settingsRepository     SettingsRepository
	planRepository         PlanRepository
	geocodeCacheRepository GeocodeCacheRepository
}

func (s *JSONStore) Settings() SettingsRepository         { return s.settingsRepository }
func (s *JSONStore) Plans() PlanRepository                { return s.planRepository }
func (s *JSONStore) GeocodeCache() GeocodeCacheRepository { return s.geocodeCacheRepository }

// NewJSONStore opens or creates the JSON data file at filePath
func NewJSONStore(filePath string, logger *zap.Logger) (*JSONStore, error) {
	logger = logging.OrNop(logger).Named("jsonstore")

	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	logger.Info("using JSON data file", zap.String("path", filePath))

	store := &JSONStore{
		filePath: filePath,
		data:     &JSONData{},
		logger:   logger,
	}

	if err := store.load(); err != nil {
		return nil, err
	}

	store.settingsRepository = &jsonSettingsRepository{store: store}
	store.planRepository = &jsonPlanRepository{store: store}
	store.geocodeCacheRepository = &jsonGeocodeCacheRepository{store: store}

	return store, nil
}

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		s.data = &JSONData{
			Settings:     models.DefaultSettings(),
			Plans:        []models.PlanRecord{},
			GeocodeCache: map[string]models.GeocodeCacheEntry{},
		}
		return s.saveUnlocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}

	if err := json.Unmarshal(data, s.data); err != nil {
		return fmt.Errorf("failed to parse data file: %w", err)
	}

	if s.data.Plans == nil {
		s.data.Plans = []models.PlanRecord{}
	}
	if s.data.GeocodeCache == nil {
		s.data.GeocodeCache = map[string]models.GeocodeCacheEntry{}
	}
	if !s.data.Settings.Theme.Valid() {
		s.data.Settings.Theme = models.ThemeLight
	}

	s.logger.Info("loaded data",
		zap.Int("plans", len(s.data.Plans)),
		zap.Int("geocode_entries", len(s.data.GeocodeCache)),
	)
	return nil
}

func (s *JSONStore) saveUnlocked() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Write to temp file first, then rename (atomic)
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Close is a no-op for JSON store (data is saved after each operation)
func (s *JSONStore) Close() error {
	return nil
}

// HealthCheck reports whether the data file is still reachable
func (s *JSONStore) HealthCheck(ctx context.Context) error {
	if _, err := os.Stat(s.filePath); err != nil {
		return fmt.Errorf("data file unavailable: %w", err)
	}
	return nil
}

// ==================== Settings Repository ====================

type jsonSettingsRepository struct {
	store *JSONStore
}

func (r *jsonSettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s := r.store.data.Settings
	return &s, nil
}

func (r *jsonSettingsRepository) Update(ctx context.Context, s *models.Settings) error {
	if !s.Theme.Valid() {
		return fmt.Errorf("invalid theme %q", s.Theme)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.data.Settings = *s
	if err := r.store.saveUnlocked(); err != nil {
		return err
	}

	r.store.logger.Debug("updated settings", zap.String("theme", string(s.Theme)), zap.Bool("use_miles", s.UseMiles))
	return nil
}

func (r *jsonSettingsRepository) Modify(ctx context.Context, fn func(*models.Settings)) (*models.Settings, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s := r.store.data.Settings
	fn(&s)
	if !s.Theme.Valid() {
		return nil, fmt.Errorf("invalid theme %q", s.Theme)
	}

	r.store.data.Settings = s
	if err := r.store.saveUnlocked(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ==================== Plan Repository ====================

type jsonPlanRepository struct {
	store *JSONStore
}

func (r *jsonPlanRepository) List(ctx context.Context, limit, offset int) ([]models.PlanRecord, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	plans := append([]models.PlanRecord(nil), r.store.data.Plans...)
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})

	total := len(plans)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []models.PlanRecord{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return plans[offset:end], total, nil
}

func (r *jsonPlanRepository) GetByID(ctx context.Context, id string) (*models.PlanRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, p := range r.store.data.Plans {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *jsonPlanRepository) Create(ctx context.Context, p *models.PlanRecord) (*models.PlanRecord, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("plan id is required")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	r.store.data.Plans = append(r.store.data.Plans, *p)
	if n := len(r.store.data.Plans); n > MaxJSONPlans {
		r.store.data.Plans = r.store.data.Plans[n-MaxJSONPlans:]
	}

	if err := r.store.saveUnlocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *jsonPlanRepository) Clear(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.data.Plans = []models.PlanRecord{}
	return r.store.saveUnlocked()
}

// ==================== Geocode Cache Repository ====================

type jsonGeocodeCacheRepository struct {
	store *JSONStore
}

func (r *jsonGeocodeCacheRepository) Get(ctx context.Context, key string) (*models.GeocodeCacheEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	entry, ok := r.store.data.GeocodeCache[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (r *jsonGeocodeCacheRepository) Set(ctx context.Context, entry *models.GeocodeCacheEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e := *entry
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.store.data.GeocodeCache[e.Key] = e
	return r.store.saveUnlocked()
}

func (r *jsonGeocodeCacheRepository) Clear(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.data.GeocodeCache = map[string]models.GeocodeCacheEntry{}
	return r.store.saveUnlocked()
}
