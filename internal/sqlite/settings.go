package sqlite

import (
	"context"
	"fmt"

	"econavix/internal/models"
)

type settingsRepository struct {
	store *Store
}

func (r *settingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.get(ctx)
}

func (r *settingsRepository) Update(ctx context.Context, s *models.Settings) error {
	if !s.Theme.Valid() {
		return fmt.Errorf("invalid theme %q", s.Theme)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.update(ctx, s)
}

// Modify reads, changes and writes the settings row under one write lock
func (r *settingsRepository) Modify(ctx context.Context, fn func(*models.Settings)) (*models.Settings, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, err := r.get(ctx)
	if err != nil {
		return nil, err
	}
	fn(s)
	if !s.Theme.Valid() {
		return nil, fmt.Errorf("invalid theme %q", s.Theme)
	}
	if err := r.update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *settingsRepository) get(ctx context.Context) (*models.Settings, error) {
	query := `SELECT theme, use_miles FROM settings WHERE id = 1`

	var s models.Settings
	var theme string
	var useMiles int

	err := r.store.db.QueryRowContext(ctx, query).Scan(&theme, &useMiles)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	s.Theme = models.Theme(theme)
	if !s.Theme.Valid() {
		s.Theme = models.ThemeLight
	}
	s.UseMiles = useMiles == 1

	return &s, nil
}

func (r *settingsRepository) update(ctx context.Context, s *models.Settings) error {
	useMiles := 0
	if s.UseMiles {
		useMiles = 1
	}

	query := `UPDATE settings SET theme = ?, use_miles = ? WHERE id = 1`
	_, err := r.store.db.ExecContext(ctx, query, string(s.Theme), useMiles)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	return nil
}
