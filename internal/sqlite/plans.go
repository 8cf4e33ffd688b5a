package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"econavix/internal/database"
	"econavix/internal/models"
)

type planRepository struct {
	store *Store
}

const planColumns = `id, generation, origin, destination, status, error_kind, failure_reason,
	error_message, distance_km, emissions_saved_kg, route_points, created_at_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*models.PlanRecord, error) {
	var p models.PlanRecord
	var createdMs int64
	err := row.Scan(
		&p.ID, &p.Generation, &p.Origin, &p.Destination, &p.Status,
		&p.ErrorKind, &p.FailureReason, &p.ErrorMessage,
		&p.DistanceKm, &p.EmissionsSavedKg, &p.RoutePoints, &createdMs,
	)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = fromMillis(createdMs)
	return &p, nil
}

func (r *planRepository) List(ctx context.Context, limit, offset int) ([]models.PlanRecord, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var total int
	if err := r.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plans`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count plans: %w", err)
	}

	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + planColumns + `
	          FROM plans
	          ORDER BY created_at_ms DESC, rowid DESC
	          LIMIT ? OFFSET ?`

	rows, err := r.store.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	plans := []models.PlanRecord{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating plans: %w", err)
	}

	return plans, total, nil
}

func (r *planRepository) GetByID(ctx context.Context, id string) (*models.PlanRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row := r.store.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return p, nil
}

func (r *planRepository) Create(ctx context.Context, p *models.PlanRecord) (*models.PlanRecord, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("plan id is required")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.store.now()
	}

	query := `INSERT INTO plans (` + planColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.store.db.ExecContext(ctx, query,
		p.ID, p.Generation, p.Origin, p.Destination, p.Status,
		p.ErrorKind, p.FailureReason, p.ErrorMessage,
		p.DistanceKm, p.EmissionsSavedKg, p.RoutePoints, toMillis(p.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	p.CreatedAt = fromMillis(toMillis(p.CreatedAt))
	return p, nil
}

func (r *planRepository) Clear(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, err := r.store.db.ExecContext(ctx, `DELETE FROM plans`); err != nil {
		return fmt.Errorf("failed to clear plans: %w", err)
	}
	return nil
}
