package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"econavix/internal/database"
	"econavix/internal/models"
)

func geocodingKey(lat, lng float64) string {
	return fmt.Sprintf("%.5f,%.5f", models.RoundCoordinate(lat), models.RoundCoordinate(lng))
}

// MockPlanRepository is an in-memory PlanRepository
type MockPlanRepository struct {
	mu      sync.Mutex
	records []models.PlanRecord
	Err     error
}

func NewMockPlanRepository() *MockPlanRepository {
	return &MockPlanRepository{}
}

func (r *MockPlanRepository) List(ctx context.Context, limit, offset int) ([]models.PlanRecord, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := append([]models.PlanRecord(nil), r.records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })

	total := len(sorted)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return sorted[offset:end], total, nil
}

func (r *MockPlanRepository) GetByID(ctx context.Context, id string) (*models.PlanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].ID == id {
			rec := r.records[i]
			return &rec, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *MockPlanRepository) Create(ctx context.Context, p *models.PlanRecord) (*models.PlanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	r.records = append(r.records, *p)
	return p, nil
}

func (r *MockPlanRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
	return nil
}

// Records returns everything created so far, oldest first
func (r *MockPlanRepository) Records() []models.PlanRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.PlanRecord(nil), r.records...)
}

// MockPublisher collects published plan records
type MockPublisher struct {
	mu      sync.Mutex
	Records []models.PlanRecord
	Err     error
}

func (p *MockPublisher) Publish(ctx context.Context, record models.PlanRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Records = append(p.Records, record)
	return nil
}

// Published returns a snapshot of the published records
func (p *MockPublisher) Published() []models.PlanRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.PlanRecord(nil), p.Records...)
}
