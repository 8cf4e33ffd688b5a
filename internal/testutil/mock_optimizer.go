package testutil

import (
	"context"
	"sync"

	"econavix/internal/models"
)

// OptimizerCall tracks a call to the optimizer
type OptimizerCall struct {
	Origin models.Coordinates
	Dest   models.Coordinates
}

// MockOptimizer is a mock route optimizer. When Gates has an entry for a
// call's index, that call blocks until the channel is closed or the context
// ends. Started, if set, receives once per call before blocking.
type MockOptimizer struct {
	mu      sync.Mutex
	Result  *models.RouteResult
	Err     error
	Gates   map[int]chan struct{}
	Started chan struct{}
	Panic   any
	Calls   []OptimizerCall
}

func NewMockOptimizer() *MockOptimizer {
	return &MockOptimizer{Result: SampleRoute()}
}

// SampleRoute is a three-point Washington to New York route
func SampleRoute() *models.RouteResult {
	return &models.RouteResult{
		Route: []models.Coordinates{
			WhiteHouse,
			{Lat: 39.9526, Lng: -75.1652},
			NewYork,
		},
		Comparison: &models.Comparison{
			Original:  &models.RouteStats{DistanceKm: 370, DurationMinutes: 240, CarbonEmissionsKg: 80},
			Optimized: &models.RouteStats{DistanceKm: 360, DurationMinutes: 225, CarbonEmissionsKg: 70},
		},
		Recommendation:       "1. Take I-95 north 2. Keep a steady speed",
		RecommendationSource: models.RecommendationFromBackend,
	}
}

// Recommend returns a copy of Result or Err
func (m *MockOptimizer) Recommend(ctx context.Context, origin, dest models.Coordinates) (*models.RouteResult, error) {
	m.mu.Lock()
	gate := m.Gates[len(m.Calls)]
	m.Calls = append(m.Calls, OptimizerCall{Origin: origin, Dest: dest})
	started, p := m.Started, m.Panic
	m.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p != nil {
		panic(p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result == nil {
		return nil, nil
	}
	cp := *m.Result
	cp.Route = append([]models.Coordinates(nil), m.Result.Route...)
	return &cp, nil
}

// CallCount returns the number of recorded calls
func (m *MockOptimizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockAdvisor returns a fixed recommendation
type MockAdvisor struct {
	mu    sync.Mutex
	Text  string
	Err   error
	Calls int
}

func (a *MockAdvisor) Advise(ctx context.Context, origin, destination string, result *models.RouteResult) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Calls++
	return a.Text, a.Err
}
