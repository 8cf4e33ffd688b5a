package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"econavix/internal/models"
)

// DefaultTimeout matches the browser geolocation timeout the page uses
const DefaultTimeout = 10 * time.Second

// ErrUnavailable is returned when no position can be obtained
var ErrUnavailable = errors.New("location unavailable")

// Fix is one position update, or the error the host location service reported
type Fix struct {
	Coords models.Coordinates `json:"coords"`
	Err    error              `json:"-"`
	At     time.Time          `json:"at"`
}

// Source provides the device position
type Source interface {
	// Current returns a single position
	Current(ctx context.Context) (models.Coordinates, error)
	// Watch streams updates until ctx ends, then closes the channel
	Watch(ctx context.Context) (<-chan Fix, error)
}

// PushSource is fed by the browser through the location endpoint
type PushSource struct {
	timeout time.Duration
	now     func() time.Time

	mu     sync.Mutex
	last   *Fix
	first  chan struct{}
	closed bool
	subs   map[chan Fix]struct{}
}

// NewPushSource creates a source whose Current waits up to timeout for the first push
func NewPushSource(timeout time.Duration) *PushSource {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &PushSource{
		timeout: timeout,
		now:     time.Now,
		first:   make(chan struct{}),
		subs:    make(map[chan Fix]struct{}),
	}
}

// Push records a new position
func (s *PushSource) Push(coords models.Coordinates) error {
	if !coords.Valid() {
		return fmt.Errorf("invalid coordinates: %v,%v", coords.Lat, coords.Lng)
	}
	s.publish(Fix{Coords: coords, At: s.now()})
	return nil
}

// Fail records a failure reported by the host location service
func (s *PushSource) Fail(reason string) {
	if reason == "" {
		reason = "unknown error"
	}
	s.publish(Fix{Err: fmt.Errorf("%w: %s", ErrUnavailable, reason), At: s.now()})
}

func (s *PushSource) publish(f Fix) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = &f
	if !s.closed {
		close(s.first)
		s.closed = true
	}
	for ch := range s.subs {
		select {
		case ch <- f:
		default:
			// slow subscriber, drop the update
		}
	}
}

// Current returns the latest push, waiting for the first one if needed
func (s *PushSource) Current(ctx context.Context) (models.Coordinates, error) {
	s.mu.Lock()
	first := s.first
	s.mu.Unlock()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case <-first:
	case <-timer.C:
		return models.Coordinates{}, fmt.Errorf("%w: timed out after %s", ErrUnavailable, s.timeout)
	case <-ctx.Done():
		return models.Coordinates{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last.Err != nil {
		return models.Coordinates{}, s.last.Err
	}
	return s.last.Coords, nil
}

// Watch subscribes to future pushes
func (s *PushSource) Watch(ctx context.Context) (<-chan Fix, error) {
	ch := make(chan Fix, 8)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// StaticSource reports a fixed position, or none
type StaticSource struct {
	Coords *models.Coordinates
}

func (s StaticSource) Current(ctx context.Context) (models.Coordinates, error) {
	if s.Coords == nil {
		return models.Coordinates{}, ErrUnavailable
	}
	return *s.Coords, nil
}

// Watch never produces updates; the channel closes with ctx
func (s StaticSource) Watch(ctx context.Context) (<-chan Fix, error) {
	ch := make(chan Fix)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}
