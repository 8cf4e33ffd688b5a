package location

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"econavix/internal/geocoding"
	"econavix/internal/logging"
	"econavix/internal/models"
)

// DefaultCenter is used when the device position cannot be obtained
var DefaultCenter = models.Coordinates{Lat: 38.8977, Lng: -77.0365}

// NoticeUnavailable is shown when the map falls back to DefaultCenter
const NoticeUnavailable = "Location unavailable. Showing the default map area."

// ReverseGeocoder turns the first fix into an address for the origin field
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) string
}

// Snapshot is what the map needs to render
type Snapshot struct {
	Live          *models.Coordinates `json:"live,omitempty"`
	Center        models.Coordinates  `json:"center"`
	OriginPrefill string              `json:"origin_prefill,omitempty"`
	Notice        string              `json:"notice,omitempty"`
	Ready         bool                `json:"ready"`
}

// Tracker keeps the live position and the map center. The center follows
// the live position only while no route is displayed.
type Tracker struct {
	source      Source
	reverse     ReverseGeocoder
	routeActive func() bool
	logger      *zap.Logger

	mu      sync.RWMutex
	snap    Snapshot
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// NewTracker creates a tracker. reverse and routeActive may be nil.
func NewTracker(source Source, reverse ReverseGeocoder, routeActive func() bool, logger *zap.Logger) *Tracker {
	if routeActive == nil {
		routeActive = func() bool { return false }
	}
	return &Tracker{
		source:      source,
		reverse:     reverse,
		routeActive: routeActive,
		logger:      logging.OrNop(logger).Named("location"),
		snap:        Snapshot{Center: DefaultCenter},
	}
}

// Start performs the initial fetch and then follows updates in the
// background until Stop is called or ctx ends. A tracker runs at most once.
func (t *Tracker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.mu.Lock()
	if t.stopped || t.done != nil {
		t.mu.Unlock()
		cancel()
		return
	}
	t.cancel, t.done = cancel, done
	t.mu.Unlock()

	coords, err := t.source.Current(ctx)
	if err != nil {
		t.logger.Warn("initial location failed, using default center", zap.Error(err))
		t.mu.Lock()
		t.snap.Center = DefaultCenter
		t.snap.Notice = NoticeUnavailable
		t.snap.Ready = true
		t.mu.Unlock()
	} else {
		live := coords
		t.mu.Lock()
		t.snap.Live = &live
		t.snap.Center = coords
		t.snap.Notice = ""
		t.snap.Ready = true
		t.mu.Unlock()
		t.prefill(ctx, coords)
	}

	updates, err := t.source.Watch(ctx)
	if err != nil {
		t.logger.Warn("location watch unavailable", zap.Error(err))
		close(done)
		return
	}
	go t.follow(updates, done)
}

func (t *Tracker) prefill(ctx context.Context, coords models.Coordinates) {
	if t.reverse == nil {
		return
	}
	addr := t.reverse.ReverseGeocode(ctx, coords.Lat, coords.Lng)
	switch addr {
	case "", geocoding.InvalidLocation, geocoding.ErrorLocation, geocoding.UnknownLocation:
		t.logger.Info("no address for current position", zap.String("result", addr))
		return
	}
	t.mu.Lock()
	t.snap.OriginPrefill = addr
	t.mu.Unlock()
	t.logger.Info("origin prefilled from current position", zap.String("address", addr))
}

func (t *Tracker) follow(updates <-chan Fix, done chan struct{}) {
	defer close(done)
	for fix := range updates {
		if fix.Err != nil {
			t.logger.Warn("location watch error", zap.Error(fix.Err))
			continue
		}
		t.update(fix.Coords)
	}
}

func (t *Tracker) update(coords models.Coordinates) {
	follow := !t.routeActive()

	t.mu.Lock()
	defer t.mu.Unlock()
	live := coords
	t.snap.Live = &live
	t.snap.Notice = ""
	t.snap.Ready = true
	if follow {
		t.snap.Center = coords
	}
}

// Recenter moves the map center explicitly
func (t *Tracker) Recenter(coords models.Coordinates) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Center = coords
}

// Snapshot returns a copy of the current view
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.snap
	if s.Live != nil {
		live := *s.Live
		s.Live = &live
	}
	return s
}

// Stop cancels the run and waits for it to finish, including an initial
// fetch that is still in progress.
func (t *Tracker) Stop() {
	t.mu.Lock()
	t.stopped = true
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	t.logger.Info("location watch stopped")
}
