package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"econavix/internal/database"
	"econavix/internal/geocoding"
	"econavix/internal/logging"
	"econavix/internal/models"
	"econavix/internal/optimizer"
	"econavix/internal/present"
)

// AddressResolver turns addresses into coordinates
type AddressResolver interface {
	Geocode(ctx context.Context, address string) (*geocoding.GeocodingResult, error)
}

// Advisor writes a recommendation when the backend did not send one
type Advisor interface {
	Advise(ctx context.Context, origin, destination string, result *models.RouteResult) (string, error)
}

// Publisher announces finished plans
type Publisher interface {
	Publish(ctx context.Context, record models.PlanRecord) error
}

// Option configures a Planner
type Option func(*Planner)

// WithHistory records every finished run
func WithHistory(repo database.PlanRepository) Option {
	return func(p *Planner) { p.history = repo }
}

// WithPublisher publishes every finished run
func WithPublisher(pub Publisher) Option {
	return func(p *Planner) { p.publisher = pub }
}

// WithAdvisor fills in missing recommendations
func WithAdvisor(a Advisor) Option {
	return func(p *Planner) { p.advisor = a }
}

// WithRecenter is called with the origin once both addresses resolve
func WithRecenter(fn func(models.Coordinates)) Option {
	return func(p *Planner) { p.recenter = fn }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// Planner sequences address resolution and the optimizer call into one
// outcome per request, and owns the shared state the UI renders.
type Planner struct {
	resolver  AddressResolver
	optimizer optimizer.RouteOptimizer
	history   database.PlanRepository
	publisher Publisher
	advisor   Advisor
	recenter  func(models.Coordinates)
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.RWMutex
	issued uint64
	state  State
}

// New creates a planner
func New(resolver AddressResolver, opt optimizer.RouteOptimizer, logger *zap.Logger, opts ...Option) *Planner {
	p := &Planner{
		resolver:  resolver,
		optimizer: opt,
		logger:    logging.OrNop(logger).Named("planner"),
		now:       time.Now,
		state:     State{Phase: PhaseIdle},
	}
	for _, o := range opts {
		o(p)
	}
	p.state.UpdatedAt = p.now()
	return p
}

// State returns a copy of the shared state
func (p *Planner) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// HasRoute reports whether a route is currently displayed
func (p *Planner) HasRoute() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Result != nil
}

// ClearRoute drops the displayed route and error
func (p *Planner) ClearRoute() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.Result = nil
	p.state.Error = nil
	p.state.OriginCoords = nil
	p.state.DestinationCoords = nil
	if !p.state.Loading {
		p.state.Phase = PhaseIdle
	}
	p.state.UpdatedAt = p.now()
	p.logger.Info("route cleared")
}

type run struct {
	gen     uint64
	outcome Outcome
}

// Plan runs the full pipeline for one origin/destination pair. It always
// returns exactly one of a route or a PlanError, and the loading flag it
// raised is cleared on every exit path.
func (p *Planner) Plan(ctx context.Context, origin, destination string) (out Outcome) {
	r := p.begin(origin, destination)

	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("plan panicked", zap.Uint64("generation", r.gen), zap.Any("panic", rec))
			r.outcome.Result = nil
			r.fail(p, &PlanError{
				Kind:    KindUnknown,
				Reason:  reasonForPhase(r.outcome.Final()),
				Message: MsgRouteFailed,
				Err:     fmt.Errorf("panic: %v", rec),
			})
		}
		r.outcome.Applied = p.complete(r)
		out = r.outcome
		p.record(ctx, out)
	}()

	p.execute(ctx, r, origin, destination)
	return r.outcome
}

func (p *Planner) begin(origin, destination string) *run {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.issued++
	gen := p.issued

	p.state.Generation = gen
	p.state.Origin = origin
	p.state.Destination = destination
	p.state.Loading = true
	p.state.Phase = PhaseIdle
	p.state.UpdatedAt = p.now()

	p.logger.Info("plan started",
		zap.Uint64("generation", gen),
		zap.String("origin", origin),
		zap.String("destination", destination),
	)

	return &run{
		gen: gen,
		outcome: Outcome{
			Generation:  gen,
			Origin:      origin,
			Destination: destination,
			Phases:      []Phase{PhaseIdle},
		},
	}
}

func (p *Planner) execute(ctx context.Context, r *run, origin, destination string) {
	p.advance(r, PhaseValidating)
	if !geocoding.ValidateAddress(origin) || !geocoding.ValidateAddress(destination) {
		r.fail(p, &PlanError{Kind: KindInvalidInput, Reason: ReasonInvalidAddress, Message: MsgInvalidAddresses})
		return
	}

	p.advance(r, PhaseGeocodingOrigin)
	from, err := p.resolver.Geocode(ctx, origin)
	if err != nil {
		r.fail(p, classifyGeocodeError(err))
		return
	}
	r.outcome.OriginCoords = &from.Coords

	p.advance(r, PhaseGeocodingDestination)
	to, err := p.resolver.Geocode(ctx, destination)
	if err != nil {
		r.fail(p, classifyGeocodeError(err))
		return
	}
	r.outcome.DestinationCoords = &to.Coords

	if p.recenter != nil && p.isNewest(r.gen) {
		p.recenter(from.Coords)
	}

	p.advance(r, PhaseRequestingRoute)
	result, err := p.optimizer.Recommend(ctx, from.Coords, to.Coords)
	if err != nil {
		r.fail(p, classifyOptimizerError(err))
		return
	}
	if !result.Drawable() {
		r.fail(p, &PlanError{
			Kind:    KindTransportError,
			Reason:  ReasonBackendError,
			Message: MsgRouteFailed,
			Err:     optimizer.ErrRouteTooShort,
		})
		return
	}

	p.advise(ctx, origin, destination, result)

	r.outcome.Result = result
	p.advance(r, PhaseDone)
}

func (p *Planner) advise(ctx context.Context, origin, destination string, result *models.RouteResult) {
	if p.advisor == nil || result.Recommendation != "" {
		return
	}
	text, err := p.advisor.Advise(ctx, origin, destination, result)
	if err != nil {
		p.logger.Warn("advisor failed", zap.Error(err))
		return
	}
	if text != "" {
		result.Recommendation = text
		result.RecommendationSource = models.RecommendationFromAdvisor
	}
}

func (r *run) fail(p *Planner, perr *PlanError) {
	r.outcome.Err = perr
	p.logger.Warn("plan failed",
		zap.Uint64("generation", r.gen),
		zap.String("phase", string(r.outcome.Final())),
		zap.String("kind", string(perr.Kind)),
		zap.String("reason", string(perr.Reason)),
		zap.String("message", perr.Message),
		zap.Error(perr.Err),
	)
	p.advance(r, PhaseFailed)
}

func (p *Planner) advance(r *run, next Phase) {
	current := r.outcome.Final()
	if !current.CanTransitionTo(next) {
		p.logger.Error("invalid phase transition",
			zap.Uint64("generation", r.gen),
			zap.String("from", string(current)),
			zap.String("to", string(next)),
		)
		return
	}
	r.outcome.Phases = append(r.outcome.Phases, next)

	p.mu.Lock()
	defer p.mu.Unlock()
	if r.gen == p.issued {
		p.state.Phase = next
		p.state.UpdatedAt = p.now()
	}
}

func (p *Planner) isNewest(gen uint64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return gen == p.issued
}

// complete applies the outcome if no newer run has been applied yet and
// drops the loading flag when this run is the newest one issued.
func (p *Planner) complete(r *run) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	applied := false
	if r.gen > p.state.AppliedGeneration {
		p.state.AppliedGeneration = r.gen
		if r.outcome.Err == nil {
			p.state.Result = r.outcome.Result
			p.state.Error = nil
		} else {
			p.state.Result = nil
			p.state.Error = r.outcome.Err
		}
		p.state.OriginCoords = r.outcome.OriginCoords
		p.state.DestinationCoords = r.outcome.DestinationCoords
		applied = true
	} else {
		p.logger.Info("discarding superseded outcome",
			zap.Uint64("generation", r.gen),
			zap.Uint64("applied_generation", p.state.AppliedGeneration),
		)
	}

	if r.gen == p.issued {
		p.state.Loading = false
	}
	p.state.UpdatedAt = p.now()
	return applied
}

func (p *Planner) record(ctx context.Context, out Outcome) {
	if p.history == nil && p.publisher == nil {
		return
	}

	rec := models.PlanRecord{
		ID:          uuid.NewString(),
		Generation:  out.Generation,
		Origin:      out.Origin,
		Destination: out.Destination,
		Status:      models.PlanStatusDone,
		CreatedAt:   p.now().UTC(),
	}
	if out.Err != nil {
		rec.Status = models.PlanStatusFailed
		rec.ErrorKind = string(out.Err.Kind)
		rec.FailureReason = string(out.Err.Reason)
		rec.ErrorMessage = out.Err.Message
	}
	if out.Result != nil {
		rec.RoutePoints = len(out.Result.Route)
		rec.EmissionsSavedKg = present.EmissionsSaved(out.Result.Comparison)
		if c := out.Result.Comparison; c != nil && c.Optimized != nil {
			rec.DistanceKm = c.Optimized.DistanceKm
		}
	}

	// The request context may already be done; history and events outlive it.
	bg := context.WithoutCancel(ctx)

	if p.history != nil {
		if _, err := p.history.Create(bg, &rec); err != nil {
			p.logger.Warn("failed to record plan history", zap.String("id", rec.ID), zap.Error(err))
		}
	}
	if p.publisher != nil {
		if err := p.publisher.Publish(bg, rec); err != nil {
			p.logger.Warn("failed to publish plan event", zap.String("id", rec.ID), zap.Error(err))
		}
	}
}

func classifyGeocodeError(err error) *PlanError {
	var gerr *geocoding.ErrGeocodingFailed
	switch {
	case errors.Is(err, context.Canceled):
		return &PlanError{Kind: KindUnknown, Reason: ReasonProviderError, Message: MsgRouteFailed, Err: err}
	case errors.Is(err, geocoding.ErrAddressNotFound):
		return &PlanError{Kind: KindNotFound, Reason: ReasonAddressNotFound, Message: MsgAddressNotFound, Err: err}
	case errors.As(err, &gerr):
		return &PlanError{Kind: KindTransportError, Reason: ReasonProviderError, Message: MsgRouteFailed, Err: err}
	default:
		return &PlanError{Kind: KindUnknown, Reason: ReasonProviderError, Message: MsgRouteFailed, Err: err}
	}
}

func classifyOptimizerError(err error) *PlanError {
	var oerr *optimizer.ErrOptimizerFailed
	switch {
	case errors.Is(err, context.Canceled):
		return &PlanError{Kind: KindUnknown, Reason: ReasonBackendError, Message: MsgRouteFailed, Err: err}
	case errors.As(err, &oerr):
		msg := MsgRouteFailed
		if oerr.Message != "" {
			msg = oerr.Message
		}
		return &PlanError{Kind: KindTransportError, Reason: ReasonBackendError, Message: msg, Err: err}
	default:
		return &PlanError{Kind: KindUnknown, Reason: ReasonBackendError, Message: MsgRouteFailed, Err: err}
	}
}

func reasonForPhase(phase Phase) FailureReason {
	switch phase {
	case PhaseValidating:
		return ReasonInvalidAddress
	case PhaseGeocodingOrigin, PhaseGeocodingDestination:
		return ReasonProviderError
	default:
		return ReasonBackendError
	}
}
