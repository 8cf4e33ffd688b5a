package planner

import (
	"fmt"
	"time"

	"econavix/internal/models"
)

// Phase is a step of a single plan run
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseValidating           Phase = "validating"
	PhaseGeocodingOrigin      Phase = "geocoding_origin"
	PhaseGeocodingDestination Phase = "geocoding_destination"
	PhaseRequestingRoute      Phase = "requesting_route"
	PhaseDone                 Phase = "done"
	PhaseFailed               Phase = "failed"
)

var validTransitions = map[Phase][]Phase{
	PhaseIdle:                 {PhaseValidating},
	PhaseValidating:           {PhaseGeocodingOrigin, PhaseFailed},
	PhaseGeocodingOrigin:      {PhaseGeocodingDestination, PhaseFailed},
	PhaseGeocodingDestination: {PhaseRequestingRoute, PhaseFailed},
	PhaseRequestingRoute:      {PhaseDone, PhaseFailed},
	PhaseDone:                 {},
	PhaseFailed:               {},
}

// CanTransitionTo reports whether a run may move from p to next
func (p Phase) CanTransitionTo(next Phase) bool {
	for _, allowed := range validTransitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (p Phase) IsTerminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

func (p Phase) String() string {
	return string(p)
}

// ErrorKind is the coarse error taxonomy exposed to callers
type ErrorKind string

const (
	KindInvalidInput   ErrorKind = "invalid_input"
	KindNotFound       ErrorKind = "not_found"
	KindTransportError ErrorKind = "transport_error"
	KindUnknown        ErrorKind = "unknown"
)

// FailureReason records which step of the pipeline failed
type FailureReason string

const (
	ReasonInvalidAddress  FailureReason = "invalid_address"
	ReasonAddressNotFound FailureReason = "address_not_found"
	ReasonProviderError   FailureReason = "provider_error"
	ReasonBackendError    FailureReason = "backend_error"
)

// User-facing messages
const (
	MsgInvalidAddresses = "Please enter complete addresses for both origin and destination"
	MsgAddressNotFound  = "Unable to find one or both addresses. Please provide complete addresses including city and state."
	MsgRouteFailed      = "Unable to compute route. Please ensure the addresses are valid and try again."
)

// PlanError is the single error a failed run reports
type PlanError struct {
	Kind    ErrorKind     `json:"kind"`
	Reason  FailureReason `json:"reason"`
	Message string        `json:"message"`
	Err     error         `json:"-"`
}

func (e *PlanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Reason, e.Message)
}

func (e *PlanError) Unwrap() error {
	return e.Err
}

// State is the orchestrator-owned view of the most recent requests
type State struct {
	Origin            string              `json:"origin"`
	Destination       string              `json:"destination"`
	Phase             Phase               `json:"phase"`
	Loading           bool                `json:"loading"`
	Generation        uint64              `json:"generation"`
	AppliedGeneration uint64              `json:"applied_generation"`
	OriginCoords      *models.Coordinates `json:"origin_coords,omitempty"`
	DestinationCoords *models.Coordinates `json:"destination_coords,omitempty"`
	Result            *models.RouteResult `json:"result,omitempty"`
	Error             *PlanError          `json:"error,omitempty"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// Outcome is what one Plan call produced
type Outcome struct {
	Generation        uint64              `json:"generation"`
	Origin            string              `json:"origin"`
	Destination       string              `json:"destination"`
	OriginCoords      *models.Coordinates `json:"origin_coords,omitempty"`
	DestinationCoords *models.Coordinates `json:"destination_coords,omitempty"`
	Result            *models.RouteResult `json:"result,omitempty"`
	Err               *PlanError          `json:"error,omitempty"`
	Phases            []Phase             `json:"phases"`
	Applied           bool                `json:"applied"`
}

// Succeeded reports whether the run produced a route
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Result != nil
}

// Final returns the last phase the run reached
func (o Outcome) Final() Phase {
	if len(o.Phases) == 0 {
		return PhaseIdle
	}
	return o.Phases[len(o.Phases)-1]
}
