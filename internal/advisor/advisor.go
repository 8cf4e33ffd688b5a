package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"econavix/internal/logging"
	"econavix/internal/models"
	"econavix/internal/present"
)

// ErrEmptyAdvice is returned when the model produced no usable text
var ErrEmptyAdvice = errors.New("advisor returned no text")

// Generator produces text for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Advisor writes eco-driving recommendations for routes the backend left
// without one.
type Advisor struct {
	gen     Generator
	timeout time.Duration
	logger  *zap.Logger
}

// New wraps a generator
func New(gen Generator, logger *zap.Logger) *Advisor {
	return &Advisor{gen: gen, logger: logging.OrNop(logger).Named("advisor")}
}

// WithTimeout bounds each Generate call; zero leaves the caller's deadline alone
func (a *Advisor) WithTimeout(d time.Duration) *Advisor {
	a.timeout = d
	return a
}

// Advise returns a numbered list of driving tips for the route
func (a *Advisor) Advise(ctx context.Context, origin, destination string, result *models.RouteResult) (string, error) {
	prompt := BuildPrompt(origin, destination, result)
	a.logger.Debug("requesting recommendation", zap.Int("prompt_len", len(prompt)))

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate recommendation: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyAdvice
	}

	a.logger.Info("recommendation generated",
		zap.String("origin", origin),
		zap.String("destination", destination),
		zap.Int("steps", len(present.RecommendationSteps(text))),
	)
	return text, nil
}

// BuildPrompt describes the route and asks for a short numbered list
func BuildPrompt(origin, destination string, result *models.RouteResult) string {
	var b strings.Builder
	b.WriteString("You are an eco-driving assistant. ")
	fmt.Fprintf(&b, "A driver is travelling from %q to %q.\n", origin, destination)

	if result != nil && result.Comparison != nil {
		if o := result.Comparison.Original; o != nil {
			fmt.Fprintf(&b, "Fastest route: %.1f km, %s, %.2f kg CO2.\n",
				o.DistanceKm, present.FormatDuration(o.DurationMinutes), o.CarbonEmissionsKg)
		}
		if o := result.Comparison.Optimized; o != nil {
			fmt.Fprintf(&b, "Eco route: %.1f km, %s, %.2f kg CO2.\n",
				o.DistanceKm, present.FormatDuration(o.DurationMinutes), o.CarbonEmissionsKg)
		}
		if saved := present.EmissionsSaved(result.Comparison); saved > 0 {
			fmt.Fprintf(&b, "Taking the eco route saves %.2f kg CO2.\n", saved)
		}
	}
	if result != nil && len(result.Directions) > 0 {
		b.WriteString("Directions:\n")
		for _, d := range result.Directions {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	}

	b.WriteString("Give 3 to 5 short, practical tips to reduce fuel use on this trip, ")
	b.WriteString("formatted as a numbered list like \"1. ... 2. ...\". No headings, no other text.")
	return b.String()
}
