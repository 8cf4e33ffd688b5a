// Command plan computes one eco route from the terminal and prints the same
// comparison the map page shows.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"econavix/internal/advisor"
	"econavix/internal/config"
	"econavix/internal/geocoding"
	"econavix/internal/logging"
	"econavix/internal/optimizer"
	"econavix/internal/planner"
	"econavix/internal/present"
	"econavix/internal/server"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	origin := fs.String("from", "", "origin address")
	destination := fs.String("to", "", "destination address")
	configPath := fs.String("config", os.Getenv("ECONAVIX_CONFIG"), "path to a YAML config file")
	km := fs.Bool("km", false, "print distances in kilometers")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	level := cfg.LogLevel
	if level == "info" {
		level = "warn"
	}
	logger, err := logging.New(cfg.Env, level)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	p, cleanup, err := newPlanner(cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := p.Plan(ctx, *origin, *destination)
	if out.Err != nil {
		fmt.Fprintf(stderr, "%s\n", out.Err.Message)
		logger.Debug("plan failed", zap.Error(out.Err))
		return 1
	}

	view := present.NewRouteView(out.Result, !*km)
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	printView(stdout, view)
	return 0
}

func newPlanner(cfg *config.AppConfig, logger *zap.Logger) (*planner.Planner, func(), error) {
	provider, err := server.NewProvider(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	opt := optimizer.NewHTTPOptimizer(optimizer.Options{
		URL:     cfg.Optimizer.URL,
		Vehicle: cfg.Vehicle(),
		Timeout: cfg.Optimizer.Timeout,
	}, logger)

	cleanup := func() {}
	var opts []planner.Option
	if cfg.Advisor.GeminiAPIKey != "" {
		gen, err := advisor.NewGeminiGenerator(context.Background(), cfg.Advisor.GeminiAPIKey, cfg.Advisor.Model)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { _ = gen.Close() }
		opts = append(opts, planner.WithAdvisor(advisor.New(gen, logger).WithTimeout(cfg.Advisor.Timeout)))
	}

	resolver := geocoding.NewResolver(provider, nil, logger)
	return planner.New(resolver, opt, logger, opts...), cleanup, nil
}

func printView(w io.Writer, view present.RouteView) {
	fmt.Fprintf(w, "Emissions reduced: %s kg CO₂\n\n", view.EmissionsSaved)

	for _, s := range []*present.StatsView{view.Original, view.Optimized} {
		if s == nil {
			continue
		}
		fmt.Fprintf(w, "%s\n", s.Label)
		fmt.Fprintf(w, "  Distance:  %s\n", s.Distance)
		fmt.Fprintf(w, "  Time:      %s\n", s.Time)
		fmt.Fprintf(w, "  Emissions: %s\n", s.Emissions)
	}

	if len(view.RecommendationSteps) > 0 {
		fmt.Fprintf(w, "\nRecommendation (%s)\n", view.RecommendationSource)
		for _, step := range view.RecommendationSteps {
			fmt.Fprintf(w, "  %s\n", step)
		}
	}

	if len(view.Directions) > 0 {
		fmt.Fprintln(w, "\nDirections")
		for i, d := range view.Directions {
			fmt.Fprintf(w, "  %d. %s\n", i+1, strings.TrimSpace(d))
		}
	}
}
