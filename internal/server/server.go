package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"econavix/internal/advisor"
	"econavix/internal/cache"
	"econavix/internal/config"
	"econavix/internal/database"
	"econavix/internal/events"
	"econavix/internal/geocoding"
	"econavix/internal/handlers"
	"econavix/internal/location"
	"econavix/internal/logging"
	"econavix/internal/models"
	"econavix/internal/optimizer"
	"econavix/internal/planner"
	"econavix/internal/sqlite"
	"econavix/web"
)

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	handler    *handlers.Handler
	tracker    *location.Tracker
	listener   net.Listener
	addr       string
	logger     *zap.Logger

	// closers run in reverse order on Shutdown
	closers []func() error
	cancel  context.CancelFunc
}

// New creates and initializes a new server (does not start it)
func New(cfg *config.AppConfig, logger *zap.Logger) (_ *Server, err error) {
	logger = logging.OrNop(logger)
	s := &Server{addr: cfg.Server.Addr, logger: logger.Named("server")}

	defer func() {
		if err != nil {
			s.closeAll()
		}
	}()

	s.logger.Info("initializing data store", zap.String("backend", cfg.Storage.Backend))
	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize data store: %w", err)
	}
	s.closers = append(s.closers, store.Close)

	geocodeCache, err := s.openGeocodeCache(cfg, store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize geocode cache: %w", err)
	}

	provider, err := NewProvider(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize geocoding provider: %w", err)
	}
	resolver := geocoding.NewResolver(provider, geocodeCache, logger)

	routeOptimizer := optimizer.NewHTTPOptimizer(optimizer.Options{
		URL:     cfg.Optimizer.URL,
		Vehicle: cfg.Vehicle(),
		Timeout: cfg.Optimizer.Timeout,
	}, logger)

	var locationSource location.Source
	var pushSource *location.PushSource
	switch cfg.Location.Source {
	case "static":
		locationSource = location.StaticSource{Coords: cfg.StaticLocation()}
	default:
		pushSource = location.NewPushSource(cfg.Location.Timeout)
		locationSource = pushSource
	}

	opts := []planner.Option{planner.WithHistory(store.Plans())}

	publisher := newPublisher(cfg, logger)
	s.closers = append(s.closers, publisher.Close)
	opts = append(opts, planner.WithPublisher(publisher))

	if cfg.Advisor.GeminiAPIKey != "" {
		gen, err := advisor.NewGeminiGenerator(context.Background(), cfg.Advisor.GeminiAPIKey, cfg.Advisor.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize advisor: %w", err)
		}
		s.closers = append(s.closers, gen.Close)
		opts = append(opts, planner.WithAdvisor(advisor.New(gen, logger).WithTimeout(cfg.Advisor.Timeout)))
		s.logger.Info("gemini advisor enabled", zap.String("model", cfg.Advisor.Model))
	}

	// The tracker needs the planner to know whether a route is displayed, and
	// the planner recenters through the tracker, so the hook is bound late.
	var tracker *location.Tracker
	opts = append(opts, planner.WithRecenter(func(c models.Coordinates) {
		if tracker != nil {
			tracker.Recenter(c)
		}
	}))
	plan := planner.New(resolver, routeOptimizer, logger, opts...)
	tracker = location.NewTracker(locationSource, resolver, plan.HasRoute, logger)
	s.tracker = tracker

	s.logger.Info("loading templates")
	templates, err := handlers.LoadTemplates(web.Templates)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	s.handler = &handlers.Handler{
		Store:     store,
		Resolver:  resolver,
		Planner:   plan,
		Tracker:   tracker,
		Location:  pushSource,
		Templates: templates,
		Logger:    logger,
	}

	s.engine, err = NewEngine(s.handler, web.Static, logger)
	if err != nil {
		return nil, err
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// NewEngine builds the gin engine: middleware, static assets, pages and API
func NewEngine(h *handlers.Handler, staticFS fs.FS, logger *zap.Logger) (*gin.Engine, error) {
	engine := gin.New()
	engine.Use(gin.Recovery(), accessLog(logging.OrNop(logger).Named("http")), corsMiddleware())

	staticSubFS, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to create static sub-filesystem: %w", err)
	}
	engine.StaticFS("/static", http.FS(staticSubFS))

	h.RegisterRoutes(engine)
	return engine, nil
}

func openStore(cfg *config.AppConfig, logger *zap.Logger) (database.DataStore, error) {
	switch cfg.Storage.Backend {
	case "json":
		path, err := database.JSONPath(cfg.Storage.DataDir)
		if err != nil {
			return nil, err
		}
		return database.NewJSONStore(path, logger)
	default:
		path, err := database.DBPath(cfg.Storage.DataDir)
		if err != nil {
			return nil, err
		}
		return sqlite.New(path, sqlite.WithLogger(logger), sqlite.WithGeocodeTTL(cfg.Cache.TTL))
	}
}

func (s *Server) openGeocodeCache(cfg *config.AppConfig, store database.DataStore, logger *zap.Logger) (database.GeocodeCacheRepository, error) {
	switch cfg.Cache.Backend {
	case "none":
		return nil, nil
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rdb, err := cache.NewClient(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, rdb.Close)
		s.logger.Info("using redis geocode cache", zap.String("addr", cfg.Cache.RedisAddr))
		return cache.NewGeocodeCache(rdb, cfg.Cache.TTL, logger), nil
	default:
		return store.GeocodeCache(), nil
	}
}

// NewProvider builds the geocoding provider named by geocoding.provider
func NewProvider(cfg *config.AppConfig, logger *zap.Logger) (geocoding.Provider, error) {
	logger = logging.OrNop(logger)
	switch cfg.Geocoding.Provider {
	case "google":
		return geocoding.NewGoogleGeocoder(geocoding.GoogleOptions{
			APIKey:  cfg.Geocoding.GoogleAPIKey,
			Timeout: cfg.Geocoding.Timeout,
		}, logger)
	case "nominatim":
		return geocoding.NewNominatimGeocoder(geocoding.NominatimOptions{
			BaseURL:   cfg.Geocoding.NominatimURL,
			Timeout:   cfg.Geocoding.Timeout,
			RateLimit: cfg.Geocoding.RateLimit,
		}, logger), nil
	default:
		if cfg.Geocoding.OpenCageAPIKey == "" {
			logger.Warn("no OpenCage API key configured; geocoding requests will be rejected")
		}
		return geocoding.NewOpenCageGeocoder(geocoding.OpenCageOptions{
			BaseURL:   cfg.Geocoding.OpenCageURL,
			APIKey:    cfg.Geocoding.OpenCageAPIKey,
			Timeout:   cfg.Geocoding.Timeout,
			RateLimit: cfg.Geocoding.RateLimit,
		}, logger), nil
	}
}

type planPublisher interface {
	planner.Publisher
	Close() error
}

func newPublisher(cfg *config.AppConfig, logger *zap.Logger) planPublisher {
	if len(cfg.Events.Brokers) == 0 {
		return events.Nop{}
	}
	logger.Info("publishing plan events", zap.Strings("brokers", cfg.Events.Brokers), zap.String("topic", cfg.Events.Topic))
	return events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic, logger)
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	s.logger.Info("starting server", zap.String("addr", actualAddr))

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	// With the browser source, Start blocks until the page pushes a first fix
	// or the timeout passes.
	go s.tracker.Start(ctx)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", zap.Error(err))
		}
	}()

	return actualAddr, nil
}

// Handler exposes the engine, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	if s.cancel != nil {
		s.cancel()
	}
	s.tracker.Stop()

	return errors.Join(err, s.closeAll())
}

func (s *Server) closeAll() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
