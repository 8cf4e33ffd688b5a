package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"econavix/internal/models"
)

// EnvPrefix is prepended to every environment override, e.g. ECONAVIX_SERVER_ADDR
const EnvPrefix = "ECONAVIX"

var (
	configMutex   sync.RWMutex
	currentConfig *AppConfig
	currentViper  *viper.Viper
)

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	OpenBrowser     bool          `mapstructure:"open_browser"`
}

// StorageConfig selects where settings and history live
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // "sqlite" or "json"
	DataDir string `mapstructure:"data_dir"`
}

// CacheConfig selects the geocode cache
type CacheConfig struct {
	Backend   string        `mapstructure:"backend"` // "store", "redis" or "none"
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// GeocodingConfig selects and configures the address provider
type GeocodingConfig struct {
	Provider       string        `mapstructure:"provider"` // "opencage", "google" or "nominatim"
	OpenCageAPIKey string        `mapstructure:"opencage_api_key"`
	OpenCageURL    string        `mapstructure:"opencage_url"`
	GoogleAPIKey   string        `mapstructure:"google_api_key"`
	NominatimURL   string        `mapstructure:"nominatim_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      time.Duration `mapstructure:"rate_limit"`
}

// VehicleConfig is sent with every optimizer request
type VehicleConfig struct {
	Type       string  `mapstructure:"type"`
	Model      string  `mapstructure:"model"`
	Efficiency float64 `mapstructure:"efficiency"`
	FuelType   string  `mapstructure:"fuel_type"`
}

// OptimizerConfig points at the route optimizer backend
type OptimizerConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Vehicle VehicleConfig `mapstructure:"vehicle"`
}

// AdvisorConfig enables Gemini recommendations when a key is present
type AdvisorConfig struct {
	GeminiAPIKey string        `mapstructure:"gemini_api_key"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// EventsConfig enables Kafka plan events when brokers are listed
type EventsConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// LocationConfig controls device position acquisition
type LocationConfig struct {
	Source  string        `mapstructure:"source"` // "browser" or "static"
	Timeout time.Duration `mapstructure:"timeout"`
	Lat     float64       `mapstructure:"lat"`
	Lng     float64       `mapstructure:"lng"`
}

// AppConfig holds entire config
type AppConfig struct {
	Env       string          `mapstructure:"env"`
	LogLevel  string          `mapstructure:"log_level"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Advisor   AdvisorConfig   `mapstructure:"advisor"`
	Events    EventsConfig    `mapstructure:"events"`
	Location  LocationConfig  `mapstructure:"location"`
}

// Vehicle converts the configured profile
func (c *AppConfig) Vehicle() models.VehicleProfile {
	return models.VehicleProfile{
		Type:       c.Optimizer.Vehicle.Type,
		Model:      c.Optimizer.Vehicle.Model,
		Efficiency: c.Optimizer.Vehicle.Efficiency,
		FuelType:   c.Optimizer.Vehicle.FuelType,
	}
}

// StaticLocation returns the configured fixed position, if any
func (c *AppConfig) StaticLocation() *models.Coordinates {
	if c.Location.Source != "static" {
		return nil
	}
	pos := models.Coordinates{Lat: c.Location.Lat, Lng: c.Location.Lng}
	if !pos.Valid() {
		return nil
	}
	return &pos
}

// Validate checks enumerated values and required keys
func (c *AppConfig) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case "sqlite", "json":
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be sqlite or json, got %q", c.Storage.Backend))
	}
	switch c.Cache.Backend {
	case "store", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be store, redis or none, got %q", c.Cache.Backend))
	}
	switch c.Geocoding.Provider {
	case "opencage", "nominatim":
	case "google":
		if c.Geocoding.GoogleAPIKey == "" {
			errs = append(errs, errors.New("geocoding.google_api_key is required for the google provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("geocoding.provider must be opencage, google or nominatim, got %q", c.Geocoding.Provider))
	}
	switch c.Location.Source {
	case "browser", "static":
	default:
		errs = append(errs, fmt.Errorf("location.source must be browser or static, got %q", c.Location.Source))
	}
	if c.Optimizer.URL == "" {
		errs = append(errs, errors.New("optimizer.url is required"))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("log_level", "info")

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.open_browser", true)

	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.data_dir", "")

	v.SetDefault("cache.backend", "store")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl", 30*24*time.Hour)

	v.SetDefault("geocoding.provider", "opencage")
	v.SetDefault("geocoding.opencage_api_key", "")
	v.SetDefault("geocoding.opencage_url", "https://api.opencagedata.com")
	v.SetDefault("geocoding.google_api_key", "")
	v.SetDefault("geocoding.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoding.timeout", 10*time.Second)
	v.SetDefault("geocoding.rate_limit", time.Second)

	v.SetDefault("optimizer.url", "http://localhost:5050/get_route_recommendation")
	v.SetDefault("optimizer.timeout", 60*time.Second)
	v.SetDefault("optimizer.vehicle.type", models.DefaultVehicle.Type)
	v.SetDefault("optimizer.vehicle.model", models.DefaultVehicle.Model)
	v.SetDefault("optimizer.vehicle.efficiency", models.DefaultVehicle.Efficiency)
	v.SetDefault("optimizer.vehicle.fuel_type", models.DefaultVehicle.FuelType)

	v.SetDefault("advisor.gemini_api_key", "")
	v.SetDefault("advisor.model", "gemini-2.0-flash")
	v.SetDefault("advisor.timeout", 20*time.Second)

	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topic", "econavix.plan.events")

	v.SetDefault("location.source", "browser")
	v.SetDefault("location.timeout", 10*time.Second)
	v.SetDefault("location.lat", 0.0)
	v.SetDefault("location.lng", 0.0)
}

// provider-native variable names accepted alongside the ECONAVIX_ ones
var envAliases = map[string]string{
	"geocoding.opencage_api_key": "OPENCAGE_API_KEY",
	"geocoding.google_api_key":   "GOOGLE_MAPS_API_KEY",
	"advisor.gemini_api_key":     "GEMINI_API_KEY",
	"cache.redis_addr":           "REDIS_ADDR",
	"events.brokers":             "KAFKA_BROKERS",
	"server.addr":                "SERVER_ADDR",
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, alias := range envAliases {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, alias); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// at path, and the environment.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}

	configMutex.Lock()
	currentConfig = cfg
	currentViper = v
	configMutex.Unlock()

	return cfg, nil
}

func unmarshal(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Events.Brokers = splitList(cfg.Events.Brokers)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// splitList flattens comma separated entries and drops blanks
func splitList(in []string) []string {
	out := []string{}
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Watch reloads the config file on change and passes valid configs to
// onChange. It is a no-op when no file was loaded.
func Watch(onChange func(*AppConfig, error)) bool {
	configMutex.RLock()
	v := currentViper
	configMutex.RUnlock()

	if v == nil || v.ConfigFileUsed() == "" {
		return false
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		newCfg, err := unmarshal(v)
		if err == nil {
			configMutex.Lock()
			currentConfig = newCfg
			configMutex.Unlock()
		}
		if onChange != nil {
			onChange(newCfg, err)
		}
	})
	v.WatchConfig()
	return true
}

// GetCurrentConfig returns the current configuration in a thread-safe way
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return currentConfig
}
