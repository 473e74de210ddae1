// Package config resolves worktime settings from defaults, an optional
// YAML file, an optional .env file and WORKTIME_* environment variables,
// in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix      = "WORKTIME_"
	ConfigFileName = "config.yaml"

	BackendLocal = "local"
	BackendParse = "parse"
	BackendRedis = "redis"

	ProviderLocal = "local"
	ProviderParse = "parse"
)

type RulesConfig struct {
	MaxHoursPerDay      float64       `yaml:"max_hours_per_day" env:"MAX_HOURS_PER_DAY"`
	MandatoryLunchHours float64       `yaml:"mandatory_lunch_hours" env:"MANDATORY_LUNCH_HOURS"`
	LunchDuration       time.Duration `yaml:"lunch_duration" env:"LUNCH_DURATION"`
}

type IdentityConfig struct {
	Provider string        `yaml:"provider" env:"PROVIDER"`
	TokenTTL time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
}

type ParseConfig struct {
	ServerURL string        `yaml:"server_url" env:"SERVER_URL"`
	AppID     string        `yaml:"app_id" env:"APP_ID"`
	RESTKey   string        `yaml:"rest_key" env:"REST_KEY"`
	Timeout   time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"ADDR"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

type AutosaveConfig struct {
	Debounce       time.Duration `yaml:"debounce" env:"DEBOUNCE"`
	ActiveInterval time.Duration `yaml:"active_interval" env:"ACTIVE_INTERVAL"`
	IdleInterval   time.Duration `yaml:"idle_interval" env:"IDLE_INTERVAL"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	// Format is auto, console or json. Auto picks console on a terminal.
	Format string `yaml:"format" env:"FORMAT"`
}

type Config struct {
	Home     string         `yaml:"-" env:"HOME"`
	DBPath   string         `yaml:"db_path" env:"DB"`
	Timezone string         `yaml:"timezone" env:"TZ"`
	Backend  string         `yaml:"backend" env:"BACKEND"`
	Rules    RulesConfig    `yaml:"rules" envPrefix:"RULES_"`
	Identity IdentityConfig `yaml:"identity" envPrefix:"IDENTITY_"`
	Parse    ParseConfig    `yaml:"parse" envPrefix:"PARSE_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	Autosave AutosaveConfig `yaml:"autosave" envPrefix:"AUTOSAVE_"`
	HTTP     HTTPConfig     `yaml:"http" envPrefix:"HTTP_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

// Default returns the built-in settings rooted at home.
func Default(home string) Config {
	return Config{
		Home:    home,
		DBPath:  filepath.Join(home, "worktime.db"),
		Backend: BackendLocal,
		Rules: RulesConfig{
			MaxHoursPerDay:      10,
			MandatoryLunchHours: 5,
			LunchDuration:       30 * time.Minute,
		},
		Identity: IdentityConfig{
			Provider: ProviderLocal,
			TokenTTL: 30 * 24 * time.Hour,
		},
		Parse: ParseConfig{
			ServerURL: "https://parseapi.back4app.com",
			Timeout:   15 * time.Second,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Timeout: 3 * time.Second,
		},
		Autosave: AutosaveConfig{
			Debounce:       2 * time.Second,
			ActiveInterval: 30 * time.Second,
			IdleInterval:   5 * time.Minute,
		},
		HTTP: HTTPConfig{Addr: "127.0.0.1:8080"},
		Log:  LogConfig{Level: "info", Format: "auto"},
	}
}

// LoadOptions overrides where Load looks. Zero values use the process
// environment and the files under the resolved home directory.
type LoadOptions struct {
	// Environ is used instead of os.Environ when non-nil.
	Environ    []string
	ConfigFile string
	EnvFile    string
}

// Load resolves the configuration.
func Load(opts LoadOptions) (Config, error) {
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	vars := env.ToMap(environ)

	home, err := resolveHome(vars)
	if err != nil {
		return Config{}, err
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := mergeDotEnv(vars, envFile); err != nil {
		return Config{}, err
	}
	if h := vars[EnvPrefix+"HOME"]; h != "" {
		home = h
	}

	cfg := Default(home)
	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = filepath.Join(home, ConfigFileName)
	}
	if err := mergeYAML(&cfg, configFile, opts.ConfigFile != ""); err != nil {
		return Config{}, err
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix, Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.Home, "worktime.db")
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Identity.Provider = strings.ToLower(strings.TrimSpace(cfg.Identity.Provider))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolveHome(vars map[string]string) (string, error) {
	if h := vars[EnvPrefix+"HOME"]; h != "" {
		return h, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(userHome, ".worktime"), nil
}

// mergeDotEnv adds variables from path without overriding the environment.
func mergeDotEnv(vars map[string]string, path string) error {
	fileVars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	for k, v := range fileVars {
		if _, set := vars[k]; !set {
			vars[k] = v
		}
	}
	return nil
}

func mergeYAML(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []string

	switch c.Backend {
	case BackendLocal:
	case BackendParse:
		if c.Parse.ServerURL == "" || c.Parse.AppID == "" || c.Parse.RESTKey == "" {
			errs = append(errs, "parse.server_url, parse.app_id and parse.rest_key are required for the parse backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, "redis.addr is required for the redis backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("backend %q must be local, parse or redis", c.Backend))
	}

	switch c.Identity.Provider {
	case ProviderLocal:
	case ProviderParse:
		if c.Parse.AppID == "" || c.Parse.RESTKey == "" {
			errs = append(errs, "parse.app_id and parse.rest_key are required for the parse identity provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("identity.provider %q must be local or parse", c.Identity.Provider))
	}

	if c.Rules.MaxHoursPerDay <= 0 || c.Rules.MaxHoursPerDay > 24 {
		errs = append(errs, "rules.max_hours_per_day must be in (0, 24]")
	}
	if c.Rules.MandatoryLunchHours <= 0 {
		errs = append(errs, "rules.mandatory_lunch_hours must be positive")
	}
	if c.Rules.LunchDuration < 0 {
		errs = append(errs, "rules.lunch_duration must not be negative")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("timezone %q: %v", c.Timezone, err))
		}
	}
	if c.Autosave.Debounce <= 0 || c.Autosave.ActiveInterval <= 0 || c.Autosave.IdleInterval <= 0 {
		errs = append(errs, "autosave intervals must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "auto", "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q must be auto, console or json", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Location returns the configured zone, or the host's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (r RulesConfig) Domain() domain.Rules {
	return domain.Rules{
		MaxHoursPerDay:      r.MaxHoursPerDay,
		MandatoryLunchHours: r.MandatoryLunchHours,
		LunchDuration:       r.LunchDuration,
	}
}

// EnsureHome creates the home directory.
func (c Config) EnsureHome() error {
	if err := os.MkdirAll(c.Home, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", c.Home, err)
	}
	return nil
}
