package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Flarenzy/drinks-api/internal/auth"
)

type Config struct {
	Port         string
	DSN          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Auth           auth.Config
	AllowedOrigins []string

	LogLevel  slog.Level
	LogFormat string
}

// LoadConfig reads the environment, after loading a .env file from the
// working directory when there is one.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return configFromEnv(os.Getenv)
}

func configFromEnv(getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	var errs []error
	duration := func(key, fallback string) time.Duration {
		d, err := time.ParseDuration(env(key, fallback))
		if err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, env(key, fallback)))
			return 0
		}
		return d
	}

	cfg := Config{
		Port:         env("PORT", "4040"),
		DSN:          env("DB_CONN", ""),
		ReadTimeout:  duration("READ_TIMEOUT", "3s"),
		WriteTimeout: duration("WRITE_TIMEOUT", "3s"),
		Auth: auth.Config{
			Issuer:             env("AUTH_ISSUER", ""),
			Audience:           env("AUTH_AUDIENCE", ""),
			JWKSURL:            env("AUTH_JWKS_URL", ""),
			Leeway:             duration("AUTH_LEEWAY", "0s"),
			FetchTimeout:       duration("AUTH_JWKS_TIMEOUT", "5s"),
			MinRefreshInterval: duration("AUTH_JWKS_MIN_REFRESH", "0s"),
		},
		AllowedOrigins: splitList(env("CORS_ALLOWED_ORIGINS", "*")),
		LogFormat:      strings.ToLower(env("LOG_FORMAT", "json")),
	}

	if cfg.DSN == "" {
		errs = append(errs, errors.New("missing required environment variable: DB_CONN"))
	}
	if cfg.Auth.Issuer == "" {
		errs = append(errs, errors.New("missing required environment variable: AUTH_ISSUER"))
	}
	if cfg.Auth.Audience == "" {
		errs = append(errs, errors.New("missing required environment variable: AUTH_AUDIENCE"))
	}
	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: invalid port %q", cfg.Port))
	}

	algorithms, err := auth.ValidateAlgorithms(splitList(env("AUTH_ALGORITHMS", "RS256")))
	if err != nil {
		errs = append(errs, fmt.Errorf("AUTH_ALGORITHMS: %w", err))
	}
	cfg.Auth.Algorithms = algorithms

	if err := cfg.LogLevel.UnmarshalText([]byte(env("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT: want json or text, got %q", cfg.LogFormat))
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
