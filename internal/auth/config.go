package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	Issuer             string
	Audience           string
	JWKSURL            string
	Algorithms         []string
	Leeway             time.Duration
	FetchTimeout       time.Duration
	MinRefreshInterval time.Duration
}

// KeySetURL returns the configured JWKS endpoint, defaulting to the issuer's
// well-known location.
func (c Config) KeySetURL() string {
	if c.JWKSURL != "" {
		return c.JWKSURL
	}
	return strings.TrimSuffix(c.Issuer, "/") + "/.well-known/jwks.json"
}

// New wires a key set, verifier and gate from cfg. No network call is made.
func New(cfg Config, client *http.Client, logger *slog.Logger, observer Observer) (*Gate, error) {
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("auth issuer is empty")
	}

	keys, err := NewKeySet(KeySetConfig{
		URL:                cfg.KeySetURL(),
		Timeout:            cfg.FetchTimeout,
		MinRefreshInterval: cfg.MinRefreshInterval,
		Client:             client,
		Logger:             logger,
		Observer:           observer,
	})
	if err != nil {
		return nil, fmt.Errorf("key set: %w", err)
	}

	verifier, err := NewVerifier(VerifierConfig{
		Issuer:     cfg.Issuer,
		Audience:   cfg.Audience,
		Algorithms: cfg.Algorithms,
		Leeway:     cfg.Leeway,
	}, keys)
	if err != nil {
		return nil, fmt.Errorf("verifier: %w", err)
	}

	return NewGate(verifier, logger, observer), nil
}
