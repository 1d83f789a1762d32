package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultFetchTimeout = 5 * time.Second
	maxKeySetBytes      = 1 << 20
)

var (
	ErrKeyNotFound      = errors.New("signing key not found")
	ErrRefreshThrottled = errors.New("key set refresh throttled")
)

type KeySetConfig struct {
	URL string
	// Timeout bounds a single fetch. Zero means 5s.
	Timeout time.Duration
	// MinRefreshInterval limits refetches triggered by unknown key ids.
	// Zero disables the limit.
	MinRefreshInterval time.Duration
	Client             *http.Client
	Logger             *slog.Logger
	Observer           Observer
}

// KeySet is a lazily populated, process-wide cache of the identity provider's
// signing keys. Nothing is fetched until the first Resolve. A failed fetch
// leaves the previous snapshot in place and is retried by the next caller.
type KeySet struct {
	url      string
	client   *http.Client
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger
	observer Observer

	group   singleflight.Group
	current atomic.Pointer[keySnapshot]
}

type keySnapshot struct {
	storage jwkset.Storage
	keyfunc keyfunc.Keyfunc
}

func NewKeySet(cfg KeySetConfig) (*KeySet, error) {
	if cfg.URL == "" {
		return nil, errors.New("key set url is empty")
	}

	ks := &KeySet{
		url:      cfg.URL,
		client:   cfg.Client,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
		observer: cfg.Observer,
	}
	if ks.client == nil {
		ks.client = http.DefaultClient
	}
	if ks.timeout <= 0 {
		ks.timeout = defaultFetchTimeout
	}
	if ks.logger == nil {
		ks.logger = slog.New(slog.DiscardHandler)
	}
	if ks.observer == nil {
		ks.observer = nopObserver{}
	}
	if cfg.MinRefreshInterval > 0 {
		ks.limiter = rate.NewLimiter(rate.Every(cfg.MinRefreshInterval), 1)
	}

	return ks, nil
}

// Resolve returns a key function over a snapshot that contains kid, fetching
// the key set when the kid is not cached yet.
func (k *KeySet) Resolve(ctx context.Context, kid string) (jwt.Keyfunc, error) {
	snap := k.current.Load()
	if snap != nil && snap.has(ctx, kid) {
		return snap.keyfunc.KeyfuncCtx(ctx), nil
	}

	if snap != nil && k.limiter != nil && !k.limiter.Allow() {
		return nil, fmt.Errorf("kid %q: %w", kid, ErrRefreshThrottled)
	}

	snap, err := k.refresh(ctx)
	if err != nil {
		return nil, err
	}
	if !snap.has(ctx, kid) {
		return nil, fmt.Errorf("kid %q: %w", kid, ErrKeyNotFound)
	}

	return snap.keyfunc.KeyfuncCtx(ctx), nil
}

// refresh fetches the key set once per burst of concurrent callers.
func (k *KeySet) refresh(ctx context.Context) (*keySnapshot, error) {
	v, err, _ := k.group.Do(k.url, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), k.timeout)
		defer cancel()

		snap, err := k.fetch(fetchCtx)
		k.observer.ObserveKeySetFetch(err == nil)
		if err != nil {
			k.logger.WarnContext(ctx, "fetching signing key set failed", "url", k.url, "err", err)
			return nil, err
		}

		k.current.Store(snap)
		k.logger.InfoContext(ctx, "signing key set refreshed", "url", k.url)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*keySnapshot), nil
}

func (k *KeySet) fetch(ctx context.Context) (*keySnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build jwks request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxKeySetBytes))
		return nil, fmt.Errorf("jwks endpoint returned %d", resp.StatusCode)
	}

	var doc jwkset.JWKSMarshal
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxKeySetBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	storage := jwkset.NewMemoryStorage()
	written := 0
	for _, marshal := range doc.Keys {
		if marshal.KID == "" {
			k.logger.DebugContext(ctx, "skipping jwk without kid", "kty", marshal.KTY)
			continue
		}
		if marshal.USE == jwkset.UseEnc {
			continue
		}
		jwk, err := jwkset.NewJWKFromMarshal(marshal, jwkset.JWKMarshalOptions{}, jwkset.JWKValidateOptions{})
		if err != nil {
			k.logger.WarnContext(ctx, "skipping unusable jwk", "kid", marshal.KID, "err", err)
			continue
		}
		if err := storage.KeyWrite(ctx, jwk); err != nil {
			return nil, fmt.Errorf("store jwk %q: %w", marshal.KID, err)
		}
		written++
	}
	if written == 0 {
		return nil, errors.New("jwks contains no usable keys")
	}

	kf, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("build keyfunc: %w", err)
	}

	return &keySnapshot{storage: storage, keyfunc: kf}, nil
}

func (s *keySnapshot) has(ctx context.Context, kid string) bool {
	_, err := s.storage.KeyRead(ctx, kid)
	return err == nil
}
