package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestNewKeySetDoesNotFetch(t *testing.T) {
	p := newTestIdentityProvider(t)
	p.addKey("key-1")

	_ = p.keySet(t, KeySetConfig{})

	if p.fetches.Load() != 0 {
		t.Fatalf("expected lazy key set, got %d fetches", p.fetches.Load())
	}
}

func TestNewKeySetRequiresURL(t *testing.T) {
	if _, err := NewKeySet(KeySetConfig{}); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestKeySetReusesCachedKeys(t *testing.T) {
	p := newTestIdentityProvider(t)
	p.addKey("key-1")
	ks := p.keySet(t, KeySetConfig{})

	for range 3 {
		if _, err := ks.Resolve(context.Background(), "key-1"); err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}

	if p.fetches.Load() != 1 {
		t.Fatalf("expected 1 fetch, got %d", p.fetches.Load())
	}
}

func TestKeySetRefetchesOnUnknownKid(t *testing.T) {
	p := newTestIdentityProvider(t)
	p.addKey("key-1")
	ks := p.keySet(t, KeySetConfig{})

	if _, err := ks.Resolve(context.Background(), "key-1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	_, err := ks.Resolve(context.Background(), "key-2")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	p.addKey("key-2")
	if _, err := ks.Resolve(context.Background(), "key-2"); err != nil {
		t.Fatalf("expected rotated key to resolve, got %v", err)
	}

	if p.fetches.Load() != 3 {
		t.Fatalf("expected 3 fetches, got %d", p.fetches.Load())
	}
}

func TestKeySetKeepsSnapshotAfterFailedRefresh(t *testing.T) {
	p := newTestIdentityProvider(t)
	p.addKey("key-1")
	ks := p.keySet(t, KeySetConfig{})

	if _, err := ks.Resolve(context.Background(), "key-1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	p.setStatus(http.StatusServiceUnavailable)
	if _, err := ks.Resolve(context.Background(), "key-2"); err == nil {
		t.Fatal("expected refresh failure")
	}

	if _, err := ks.Resolve(context.Background(), "key-1"); err != nil {
		t.Fatalf("expected cached key to survive failed refresh, got %v", err)
	}
}

func TestKeySetThrottlesUnknownKidRefetches(t *testing.T) {
	p := newTestIdentityProvider(t)
	p.addKey("key-1")
	ks := p.keySet(t, KeySetConfig{MinRefreshInterval: time.Hour})

	if _, err := ks.Resolve(context.Background(), "key-1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := ks.Resolve(context.Background(), "key-2"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if _, err := ks.Resolve(context.Background(), "key-3"); !errors.Is(err, ErrRefreshThrottled) {
		t.Fatalf("expected ErrRefreshThrottled, got %v", err)
	}

	if p.fetches.Load() != 2 {
		t.Fatalf("expected 2 fetches, got %d", p.fetches.Load())
	}
}

func TestKeySetRejectsDocumentWithoutUsableKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"keys":[{"kty":"RSA","use":"sig"}]}`))
	}))
	defer server.Close()

	ks, err := NewKeySet(KeySetConfig{URL: server.URL})
	if err != nil {
		t.Fatalf("new key set: %v", err)
	}

	if _, err := ks.Resolve(context.Background(), "key-1"); err == nil {
		t.Fatal("expected error for key set without usable keys")
	}
}

func TestKeySetRejectsInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("no jwks"))
	}))
	defer server.Close()

	ks, err := NewKeySet(KeySetConfig{URL: server.URL})
	if err != nil {
		t.Fatalf("new key set: %v", err)
	}

	if _, err := ks.Resolve(context.Background(), "key-1"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestKeySetConcurrentMissesAllResolve(t *testing.T) {
	p := newTestIdentityProvider(t)
	p.addKey("key-1")
	p.setDelay(20 * time.Millisecond)
	ks := p.keySet(t, KeySetConfig{})

	const callers = 16
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ks.Resolve(context.Background(), "key-1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}
	if got := p.fetches.Load(); got > callers {
		t.Fatalf("expected at most %d fetches, got %d", callers, got)
	}
}
