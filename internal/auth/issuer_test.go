package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/golang-jwt/jwt/v5"
)

const (
	testIssuer   = "shop.example"
	testAudience = "drinks-api"
)

// testIdentityProvider serves a JWKS document and signs tokens with the keys
// it publishes.
type testIdentityProvider struct {
	t       *testing.T
	server  *httptest.Server
	fetches atomic.Int64

	mu      sync.Mutex
	storage jwkset.Storage
	keys    map[string]*ecdsa.PrivateKey
	status  int
	delay   time.Duration
}

func newTestIdentityProvider(t *testing.T) *testIdentityProvider {
	t.Helper()

	p := &testIdentityProvider{
		t:       t,
		storage: jwkset.NewMemoryStorage(),
		keys:    map[string]*ecdsa.PrivateKey{},
		status:  http.StatusOK,
	}
	p.server = httptest.NewServer(http.HandlerFunc(p.serveJWKS))
	t.Cleanup(p.server.Close)

	return p
}

func (p *testIdentityProvider) serveJWKS(w http.ResponseWriter, r *http.Request) {
	p.fetches.Add(1)

	p.mu.Lock()
	status, delay := p.status, p.delay
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}

	raw, err := p.storage.JSONPublic(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

func (p *testIdentityProvider) url() string {
	return p.server.URL + "/.well-known/jwks.json"
}

// addKey generates and publishes a new ES256 key under kid.
func (p *testIdentityProvider) addKey(kid string) {
	p.t.Helper()

	p.generateKey(kid)
	p.publish(kid)
}

// publish adds the public half of an already generated key to the JWKS.
func (p *testIdentityProvider) publish(kid string) {
	p.t.Helper()

	p.mu.Lock()
	priv, ok := p.keys[kid]
	p.mu.Unlock()
	if !ok {
		p.t.Fatalf("no key for kid %q", kid)
	}

	jwk, err := jwkset.NewJWKFromKey(&priv.PublicKey, jwkset.JWKOptions{
		Metadata: jwkset.JWKMetadataOptions{
			ALG: jwkset.AlgES256,
			KID: kid,
			USE: jwkset.UseSig,
		},
	})
	if err != nil {
		p.t.Fatalf("build jwk: %v", err)
	}
	if err := p.storage.KeyWrite(context.Background(), jwk); err != nil {
		p.t.Fatalf("write jwk: %v", err)
	}
}

// generateKey creates a signing key under kid without publishing it.
func (p *testIdentityProvider) generateKey(kid string) *ecdsa.PrivateKey {
	p.t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		p.t.Fatalf("generate key: %v", err)
	}

	p.mu.Lock()
	p.keys[kid] = priv
	p.mu.Unlock()

	return priv
}

func (p *testIdentityProvider) setStatus(status int) {
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()
}

func (p *testIdentityProvider) setDelay(d time.Duration) {
	p.mu.Lock()
	p.delay = d
	p.mu.Unlock()
}

func (p *testIdentityProvider) sign(kid string, claims jwt.MapClaims) string {
	p.t.Helper()

	p.mu.Lock()
	priv, ok := p.keys[kid]
	p.mu.Unlock()
	if !ok {
		p.t.Fatalf("no key for kid %q", kid)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(priv)
	if err != nil {
		p.t.Fatalf("sign token: %v", err)
	}

	return signed
}

func (p *testIdentityProvider) keySet(t *testing.T, cfg KeySetConfig) *KeySet {
	t.Helper()

	cfg.URL = p.url()
	ks, err := NewKeySet(cfg)
	if err != nil {
		t.Fatalf("new key set: %v", err)
	}
	return ks
}

func (p *testIdentityProvider) verifier(t *testing.T) *Verifier {
	t.Helper()

	v, err := NewVerifier(VerifierConfig{
		Issuer:     testIssuer,
		Audience:   testAudience,
		Algorithms: []string{"ES256", "RS256"},
	}, p.keySet(t, KeySetConfig{Timeout: time.Second}))
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return v
}

func makeClaims(permissions ...string) jwt.MapClaims {
	now := time.Now()
	perms := make([]any, 0, len(permissions))
	for _, p := range permissions {
		perms = append(perms, p)
	}
	return jwt.MapClaims{
		"iss":         testIssuer,
		"sub":         "auth0|user-1",
		"aud":         []string{testAudience},
		"iat":         now.Unix(),
		"exp":         now.Add(time.Hour).Unix(),
		"permissions": perms,
	}
}

func bearer(token string) string {
	return "Bearer " + token
}
