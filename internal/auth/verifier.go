package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// KeyResolver maps a key id to a key function able to verify tokens signed
// with that key. KeySet is the production implementation.
type KeyResolver interface {
	Resolve(ctx context.Context, kid string) (jwt.Keyfunc, error)
}

type Verifier struct {
	issuer     string
	audience   string
	algorithms []string
	leeway     time.Duration
	keys       KeyResolver
	now        func() time.Time
}

type VerifierConfig struct {
	Issuer     string
	Audience   string
	Algorithms []string
	Leeway     time.Duration
}

func NewVerifier(cfg VerifierConfig, keys KeyResolver) (*Verifier, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is empty")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience is empty")
	}
	if keys == nil {
		return nil, errors.New("key resolver is nil")
	}
	algorithms, err := ValidateAlgorithms(cfg.Algorithms)
	if err != nil {
		return nil, err
	}

	return &Verifier{
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		algorithms: algorithms,
		leeway:     cfg.Leeway,
		keys:       keys,
		now:        time.Now,
	}, nil
}

type tokenHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

// Verify checks the Authorization header value and returns the verified
// payload. Every failure is an *Error.
func (v *Verifier) Verify(ctx context.Context, authorization string) (jwt.MapClaims, error) {
	raw, err := bearerToken(authorization)
	if err != nil {
		return nil, err
	}

	segments := strings.Split(raw, ".")
	if len(segments) != 3 {
		return nil, newError(KindMalformedToken, nil, "token has %d segments", len(segments))
	}
	if segments[0] == "" || segments[1] == "" {
		return nil, newError(KindMalformedToken, nil, "token has an empty segment")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods(v.algorithms),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)

	headerJSON, err := parser.DecodeSegment(segments[0])
	if err != nil {
		return nil, newError(KindMalformedToken, err, "decode header")
	}
	var header tokenHeader
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, newError(KindMalformedToken, err, "unmarshal header")
	}

	// Checked before anything else so unsigned tokens never reach key lookup.
	if !slices.Contains(v.algorithms, header.Alg) {
		return nil, newError(KindInvalidSignature, nil, "algorithm %q not allowed", header.Alg)
	}
	if segments[2] == "" {
		return nil, newError(KindMalformedToken, nil, "token has an empty signature segment")
	}
	if header.Kid == "" {
		return nil, newError(KindMalformedToken, nil, "header has no kid")
	}

	keyfn, err := v.keys.Resolve(ctx, header.Kid)
	if err != nil {
		return nil, newError(KindKeyResolutionFailed, err, "resolve kid %q", header.Kid)
	}

	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(raw, claims, keyfn)
	if err != nil {
		return nil, classifyParseError(err)
	}
	if !token.Valid {
		return nil, newError(KindInvalidSignature, nil, "token not valid")
	}

	return claims, nil
}

func bearerToken(authorization string) (string, error) {
	if authorization == "" {
		return "", newError(KindMissingToken, nil, "authorization header is empty")
	}
	parts := strings.Fields(authorization)
	if len(parts) != 2 || !strings.EqualFold(parts[0], strings.TrimSpace(bearerPrefix)) {
		return "", newError(KindMissingToken, nil, "authorization header is not a bearer token")
	}
	return parts[1], nil
}

func classifyParseError(err error) *Error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return newError(KindMalformedToken, err, "parse token")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrSignatureInvalid):
		return newError(KindInvalidSignature, err, "verify signature")
	case errors.Is(err, jwt.ErrTokenExpired):
		return newError(KindInvalidClaims, err, "token expired")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return newError(KindInvalidClaims, err, "issuer mismatch")
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return newError(KindInvalidClaims, err, "audience mismatch")
	case errors.Is(err, jwt.ErrTokenInvalidClaims),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return newError(KindInvalidClaims, err, "validate claims")
	default:
		return newError(KindInvalidSignature, err, "verify token")
	}
}

// asymmetricAlgorithms are the algorithms a published key set can verify.
var asymmetricAlgorithms = []string{
	"RS256", "RS384", "RS512",
	"PS256", "PS384", "PS512",
	"ES256", "ES384", "ES512",
	"EdDSA",
}

// ValidateAlgorithms normalises an allow-list. "none", symmetric and unknown
// algorithms are configuration errors.
func ValidateAlgorithms(algorithms []string) ([]string, error) {
	if len(algorithms) == 0 {
		return nil, errors.New("algorithm allow-list is empty")
	}

	out := make([]string, 0, len(algorithms))
	for _, alg := range algorithms {
		alg = strings.TrimSpace(alg)
		if strings.EqualFold(alg, "none") {
			return nil, errors.New(`algorithm "none" cannot be allowed`)
		}
		if !slices.Contains(asymmetricAlgorithms, alg) {
			return nil, fmt.Errorf("unsupported algorithm %q", alg)
		}
		if !slices.Contains(out, alg) {
			out = append(out, alg)
		}
	}

	return out, nil
}
