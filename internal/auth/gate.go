package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier verifies an Authorization header value. *Verifier implements it.
type TokenVerifier interface {
	Verify(ctx context.Context, authorization string) (jwt.MapClaims, error)
}

// Observer receives authorization outcomes. kind is empty for an allow.
type Observer interface {
	ObserveDecision(permission string, kind Kind)
	ObserveKeySetFetch(ok bool)
}

type nopObserver struct{}

func (nopObserver) ObserveDecision(string, Kind) {}
func (nopObserver) ObserveKeySetFetch(bool)      {}

// Decision is the outcome of one authorization attempt: either Claims with a
// nil Err, or a non-nil Err.
type Decision struct {
	Claims Claims
	Err    *Error
}

func (d Decision) Allowed() bool {
	return d.Err == nil
}

func allow(claims Claims) Decision {
	return Decision{Claims: claims}
}

func deny(err *Error) Decision {
	return Decision{Err: err}
}

// Gate decides whether a request may run an operation bound to a permission.
// It holds no per-request state and is safe for concurrent use.
type Gate struct {
	verifier TokenVerifier
	logger   *slog.Logger
	observer Observer
}

func NewGate(verifier TokenVerifier, logger *slog.Logger, observer Observer) *Gate {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Gate{
		verifier: verifier,
		logger:   logger,
		observer: observer,
	}
}

// Authorize verifies the bearer token in authorization and checks that it
// grants permission.
func (g *Gate) Authorize(ctx context.Context, permission, authorization string) Decision {
	d := g.authorize(ctx, permission, authorization)
	if d.Allowed() {
		g.observer.ObserveDecision(permission, "")
		g.logger.DebugContext(ctx, "authorization granted", "permission", permission, "sub", d.Claims.Subject)
		return d
	}

	g.observer.ObserveDecision(permission, d.Err.Kind)
	g.logger.WarnContext(ctx, "authorization denied",
		"permission", permission,
		"kind", string(d.Err.Kind),
		"reason", d.Err.Error(),
	)
	return d
}

func (g *Gate) authorize(ctx context.Context, permission, authorization string) Decision {
	payload, err := g.verifier.Verify(ctx, authorization)
	if err != nil {
		var authErr *Error
		if !errors.As(err, &authErr) {
			authErr = newError(KindInvalidSignature, err, "verify token")
		}
		return deny(authErr)
	}

	claims, err := ExtractClaims(payload)
	if err != nil {
		return deny(newError(KindInvalidClaims, err, "extract claims"))
	}

	if !claims.HasPermission(permission) {
		return deny(newError(KindInsufficientPermission, nil, "permission %q not granted to %q", permission, claims.Subject))
	}

	return allow(claims)
}
