package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Flarenzy/drinks-api/internal/auth"
	"github.com/Flarenzy/drinks-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// stubVerifier accepts "Bearer <name>" for the named tokens it knows.
type stubVerifier struct {
	tokens map[string]jwt.MapClaims
}

func (s stubVerifier) Verify(_ context.Context, authorization string) (jwt.MapClaims, error) {
	if authorization == "" {
		return nil, &auth.Error{Kind: auth.KindMissingToken, Reason: "no header"}
	}
	claims, ok := s.tokens[strings.TrimPrefix(authorization, "Bearer ")]
	if !ok {
		return nil, &auth.Error{Kind: auth.KindInvalidSignature, Reason: "unknown test token"}
	}
	return claims, nil
}

func newGuardTestAPI(t *testing.T, service domain.DrinkService) *API {
	t.Helper()

	exp := float64(time.Now().Add(time.Hour).Unix())
	gate := auth.NewGate(stubVerifier{tokens: map[string]jwt.MapClaims{
		"barista": {"sub": "barista", "exp": exp, "permissions": []any{PermissionGetDrinksDetail}},
		"manager": {"sub": "manager", "exp": exp, "permissions": []any{
			PermissionGetDrinksDetail, PermissionPostDrinks, PermissionPatchDrinks, PermissionDeleteDrinks,
		}},
		"broken": {"sub": "broken", "exp": exp, "permissions": "post:drinks"},
	}}, nil, nil)

	return NewAPI(slog.New(slog.NewTextHandler(io.Discard, nil)), stubHealthChecker{}, service, gate, nil)
}

func request(api *API, method, target, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)
	return rec
}

func TestGuardDeniesMissingTokenWithEnvelope(t *testing.T) {
	called := false
	api := newGuardTestAPI(t, stubService{
		listDrinksFn: func(context.Context) ([]domain.Drink, error) {
			called = true
			return []domain.Drink{matcha()}, nil
		},
	})

	rec := request(api, http.MethodGet, "/drinks-detail", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if called {
		t.Fatal("handler must not run without a token")
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("expected WWW-Authenticate header")
	}
	body := decodeBody[ErrorResponse](t, rec)
	if body.Success || body.Error != http.StatusUnauthorized || body.Code != string(auth.KindMissingToken) {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestGuardDeniesInsufficientPermission(t *testing.T) {
	api := newGuardTestAPI(t, stubService{
		createDrinkFn: func(context.Context, domain.CreateDrinkInput) (domain.Drink, error) {
			t.Fatal("handler must not run without permission")
			return domain.Drink{}, nil
		},
	})

	rec := request(api, http.MethodPost, "/drinks", "barista", `{"title":"water"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected %d, got %d", http.StatusForbidden, rec.Code)
	}
	body := decodeBody[ErrorResponse](t, rec)
	if body.Code != string(auth.KindInsufficientPermission) || body.Message != auth.KindInsufficientPermission.Message() {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestGuardHidesDiagnosticReason(t *testing.T) {
	api := newGuardTestAPI(t, stubService{})

	rec := request(api, http.MethodDelete, "/drinks/1", "forged", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if strings.Contains(rec.Body.String(), "unknown test token") {
		t.Fatalf("diagnostic reason leaked: %s", rec.Body.String())
	}
}

func TestGuardRejectsMalformedPermissionsClaim(t *testing.T) {
	api := newGuardTestAPI(t, stubService{})

	rec := request(api, http.MethodPost, "/drinks", "broken", `{"title":"water"}`)
	body := decodeBody[ErrorResponse](t, rec)
	if rec.Code != http.StatusUnauthorized || body.Code != string(auth.KindInvalidClaims) {
		t.Fatalf("unexpected response: %d %+v", rec.Code, body)
	}
}

func TestGuardPassesClaimsToHandler(t *testing.T) {
	var subject string
	api := newGuardTestAPI(t, stubService{
		deleteDrinkFn: func(ctx context.Context, _ int64) error {
			claims, ok := auth.ClaimsFromContext(ctx)
			if !ok {
				t.Fatal("expected claims in context")
			}
			subject = claims.Subject
			return nil
		},
	})

	rec := request(api, http.MethodDelete, "/drinks/1", "manager", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	if subject != "manager" {
		t.Fatalf("unexpected subject %q", subject)
	}
}

func TestPublicListingNeedsNoToken(t *testing.T) {
	api := newGuardTestAPI(t, stubService{
		listDrinksFn: func(context.Context) ([]domain.Drink, error) {
			return []domain.Drink{matcha()}, nil
		},
	})

	rec := request(api, http.MethodGet, "/drinks", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
}
