package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Flarenzy/drinks-api/internal/domain"
	"github.com/Flarenzy/drinks-api/internal/metrics"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Permissions bound to the guarded drink routes.
const (
	PermissionGetDrinksDetail = "get:drinks-detail"
	PermissionPostDrinks      = "post:drinks"
	PermissionPatchDrinks     = "patch:drinks"
	PermissionDeleteDrinks    = "delete:drinks"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type API struct {
	Logger         *slog.Logger
	Health         HealthChecker
	Drinks         domain.DrinkService
	Gate           Authorizer
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

func NewAPI(logger *slog.Logger, health HealthChecker, drinks domain.DrinkService, gate Authorizer, m *metrics.Metrics) *API {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &API{
		Logger:  logger,
		Health:  health,
		Drinks:  drinks,
		Gate:    gate,
		Metrics: m,
	}
}

func (a *API) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)
	if a.Metrics != nil {
		mux.Handle("GET /metrics", a.Metrics.Handler())
	}
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	a.handle(mux, "GET /drinks", a.handleListDrinks)
	a.handle(mux, "GET /drinks-detail", a.requirePermission(PermissionGetDrinksDetail, a.handleListDrinksDetail))
	a.handle(mux, "POST /drinks", a.requirePermission(PermissionPostDrinks, a.handleCreateDrink))
	a.handle(mux, "PATCH /drinks/{id}", a.requirePermission(PermissionPatchDrinks, a.handleUpdateDrink))
	a.handle(mux, "DELETE /drinks/{id}", a.requirePermission(PermissionDeleteDrinks, a.handleDeleteDrink))

	mux.HandleFunc("/", a.handleNotFound)

	return a.withCORS(a.withRequestLog(mux))
}

func (a *API) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, a.instrument(pattern, h))
}
