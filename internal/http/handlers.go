package http

import (
	"net/http"
)

// @Summary Health check
// @Tags health
// @Success 200 {string} string "ok"
// @Router /healthz [get]
func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// @Summary Readiness check
// @Tags health
// @Success 200 {string} string "ready"
// @Failure 503 {string} string "db unavailable"
// @Router /readyz [get]
func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if a.Health == nil {
		http.Error(w, "db unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := a.Health.Ping(ctx); err != nil {
		a.Logger.ErrorContext(ctx, "db ping failed", "err", err)
		http.Error(w, "db unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// @Summary List drinks
// @Description Public listing. Ingredient names are left out.
// @Tags drinks
// @Produce json
// @Success 200 {object} DrinksShortResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /drinks [get]
func (a *API) handleListDrinks(w http.ResponseWriter, r *http.Request) {
	drinks, err := a.Drinks.ListDrinks(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if len(drinks) == 0 {
		a.handleNotFound(w, r)
		return
	}

	a.respond(w, r, http.StatusOK, DrinksShortResponse{Success: true, Drinks: drinksToShort(drinks)})
}

// @Summary List drinks with full recipes
// @Tags drinks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DrinksLongResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /drinks-detail [get]
func (a *API) handleListDrinksDetail(w http.ResponseWriter, r *http.Request) {
	drinks, err := a.Drinks.ListDrinks(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if len(drinks) == 0 {
		a.handleNotFound(w, r)
		return
	}

	a.respond(w, r, http.StatusOK, DrinksLongResponse{Success: true, Drinks: drinksToLong(drinks)})
}

// @Summary Create drink
// @Tags drinks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param drink body CreateDrinkRequest true "Drink payload"
// @Success 201 {object} DrinksLongResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /drinks [post]
func (a *API) handleCreateDrink(w http.ResponseWriter, r *http.Request) {
	req, err := decode[CreateDrinkRequest](w, r)
	if err != nil {
		a.Logger.InfoContext(r.Context(), "unmarshaling drink from request", "err", err.Error())
		a.respondError(w, r, err)
		return
	}

	drink, err := a.Drinks.CreateDrink(r.Context(), req.toInput())
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	a.respond(w, r, http.StatusCreated, DrinksLongResponse{Success: true, Drinks: []DrinkLong{drinkToLong(drink)}})
}

// @Summary Update drink
// @Description Changes the title and/or recipe; omitted fields keep their value.
// @Tags drinks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Drink ID"
// @Param drink body UpdateDrinkRequest true "Fields to change"
// @Success 200 {object} DrinksLongResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /drinks/{id} [patch]
func (a *API) handleUpdateDrink(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathInt64(r, "id")
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	req, err := decode[UpdateDrinkRequest](w, r)
	if err != nil {
		a.Logger.InfoContext(r.Context(), "unmarshaling drink update from request", "id", id, "err", err.Error())
		a.respondError(w, r, err)
		return
	}

	drink, err := a.Drinks.UpdateDrink(r.Context(), id, req.toInput())
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	a.respond(w, r, http.StatusOK, DrinksLongResponse{Success: true, Drinks: []DrinkLong{drinkToLong(drink)}})
}

// @Summary Delete drink
// @Tags drinks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Drink ID"
// @Success 200 {object} DeleteDrinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /drinks/{id} [delete]
func (a *API) handleDeleteDrink(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathInt64(r, "id")
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	if err := a.Drinks.DeleteDrink(r.Context(), id); err != nil {
		a.respondError(w, r, err)
		return
	}

	a.respond(w, r, http.StatusOK, DeleteDrinkResponse{Success: true, Delete: id})
}

func (a *API) handleNotFound(w http.ResponseWriter, r *http.Request) {
	a.respond(w, r, http.StatusNotFound, ErrorResponse{
		Error:   http.StatusNotFound,
		Message: http.StatusText(http.StatusNotFound),
	})
}
