package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Flarenzy/drinks-api/internal/auth"
	"github.com/Flarenzy/drinks-api/internal/domain"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

func encode[T any](w http.ResponseWriter, _ *http.Request, status int, v T) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func decode[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&v); err != nil {
		return v, fmt.Errorf("%w: decode json: %v", errBadRequest, err)
	}
	return v, nil
}

func parsePathInt64(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, raw)
	}
	return id, nil
}

// respond writes v and logs when the client could not be written to.
func (a *API) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := encode(w, r, status, v); err != nil {
		a.Logger.ErrorContext(r.Context(), "responding to client", "err", err.Error())
	}
}

func (a *API) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		a.Logger.ErrorContext(r.Context(), "request failed", "err", err.Error())
	}
	a.respond(w, r, status, ErrorResponse{Error: status, Message: message})
}

func (a *API) respondDenied(w http.ResponseWriter, r *http.Request, denial *auth.Error) {
	status := denial.Status()
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="drinks"`)
	}
	a.respond(w, r, status, ErrorResponse{
		Error:   status,
		Message: denial.Message(),
		Code:    string(denial.Kind),
	})
}

// errorStatus maps known error categories to a status and a public message.
// Anything unrecognised is a 500 with a generic message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, http.StatusText(http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, http.StatusText(http.StatusBadRequest)
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}
