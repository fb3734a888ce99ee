package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ironpulse/clubsite/internal/middleware"
	"github.com/ironpulse/clubsite/internal/services"
	"github.com/ironpulse/clubsite/internal/utils"
)

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError maps expected service failures to their status and
// message. Anything else, including malformed rules and storage failures, is
// logged and answered with a generic localized message.
func (rt *Router) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	if se, ok := services.AsServiceError(err); ok && se.Code != services.ErrorInternal {
		writeJSON(w, statusFor(se.Code), errorBody{Error: se.Message, Code: string(se.Code)})
		return
	}
	rt.log.Error("request failed",
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: utils.T(locale, "error.generic")})
}

// decodeJSON reads a JSON body into dst. Failures are reported as invalid input.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			return services.NewInvalidError("request body too large")
		case errors.Is(err, io.EOF):
			return services.NewInvalidError("request body required")
		default:
			return services.NewInvalidError("invalid JSON: " + err.Error())
		}
	}
	return nil
}

func actorFrom(r *http.Request) string {
	if sub, ok := middleware.SubjectFromContext(r.Context()); ok {
		return sub
	}
	return "anonymous"
}

func nowUTC() time.Time { return time.Now().UTC() }
