package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/league-backend/internal/domain"
	"github.com/DoyleJ11/league-backend/internal/engine"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	body := map[string]string{"error": message}
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		body["requestId"] = reqID
	}
	writeJSON(w, status, body)
}

// fail maps err onto a status. Unexpected errors are logged and hidden.
func fail(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		msg = "internal error"
	}
	writeError(w, r, status, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalid),
		errors.Is(err, engine.ErrInvalidPayload),
		errors.Is(err, engine.ErrUnknownAction),
		errors.Is(err, engine.ErrIllegalMatchup):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, engine.ErrIllegalTransition),
		errors.Is(err, engine.ErrGameNotLive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrGone):
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

// decodeJSON reads exactly one JSON value with no unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body: %w", domain.ErrInvalid)
	}
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %v: %w", err, domain.ErrInvalid)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body: trailing data: %w", domain.ErrInvalid)
	}
	return nil
}
