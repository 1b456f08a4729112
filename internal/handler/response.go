package handler

// RESPONSE HELPERS:
// Every JSON response the auth API sends goes through these two functions,
// so the wire shapes stay consistent with what the SPA expects:
//
//	{"message": "..."}                                  — the base shape
//	{"message": "...", "isOAuthAccount": true, ...}     — wrong-method hint
//	{"message": "...", "requiresVerification": true}    — unverified login
//
// The mapping from domain errors to status codes lives here and only here;
// the service layer never sees an HTTP status.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aihub-vvit/aihub-server/internal/apperror"
)

// writeJSON sends a JSON response with the given status code. Headers must
// be set before the first body write, hence the fixed order here.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers already went out; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its status code and wire shape.
//
// STATUS MAPPING:
//
//	ErrValidation, ErrDuplicateEmail, ErrWrongMethod, ErrTokenInvalid → 400
//	ErrInvalidCredentials                                             → 401
//	ErrVerificationRequired                                           → 403
//	ErrNotFound                                                       → 404
//	anything else                                                     → 500, generic message
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// Unknown error — never leak internals to the client.
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Server error"})
		return
	}

	body := map[string]any{"message": appErr.Message}
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperror.ErrWrongMethod):
		status = http.StatusBadRequest
		// The SPA uses these to swap the password form for the right
		// social login button.
		body["isOAuthAccount"] = true
		if appErr.Provider != "" {
			body["provider"] = appErr.Provider
		}
	case errors.Is(err, apperror.ErrVerificationRequired):
		status = http.StatusForbidden
		body["requiresVerification"] = true
	case errors.Is(err, apperror.ErrValidation),
		errors.Is(err, apperror.ErrDuplicateEmail),
		errors.Is(err, apperror.ErrTokenInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	default:
		body["message"] = "Server error"
	}

	writeJSON(w, status, body)
}
