package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"jarvis/internal/auth"
	"jarvis/internal/store"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, message string, extra map[string]interface{}) {
	body := map[string]interface{}{"status": "success", "message": message}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": message})
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "⚠️ Invalid request body.")
		return false
	}
	return true
}

// errorResponse maps a core error to its status code and user-facing message
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrValidation):
		return http.StatusBadRequest, "⚠️ " + validationDetail(err)
	case errors.Is(err, auth.ErrDuplicateUsername):
		return http.StatusConflict, "⚠️ Username already exists."
	case errors.Is(err, auth.ErrDuplicateEmail):
		return http.StatusConflict, "⚠️ Email is already registered."
	case errors.Is(err, auth.ErrNotFound):
		return http.StatusNotFound, "❌ Username or email not found."
	case errors.Is(err, auth.ErrBadPassword):
		return http.StatusUnauthorized, "❌ Incorrect password."
	case errors.Is(err, auth.ErrUnknownUser):
		return http.StatusNotFound, "❌ Username does not exist."
	case errors.Is(err, auth.ErrInvalidOTP):
		return http.StatusBadRequest, "❌ Invalid or expired OTP."
	case errors.Is(err, auth.ErrSendFailure):
		return http.StatusInternalServerError, "❌ Failed to send OTP email."
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, "❌ Unauthorized"
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, "❌ Unauthorized"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "❌ Not found."
	default:
		return http.StatusInternalServerError, "❌ Internal error."
	}
}

// validationDetail strips the sentinel prefix from a wrapped validation error
func validationDetail(err error) string {
	msg := strings.TrimPrefix(err.Error(), auth.ErrValidation.Error())
	msg = strings.TrimPrefix(msg, ": ")
	if msg == "" {
		return "Invalid input."
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

func (s *Server) fail(w http.ResponseWriter, err error, op string) {
	status, message := errorResponse(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithContext("operation", op).Error("request failed: %v", err)
	}
	writeError(w, status, message)
}
