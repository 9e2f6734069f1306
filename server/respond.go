package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	apperrors "github.com/walletwise/auth-server/internal/errors"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"

	msgInternal        = "Internal server error"
	msgPayloadTooLarge = "Request body too large"
	msgRateLimited     = "Too many requests, please try again later"

	codePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	codeRateLimited     = "RATE_LIMITED"
)

var errPayloadTooLarge = errors.New("request body too large")

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Email   string `json:"email,omitempty"`
}

// apiError is the HTTP rendering of a service error.
type apiError struct {
	status  int
	code    string
	message string
}

func classify(err error) apiError {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		return apiError{http.StatusBadRequest, "VALIDATION_ERROR", verr.Message}
	case errors.Is(err, apperrors.ErrValidation):
		return apiError{http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input"}
	case errors.Is(err, errPayloadTooLarge):
		return apiError{http.StatusRequestEntityTooLarge, codePayloadTooLarge, msgPayloadTooLarge}
	case errors.Is(err, apperrors.ErrDuplicateAccount):
		return apiError{http.StatusBadRequest, "DUPLICATE_ACCOUNT", "User already exists with this email or student ID"}
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return apiError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	case errors.Is(err, apperrors.ErrEmailNotVerified):
		return apiError{http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Please verify your email before logging in."}
	case errors.Is(err, apperrors.ErrNoChallenge):
		return apiError{http.StatusBadRequest, "OTP_NOT_REQUESTED", "No OTP requested"}
	case errors.Is(err, apperrors.ErrOTPExpired):
		return apiError{http.StatusBadRequest, "OTP_EXPIRED", "OTP expired"}
	case errors.Is(err, apperrors.ErrOTPMismatch):
		return apiError{http.StatusBadRequest, "OTP_INVALID", "Invalid OTP"}
	case errors.Is(err, apperrors.ErrTooManyAttempts):
		return apiError{http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many attempts, please try again later"}
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return apiError{http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required"}
	case errors.Is(err, apperrors.ErrRevoked):
		return apiError{http.StatusUnauthorized, "TOKEN_REVOKED", "Refresh token revoked"}
	case errors.Is(err, apperrors.ErrTokenExpired):
		return apiError{http.StatusUnauthorized, "TOKEN_EXPIRED", "Token expired"}
	case errors.Is(err, apperrors.ErrInvalidToken):
		return apiError{http.StatusUnauthorized, "TOKEN_INVALID", "Invalid token"}
	case errors.Is(err, apperrors.ErrNotFound):
		return apiError{http.StatusNotFound, "NOT_FOUND", "User not found"}
	default:
		return apiError{http.StatusInternalServerError, "", msgInternal}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Message: message, Code: code})
}

// writeError renders err as the JSON error envelope. Causes of internal
// failures are logged, never returned to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := classify(err)
	if e.status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSONError(w, e.status, e.code, e.message)
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperrors.NewValidationError("body", "Request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	var maxBytesErr *http.MaxBytesError
	switch {
	case err == nil:
	case errors.As(err, &maxBytesErr):
		return errPayloadTooLarge
	case errors.Is(err, io.EOF):
		return apperrors.NewValidationError("body", "Request body is required")
	default:
		return apperrors.NewValidationError("body", "Invalid JSON body")
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if errors.As(err, &maxBytesErr) {
			return errPayloadTooLarge
		}
		return apperrors.NewValidationError("body", "Request body must contain a single JSON object")
	}
	return nil
}
