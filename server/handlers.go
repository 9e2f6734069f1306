package server

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/walletwise/auth-server/accounts"
	"github.com/walletwise/auth-server/auth"
	apperrors "github.com/walletwise/auth-server/internal/errors"
)

// RegisterHandler creates an unverified account and sends its verification code.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd auth.RegisterCommand
		if err := decodeJSON(r, &cmd); err != nil {
			writeError(w, r, err)
			return
		}

		res, err := s.auth.Register(r.Context(), cmd)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"success":              true,
			"message":              "Registration successful. Please verify your email.",
			"requiresVerification": res.RequiresVerification,
			"email":                res.Email,
		})
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd auth.LoginCommand
		if err := decodeJSON(r, &cmd); err != nil {
			writeError(w, r, err)
			return
		}

		session, err := s.auth.Login(r.Context(), cmd)
		if errors.Is(err, apperrors.ErrEmailNotVerified) {
			e := classify(err)
			writeJSON(w, e.status, errorResponse{
				Message: e.message,
				Code:    e.code,
				Email:   accounts.NormalizeEmail(cmd.Email),
			})
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}

		s.setSessionCookies(w, session.Tokens)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Login successful",
			"user":    session.Profile,
		})
	}
}

// LogoutHandler always succeeds and clears the session cookies.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.auth.Logout(r.Context(), cookieValue(r, refreshTokenCookie))
		s.clearSessionCookies(w)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Logged out successfully",
		})
	}
}

// RefreshHandler rotates the session. Any failure clears the cookies so the
// client falls back to a fresh login.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pair, err := s.auth.Refresh(r.Context(), cookieValue(r, refreshTokenCookie))
		if err != nil {
			if classify(err).status == http.StatusUnauthorized {
				s.clearSessionCookies(w)
			}
			writeError(w, r, err)
			return
		}

		s.setSessionCookies(w, pair)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Session refreshed",
		})
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := s.auth.Me(r.Context(), accountIDFromContext(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"user":    profile,
		})
	}
}

func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch auth.ProfilePatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, r, err)
			return
		}

		profile, err := s.auth.UpdateProfile(r.Context(), accountIDFromContext(r.Context()), patch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Profile updated successfully",
			"user":    profile,
		})
	}
}

func (s *Server) VerifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd auth.VerifyEmailCommand
		if err := decodeJSON(r, &cmd); err != nil {
			writeError(w, r, err)
			return
		}

		res, err := s.auth.VerifyEmail(r.Context(), cmd)
		if err != nil {
			writeError(w, r, err)
			return
		}

		if res.AlreadyVerified {
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"message": "Email already verified",
				"user":    res.Profile,
			})
			return
		}

		s.setSessionCookies(w, res.Session.Tokens)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Email verified successfully",
			"user":    res.Profile,
		})
	}
}

func (s *Server) ResendOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd auth.ResendOTPCommand
		if err := decodeJSON(r, &cmd); err != nil {
			writeError(w, r, err)
			return
		}

		res, err := s.auth.ResendOTP(r.Context(), cmd)
		if err != nil {
			writeError(w, r, err)
			return
		}

		message := "OTP resent successfully"
		if res.AlreadyVerified {
			message = "Email already verified"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": message,
		})
	}
}

// HealthHandler reports whether the account store is reachable.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.ready != nil {
			if err := s.ready(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}
