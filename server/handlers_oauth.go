package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// FederatedStartHandler redirects the browser to the identity provider with a
// fresh state, nonce and PKCE verifier.
func (s *Server) FederatedStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, flow, err := s.flows.Begin(returnPath(r.URL.Query().Get("return_to")))
		if err != nil {
			log.Error().Err(err).Msg("failed to start federated sign-in")
			s.redirectFederatedFailure(w, r)
			return
		}
		http.Redirect(w, r, s.federated.AuthCodeURL(state, flow.Nonce, flow.CodeVerifier), http.StatusFound)
	}
}

// FederatedCallbackHandler completes the provider round trip, establishes a
// session and sends the browser to the dashboard.
func (s *Server) FederatedCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if providerErr := q.Get("error"); providerErr != "" {
			log.Warn().Str("error", providerErr).Str("provider", s.federated.Name()).Msg("provider rejected sign-in")
			s.redirectFederatedFailure(w, r)
			return
		}

		flow, err := s.flows.Consume(q.Get("state"))
		if err != nil {
			log.Warn().Err(err).Msg("federated callback with bad state")
			s.redirectFederatedFailure(w, r)
			return
		}

		code := q.Get("code")
		if code == "" {
			log.Warn().Msg("federated callback without code")
			s.redirectFederatedFailure(w, r)
			return
		}

		identity, err := s.federated.Exchange(r.Context(), code, flow.CodeVerifier, flow.Nonce)
		if err != nil {
			log.Warn().Err(err).Str("provider", s.federated.Name()).Msg("federated code exchange failed")
			s.redirectFederatedFailure(w, r)
			return
		}

		session, err := s.auth.FederatedCallback(r.Context(), identity)
		if err != nil {
			log.Warn().Err(err).Str("provider", s.federated.Name()).Msg("federated sign-in rejected")
			s.redirectFederatedFailure(w, r)
			return
		}

		s.setSessionCookies(w, session.Tokens)
		http.Redirect(w, r, s.config.GetFrontendURL()+flow.ReturnURL, http.StatusFound)
	}
}

func (s *Server) redirectFederatedFailure(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.config.GetFrontendURL()+frontendLoginFailed, http.StatusFound)
}

// returnPath keeps only frontend-relative paths, defaulting to the dashboard.
func returnPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return frontendDashboard
	}
	return p
}
