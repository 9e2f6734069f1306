package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// Account
	s.RegisterAPIRoute(http.MethodPost, RouteRegister, s.RegisterHandler(), s.RateLimitMiddleware)
	s.RegisterAPIRoute(http.MethodPost, RouteLogin, s.LoginHandler(), s.RateLimitMiddleware)
	s.RegisterAPIRoute(http.MethodPost, RouteLogout, s.LogoutHandler())
	s.RegisterAPIRoute(http.MethodPost, RouteRefresh, s.RefreshHandler(), s.RateLimitMiddleware)
	s.RegisterAPIRoute(http.MethodGet, RouteMe, s.MeHandler(), s.RequireAccess())
	s.RegisterAPIRoute(http.MethodPut, RouteProfile, s.UpdateProfileHandler(), s.RequireAccess())

	// Email verification
	s.RegisterAPIRoute(http.MethodPost, RouteVerifyEmail, s.VerifyEmailHandler(), s.RateLimitMiddleware)
	s.RegisterAPIRoute(http.MethodPost, RouteResendOTP, s.ResendOTPHandler(), s.RateLimitMiddleware)

	// Federated sign-in
	if s.federated != nil {
		s.RegisterRouteHandler("GET "+RouteOAuthGoogle, ChainMiddleware(s.FederatedStartHandler(), s.BaseMiddleware(s.RateLimitMiddleware)...))
		s.RegisterRouteHandler("GET "+RouteOAuthCallback, ChainMiddleware(s.FederatedCallbackHandler(), s.BaseMiddleware()...))
	}

	// Operations
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
}

// RegisterAPIRoute registers a JSON route together with its CORS preflight.
func (s *Server) RegisterAPIRoute(method, path string, handler http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) {
	s.RegisterRouteHandler(method+" "+path, ChainMiddleware(handler, s.APIMiddleware(mw...)...))
	s.mux.Handle(http.MethodOptions+" "+path, ChainMiddleware(preflightOnly, s.APIMiddleware()...))
}

// preflightOnly is reached only when CorsMiddleware lets an OPTIONS request through.
func preflightOnly(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
