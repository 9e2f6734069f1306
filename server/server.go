package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/rs/zerolog/log"
	"github.com/walletwise/auth-server/auth"
	"github.com/walletwise/auth-server/federated"
	"github.com/walletwise/auth-server/internal/config"
)

type Server struct {
	env       string
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	auth      *auth.Service
	federated federated.Provider
	flows     *federated.FlowStore
	limiter   *limiter.Limiter
	ready     func(context.Context) error
}

type Option func(*Server)

// WithFederatedProvider enables the third-party sign-in routes.
func WithFederatedProvider(p federated.Provider, flows *federated.FlowStore) Option {
	return func(s *Server) {
		s.federated = p
		s.flows = flows
	}
}

// WithReadinessCheck sets the probe used by the health endpoint.
func WithReadinessCheck(check func(context.Context) error) Option {
	return func(s *Server) {
		s.ready = check
	}
}

func New(cfg config.Config, authService *auth.Service, options ...Option) (*Server, error) {
	if cfg == nil || authService == nil {
		return nil, fmt.Errorf("[Server New] config and auth service are required")
	}

	s := &Server{
		env:    cfg.GetEnv(),
		mux:    http.NewServeMux(),
		config: cfg,
		auth:   authService,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.federated != nil && s.flows == nil {
		s.flows = federated.NewFlowStore(0)
	}

	if rate := cfg.GetRateLimitPerSecond(); rate > 0 {
		s.limiter = tollbooth.NewLimiter(rate, nil)
		s.limiter.SetIPLookups([]string{"RemoteAddr", "X-Forwarded-For", "X-Real-IP"})
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != config.EnvDevelopment {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-19s] %s", colourMethod(method), path)
}
