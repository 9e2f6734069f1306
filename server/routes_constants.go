package server

// Route path constants
const (
	// Account
	RouteRegister = "/register"
	RouteLogin    = "/login"
	RouteLogout   = "/logout"
	RouteRefresh  = "/refresh"
	RouteMe       = "/me"
	RouteProfile  = "/profile"

	// Email verification
	RouteVerifyEmail = "/verify-email"
	RouteResendOTP   = "/resend-otp"

	// Federated sign-in
	RouteOAuthGoogle   = "/oauth/google"
	RouteOAuthCallback = "/oauth/callback"

	// Operations
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)

// Frontend paths used for redirects after federated sign-in.
const (
	frontendDashboard   = "/dashboard"
	frontendLoginFailed = "/login?error=oauth_failed"
)
