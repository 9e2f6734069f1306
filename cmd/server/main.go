package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/walletwise/auth-server/accounts"
	"github.com/walletwise/auth-server/accounts/mongostore"
	"github.com/walletwise/auth-server/accounts/repofake"
	"github.com/walletwise/auth-server/accounts/sqlitestore"
	"github.com/walletwise/auth-server/auth"
	"github.com/walletwise/auth-server/federated"
	"github.com/walletwise/auth-server/internal/config"
	"github.com/walletwise/auth-server/mailer"
	"github.com/walletwise/auth-server/otp"
	"github.com/walletwise/auth-server/server"
	"github.com/walletwise/auth-server/sessions"
	"github.com/walletwise/auth-server/token"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(c)
	displayAppname(c.GetAppName())

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.close()

	dispatcher := mailer.NewDispatcher(newMailer(c))
	defer dispatcher.Close()

	handler, err := buildServer(c, store, dispatcher)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(srv) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

func setupLogging(c config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if c.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// accountStore is the configured accounts.Repo plus its shutdown and health hooks.
type accountStore struct {
	accounts.Repo
	ping  func(context.Context) error
	close func()
}

func openStore(c config.Config) (*accountStore, error) {
	switch c.GetStorageDriver() {
	case config.StorageSqlite:
		s, err := sqlitestore.Open(c.GetSqlitePath())
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Info().Str("path", c.GetSqlitePath()).Msg("using sqlite account store")
		return &accountStore{
			Repo:  s,
			ping:  s.Ping,
			close: func() { _ = s.Close() },
		}, nil

	case config.StorageMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := mongostore.Open(ctx, c.GetMongoURI(), c.GetMongoDatabase())
		if err != nil {
			return nil, fmt.Errorf("open mongo store: %w", err)
		}
		log.Info().Str("database", c.GetMongoDatabase()).Msg("using mongo account store")
		return &accountStore{
			Repo: s,
			ping: s.Ping,
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = s.Close(ctx)
			},
		}, nil

	default:
		log.Warn().Msg("using in-memory account store, accounts are lost on restart")
		return &accountStore{
			Repo:  repofake.NewFakeAccountRepo(),
			ping:  func(context.Context) error { return nil },
			close: func() {},
		}, nil
	}
}

func newMailer(c config.Config) mailer.Mailer {
	if c.GetSmtpHost() == "" {
		log.Warn().Msg("SMTP_HOST not set, verification emails are written to the log")
		if c.IsProduction() {
			return mailer.NewLogMailer()
		}
		return mailer.NewLogMailer(mailer.WithBodyLogging())
	}
	return mailer.NewSMTPMailer(c.GetSmtpHost(), c.GetSmtpPort(), c.GetSmtpAccount(), c.GetSmtpPassword(), c.GetEmailFrom())
}

func buildServer(c config.Config, store *accountStore, notifier auth.Notifier) (*server.Server, error) {
	issuer, err := otp.NewIssuer(store,
		otp.WithTTL(c.GetOTPExpiry()),
		otp.WithMaxAttempts(c.GetOTPMaxAttempts()),
	)
	if err != nil {
		return nil, err
	}

	tokens, err := token.New(
		token.NewSecretSigner(c.GetAccessTokenSecret()),
		token.NewSecretSigner(c.GetRefreshTokenSecret()),
		token.WithIssuer(c.GetIssuer()),
		token.WithTokenExpiry(c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry()),
	)
	if err != nil {
		return nil, err
	}

	sessionManager, err := sessions.NewManager(store, tokens)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(store, issuer, sessionManager, tokens,
		auth.WithNotifier(notifier),
		auth.WithLoginGuard(auth.NewLoginGuard(c.GetLoginMaxFailures(), c.GetLoginLockout())),
		auth.WithResendCooldown(c.GetOTPResendCooldown()),
		auth.WithAppName(c.GetAppName()),
	)
	if err != nil {
		return nil, err
	}

	options := []server.Option{server.WithReadinessCheck(store.ping)}
	if c.FederatedEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		provider, err := federated.NewOIDCProvider(ctx, federated.OIDCConfig{
			Name:         "google",
			Issuer:       c.GetGoogleIssuer(),
			ClientID:     c.GetGoogleClientID(),
			ClientSecret: c.GetGoogleClientSecret(),
			RedirectURL:  c.GetGoogleRedirectURL(),
		})
		if err != nil {
			// Password login keeps working without the provider.
			log.Error().Err(err).Msg("federated sign-in disabled")
		} else {
			options = append(options, server.WithFederatedProvider(provider, federated.NewFlowStore(10*time.Minute)))
		}
	}

	return server.New(c, authService, options...)
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
