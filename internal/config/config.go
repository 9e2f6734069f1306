package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	EnvDevelopment = "DEV"
	EnvProduction  = "PROD"

	devAccessSecret  = "dev-access-secret-change-me"
	devRefreshSecret = "dev-refresh-secret-change-me"
)

type Config interface {
	EnvConfig
	CorsConfig
	SecurityConfig
	StorageConfig
	MailConfig
	FederatedConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsProduction() bool
	GetFrontendURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type StorageConfig interface {
	GetStorageDriver() string
	GetSqlitePath() string
	GetMongoURI() string
	GetMongoDatabase() string
}

type MailConfig interface {
	GetSmtpHost() string
	GetSmtpPort() string
	GetSmtpAccount() string
	GetSmtpPassword() string
	GetEmailFrom() string
}

type FederatedConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURL() string
	GetGoogleIssuer() string
	FederatedEnabled() bool
}

type mainConfig struct {
	EnvVars
	Cors
	Security
	Storage
	Mail
	Federated
}

// Load reads an optional .env file, parses the process environment once and
// returns an immutable Config.
func Load() (Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, errors.Wrap(err, "[config.Load] failed to parse environment")
	}
	return FromSettings(s)
}

// FromSettings validates s and wraps it as a Config.
func FromSettings(s Settings) (Config, error) {
	if s.Env == "" {
		s.Env = EnvDevelopment
	}
	if s.AccessTokenSecret == "" || s.RefreshTokenSecret == "" {
		if s.Env == EnvProduction {
			return nil, errors.New("[config.FromSettings] JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required in production")
		}
		if s.AccessTokenSecret == "" {
			s.AccessTokenSecret = devAccessSecret
		}
		if s.RefreshTokenSecret == "" {
			s.RefreshTokenSecret = devRefreshSecret
		}
	}
	if s.Env == EnvProduction && s.SmtpHost == "" {
		return nil, errors.New("[config.FromSettings] SMTP_HOST is required in production")
	}
	if s.AccessTokenSecret == s.RefreshTokenSecret {
		return nil, errors.New("[config.FromSettings] access and refresh token secrets must differ")
	}
	switch s.StorageDriver {
	case StorageMemory, StorageSqlite, StorageMongo:
	default:
		return nil, errors.Errorf("[config.FromSettings] unknown STORAGE_DRIVER %q", s.StorageDriver)
	}

	return mainConfig{
		EnvVars:   EnvVars{s: s},
		Cors:      Cors{origins: parseOrigins(s.AllowedOrigins)},
		Security:  Security{s: s},
		Storage:   Storage{s: s},
		Mail:      Mail{s: s},
		Federated: Federated{s: s},
	}, nil
}
