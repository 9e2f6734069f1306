package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/walletwise/auth-server/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")
	t.Setenv("PORT", "9090")

	c, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, config.EnvDevelopment, c.GetEnv())
	require.False(t, c.IsProduction())
	require.Equal(t, 15*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 24*time.Hour, c.GetRefreshTokenExpiry())
	require.Equal(t, 10*time.Minute, c.GetOTPExpiry())
	require.NotEmpty(t, c.GetAccessTokenSecret())
	require.NotEqual(t, c.GetAccessTokenSecret(), c.GetRefreshTokenSecret())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("http://localhost:3000"))
	require.False(t, c.FederatedEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "PROD")
	t.Setenv("JWT_ACCESS_SECRET", "a-secret")
	t.Setenv("JWT_REFRESH_SECRET", "r-secret")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com/, https://admin.example.com")
	t.Setenv("FRONTEND_URL", "https://app.example.com/")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SMTP_HOST", "smtp.example.com")

	c, err := config.Load()
	require.NoError(t, err)
	require.True(t, c.IsProduction())
	require.Equal(t, 5*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, "https://app.example.com", c.GetFrontendURL())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://app.example.com"))
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://admin.example.com"))
	require.Equal(t, config.StorageMemory, c.GetStorageDriver())
	require.Equal(t, "smtp.example.com", c.GetSmtpHost())
}

func TestFromSettingsRejectsMissingProductionSecrets(t *testing.T) {
	_, err := config.FromSettings(config.Settings{Env: config.EnvProduction, StorageDriver: config.StorageMemory})
	require.Error(t, err)
}

func TestFromSettingsRequiresSmtpInProduction(t *testing.T) {
	settings := config.Settings{
		Env:                config.EnvProduction,
		AccessTokenSecret:  "a-secret",
		RefreshTokenSecret: "r-secret",
		StorageDriver:      config.StorageMemory,
	}
	_, err := config.FromSettings(settings)
	require.ErrorContains(t, err, "SMTP_HOST")

	settings.SmtpHost = "smtp.example.com"
	_, err = config.FromSettings(settings)
	require.NoError(t, err)

	settings.Env = config.EnvDevelopment
	settings.SmtpHost = ""
	_, err = config.FromSettings(settings)
	require.NoError(t, err)
}

func TestFromSettingsRejectsSharedSecret(t *testing.T) {
	_, err := config.FromSettings(config.Settings{
		AccessTokenSecret:  "same",
		RefreshTokenSecret: "same",
		StorageDriver:      config.StorageMemory,
	})
	require.Error(t, err)
}

func TestFromSettingsRejectsUnknownDriver(t *testing.T) {
	_, err := config.FromSettings(config.Settings{StorageDriver: "postgres"})
	require.Error(t, err)
}
