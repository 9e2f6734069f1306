package mailer_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/walletwise/auth-server/mailer"
)

func TestLogMailerOmitsBodyByDefault(t *testing.T) {
	var buf bytes.Buffer
	m := mailer.NewLogMailer(mailer.WithLogger(zerolog.New(&buf)))

	msg := mailer.VerificationMessage("WalletWise", "jane@uni.edu", "042137", 10*time.Minute)
	require.NoError(t, m.Send(context.Background(), msg))

	require.Contains(t, buf.String(), "jane@uni.edu")
	require.NotContains(t, buf.String(), "042137")
}

func TestLogMailerWithBodyLogging(t *testing.T) {
	var buf bytes.Buffer
	m := mailer.NewLogMailer(mailer.WithLogger(zerolog.New(&buf)), mailer.WithBodyLogging())

	msg := mailer.VerificationMessage("WalletWise", "jane@uni.edu", "042137", 10*time.Minute)
	require.NoError(t, m.Send(context.Background(), msg))

	require.Contains(t, buf.String(), "042137")
}
