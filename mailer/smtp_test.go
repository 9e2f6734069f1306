package mailer

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSMTPMailerSend(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", "587", "bot@example.com", "pw", "WalletWise <bot@example.com>")

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
		gotAuth smtp.Auth
	)
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, string(msg)
		return nil
	}

	err := m.Send(context.Background(), Message{To: "jane@uni.edu", Subject: "Code", Body: "line1\nline2"})
	require.NoError(t, err)
	require.Equal(t, "smtp.example.com:587", gotAddr)
	require.NotNil(t, gotAuth)
	require.Equal(t, "bot@example.com", gotFrom)
	require.Equal(t, []string{"jane@uni.edu"}, gotTo)
	require.True(t, strings.HasPrefix(gotMsg, "From: WalletWise <bot@example.com>\r\n"))
	require.Contains(t, gotMsg, "Subject: Code\r\n")
	require.Contains(t, gotMsg, "line1\r\nline2")
}

func TestSMTPMailerHonoursCancelledContext(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", "587", "", "", "bot@example.com")
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send should not be called")
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, m.Send(ctx, Message{To: "jane@uni.edu"}))
}
