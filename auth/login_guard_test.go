package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/walletwise/auth-server/auth"
)

func TestLoginGuard(t *testing.T) {
	g := auth.NewLoginGuard(2, time.Minute)
	require.False(t, g.Locked("a@uni.edu"))

	g.Fail("a@uni.edu")
	require.False(t, g.Locked("a@uni.edu"))
	g.Fail("a@uni.edu")
	require.True(t, g.Locked("a@uni.edu"))
	require.False(t, g.Locked("b@uni.edu"))

	g.Reset("a@uni.edu")
	require.False(t, g.Locked("a@uni.edu"))
}

func TestLoginGuardExpires(t *testing.T) {
	g := auth.NewLoginGuard(1, 50*time.Millisecond)
	g.Fail("a@uni.edu")
	require.True(t, g.Locked("a@uni.edu"))
	require.Eventually(t, func() bool { return !g.Locked("a@uni.edu") }, time.Second, 10*time.Millisecond)
}

func TestDisabledLoginGuard(t *testing.T) {
	var g *auth.LoginGuard = auth.NewLoginGuard(0, time.Minute)
	require.Nil(t, g)
	g.Fail("a@uni.edu")
	require.False(t, g.Locked("a@uni.edu"))
	g.Reset("a@uni.edu")
}
