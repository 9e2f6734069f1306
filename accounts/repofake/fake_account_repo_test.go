package repofake_test

import (
	"testing"

	"github.com/walletwise/auth-server/accounts"
	"github.com/walletwise/auth-server/accounts/repofake"
	"github.com/walletwise/auth-server/accounts/repotest"
)

func TestFakeAccountRepo(t *testing.T) {
	repotest.Run(t, func(t *testing.T) accounts.Repo {
		return repofake.NewFakeAccountRepo()
	})
}
