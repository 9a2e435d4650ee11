//go:build integration

package db_test

import (
	"context"
	"math"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultlabs-io/defi-vault-engine/internal/db"
	"github.com/vaultlabs-io/defi-vault-engine/internal/db/model"
	"github.com/vaultlabs-io/defi-vault-engine/internal/keys"
	"github.com/vaultlabs-io/defi-vault-engine/testutil"
)

func TestTokenAccount(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	t.Run("credit creates account", func(t *testing.T) {
		assetID := gofakeit.LetterN(8)
		owner := gofakeit.LetterN(16)
		account := model.NewTokenAccountDocument(
			keys.TokenAccountAddress(testProgramID, assetID, owner),
			assetID,
			owner,
			0,
		)

		require.NoError(t, testDB.CreditTokenAccount(ctx, account, 1_000))

		stored, err := testDB.GetTokenAccount(ctx, account.Address)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000), stored.Balance)
		assert.Equal(t, assetID, stored.AssetID)
		assert.Equal(t, owner, stored.Owner)

		// further credits accumulate
		require.NoError(t, testDB.CreditTokenAccount(ctx, account, 500))
		stored, err = testDB.GetTokenAccount(ctx, account.Address)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_500), stored.Balance)
	})

	t.Run("debit", func(t *testing.T) {
		account := testutil.RandomTokenAccountDocument(t, testProgramID, gofakeit.LetterN(8))
		require.NoError(t, testDB.CreditTokenAccount(ctx, account, account.Balance))

		require.NoError(t, testDB.DebitTokenAccount(ctx, account.Address, account.Balance))

		stored, err := testDB.GetTokenAccount(ctx, account.Address)
		require.NoError(t, err)
		assert.Zero(t, stored.Balance)

		// balance gate refuses a debit the balance cannot cover
		err = testDB.DebitTokenAccount(ctx, account.Address, 1)
		require.Error(t, err)
		assert.True(t, db.IsInsufficientFundsError(err))
	})

	t.Run("debit missing account", func(t *testing.T) {
		err := testDB.DebitTokenAccount(ctx, "no-such-address", 1)
		require.Error(t, err)
		assert.True(t, db.IsInsufficientFundsError(err))
	})

	t.Run("amount past the int64 range is rejected", func(t *testing.T) {
		account := testutil.RandomTokenAccountDocument(t, testProgramID, gofakeit.LetterN(8))
		require.NoError(t, testDB.CreditTokenAccount(ctx, account, account.Balance))

		// the bson codec stores balances as int64, so deltas above
		// MaxInt64 are refused instead of flipping sign
		err := testDB.CreditTokenAccount(ctx, account, math.MaxInt64+1)
		require.Error(t, err)
		err = testDB.DebitTokenAccount(ctx, account.Address, math.MaxUint64)
		require.Error(t, err)

		stored, err := testDB.GetTokenAccount(ctx, account.Address)
		require.NoError(t, err)
		assert.Equal(t, account.Balance, stored.Balance)
	})

	t.Run("get missing account", func(t *testing.T) {
		account, err := testDB.GetTokenAccount(ctx, "no-such-address")
		require.Error(t, err)
		assert.True(t, db.IsNotFoundError(err))
		assert.Nil(t, account)
	})
}
