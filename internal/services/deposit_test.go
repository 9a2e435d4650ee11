//go:build integration

package services

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultlabs-io/defi-vault-engine/internal/db"
	"github.com/vaultlabs-io/defi-vault-engine/internal/db/model"
	"github.com/vaultlabs-io/defi-vault-engine/internal/keys"
	"github.com/vaultlabs-io/defi-vault-engine/internal/types"
)

// racingVaultDb replays a lost vault creation race: the first vault read
// misses, the insert hits the unique index, and the re-read sees whatever
// the winner stored. Everything else passes through.
type racingVaultDb struct {
	db.DbInterface
	missedRead bool
}

func (r *racingVaultDb) GetVault(ctx context.Context, address string) (*model.VaultDocument, error) {
	if !r.missedRead {
		r.missedRead = true
		return nil, &db.NotFoundError{Key: address, Message: "vault not found"}
	}
	return r.DbInterface.GetVault(ctx, address)
}

func (r *racingVaultDb) SaveNewVault(_ context.Context, vaultDoc *model.VaultDocument) error {
	return &db.DuplicateKeyError{Key: vaultDoc.Address, Message: "vault already exists"}
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	t.Run("first deposit creates vault and position", func(t *testing.T) {
		service, emitter, _ := newTestService(time.Now().Unix())
		assetID := gofakeit.LetterN(8)
		depositor := gofakeit.LetterN(16)

		_, err := service.FundTokenAccount(ctx, assetID, depositor, 10_000)
		require.NoError(t, err)

		result, err := service.Deposit(ctx, &DepositRequest{
			AssetID:         assetID,
			Depositor:       depositor,
			Amount:          1_000,
			InterestRateBps: 750,
			MinDeposit:      200,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000), result.Principal)
		assert.Zero(t, result.AccruedInterest)
		assert.Equal(t, uint64(1_000), result.TotalDeposited)

		vault, err := testDB.GetVault(ctx, result.VaultAddress)
		require.NoError(t, err)
		assert.Equal(t, uint32(750), vault.InterestRateBps)
		assert.Equal(t, uint64(200), vault.MinDeposit)
		assert.Equal(t, uint64(1_000), vault.TotalDeposited)

		// funds moved from the holding into pooled custody
		holding, err := testDB.GetTokenAccount(ctx, keys.TokenAccountAddress(testProgramID, assetID, depositor))
		require.NoError(t, err)
		assert.Equal(t, uint64(9_000), holding.Balance)

		custody, err := testDB.GetTokenAccount(ctx, vault.CustodyAddress)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000), custody.Balance)

		require.Len(t, emitter.deposits, 1)
		event := emitter.deposits[0]
		assert.Equal(t, depositor, event.Depositor)
		assert.Equal(t, uint64(1_000), event.Amount)
		assert.Equal(t, uint64(1_000), event.ResultingPrincipal)
	})

	t.Run("zero rate and minimum fall back to engine defaults", func(t *testing.T) {
		service, _, _ := newTestService(time.Now().Unix())
		assetID := gofakeit.LetterN(8)
		depositor := gofakeit.LetterN(16)

		_, err := service.FundTokenAccount(ctx, assetID, depositor, 10_000)
		require.NoError(t, err)

		result, err := service.Deposit(ctx, &DepositRequest{
			AssetID:   assetID,
			Depositor: depositor,
			Amount:    1_000,
		})
		require.NoError(t, err)

		vault, err := testDB.GetVault(ctx, result.VaultAddress)
		require.NoError(t, err)
		assert.Equal(t, service.cfg.Engine.DefaultRateBps, vault.InterestRateBps)
		assert.Equal(t, service.cfg.Engine.DefaultMinDeposit, vault.MinDeposit)
	})

	t.Run("below vault minimum", func(t *testing.T) {
		service, emitter, _ := newTestService(time.Now().Unix())
		assetID := gofakeit.LetterN(8)
		depositor := gofakeit.LetterN(16)

		_, err := service.FundTokenAccount(ctx, assetID, depositor, 10_000)
		require.NoError(t, err)

		_, err = service.InitializeVault(ctx, &InitializeVaultRequest{
			Authority:  "ops",
			AssetID:    assetID,
			MinDeposit: 500,
		})
		require.NoError(t, err)

		_, err = service.Deposit(ctx, &DepositRequest{
			AssetID:   assetID,
			Depositor: depositor,
			Amount:    499,
		})
		require.Error(t, err)
		assert.Equal(t, types.InsufficientDepositAmount, types.ErrorCodeOf(err))
		assert.Empty(t, emitter.deposits)

		// rejection left the holding untouched
		holding, err := testDB.GetTokenAccount(ctx, keys.TokenAccountAddress(testProgramID, assetID, depositor))
		require.NoError(t, err)
		assert.Equal(t, uint64(10_000), holding.Balance)
	})

	t.Run("unfunded depositor leaves no position behind", func(t *testing.T) {
		service, emitter, _ := newTestService(time.Now().Unix())
		assetID := gofakeit.LetterN(8)
		depositor := gofakeit.LetterN(16)

		_, err := service.Deposit(ctx, &DepositRequest{
			AssetID:   assetID,
			Depositor: depositor,
			Amount:    1_000,
		})
		require.Error(t, err)
		assert.Equal(t, types.TransferFailed, types.ErrorCodeOf(err))
		assert.Empty(t, emitter.deposits)

		vaultAddress := keys.VaultAddress(testProgramID, assetID)
		positionAddress := keys.PositionAddress(testProgramID, vaultAddress, depositor)
		_, err = testDB.GetPosition(ctx, positionAddress)
		require.Error(t, err)
		assert.True(t, db.IsNotFoundError(err))

		// the vault record may exist from the implicit create, but no
		// principal was booked
		vault, err := testDB.GetVault(ctx, vaultAddress)
		require.NoError(t, err)
		assert.Zero(t, vault.TotalDeposited)
	})

	t.Run("publish failure does not fail the deposit", func(t *testing.T) {
		service, emitter, _ := newTestService(time.Now().Unix())
		emitter.failPublish = true
		assetID := gofakeit.LetterN(8)
		depositor := gofakeit.LetterN(16)

		_, err := service.FundTokenAccount(ctx, assetID, depositor, 10_000)
		require.NoError(t, err)

		result, err := service.Deposit(ctx, &DepositRequest{
			AssetID:   assetID,
			Depositor: depositor,
			Amount:    1_000,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000), result.Principal)
		assert.Empty(t, emitter.deposits)
	})

	t.Run("lost creation race books principal under the winner's configuration", func(t *testing.T) {
		service, _, _ := newTestService(time.Now().Unix())
		assetID := gofakeit.LetterN(8)
		winner := gofakeit.LetterN(16)
		loser := gofakeit.LetterN(16)

		_, err := service.FundTokenAccount(ctx, assetID, winner, 10_000)
		require.NoError(t, err)
		_, err = service.FundTokenAccount(ctx, assetID, loser, 10_000)
		require.NoError(t, err)

		// the winner's first deposit creates the vault with its terms
		first, err := service.Deposit(ctx, &DepositRequest{
			AssetID:         assetID,
			Depositor:       winner,
			Amount:          2_000,
			InterestRateBps: 900,
			MinDeposit:      50,
		})
		require.NoError(t, err)

		// the loser's first deposit runs as if the winner's create landed
		// between its vault read and its own insert
		service.db = &racingVaultDb{DbInterface: service.db}
		second, err := service.Deposit(ctx, &DepositRequest{
			AssetID:         assetID,
			Depositor:       loser,
			Amount:          1_000,
			InterestRateBps: 9_999,
			MinDeposit:      1,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000), second.Principal)
		assert.Equal(t, uint64(3_000), second.TotalDeposited)

		// the winner's configuration survived the race
		vault, err := testDB.GetVault(ctx, second.VaultAddress)
		require.NoError(t, err)
		assert.Equal(t, winner, vault.Authority)
		assert.Equal(t, uint32(900), vault.InterestRateBps)
		assert.Equal(t, uint64(50), vault.MinDeposit)
		assert.Equal(t, uint64(3_000), vault.TotalDeposited)

		// both positions carry their own principal
		winnerPosition, err := testDB.GetPosition(ctx, first.PositionAddress)
		require.NoError(t, err)
		assert.Equal(t, uint64(2_000), winnerPosition.Principal)
		loserPosition, err := testDB.GetPosition(ctx, second.PositionAddress)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000), loserPosition.Principal)
	})

	t.Run("repeat deposits accumulate principal", func(t *testing.T) {
		service, _, _ := newTestService(time.Now().Unix())
		assetID := gofakeit.LetterN(8)
		depositor := gofakeit.LetterN(16)

		_, err := service.FundTokenAccount(ctx, assetID, depositor, 10_000)
		require.NoError(t, err)

		first, err := service.Deposit(ctx, &DepositRequest{AssetID: assetID, Depositor: depositor, Amount: 1_000})
		require.NoError(t, err)
		second, err := service.Deposit(ctx, &DepositRequest{AssetID: assetID, Depositor: depositor, Amount: 2_500})
		require.NoError(t, err)

		assert.Equal(t, uint64(1_000), first.Principal)
		assert.Equal(t, uint64(3_500), second.Principal)
		assert.Equal(t, uint64(3_500), second.TotalDeposited)

		position, err := testDB.GetPosition(ctx, second.PositionAddress)
		require.NoError(t, err)
		assert.Equal(t, uint64(3_500), position.Principal)
		assert.Equal(t, uint64(2), position.DepositCount)
	})
}
