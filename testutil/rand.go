package testutil

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"

	"github.com/vaultlabs-io/defi-vault-engine/internal/db/model"
	"github.com/vaultlabs-io/defi-vault-engine/internal/keys"
)

// RandomAlphaNum generates random alphanumeric string
// in case length <= 0 it returns empty string
func RandomAlphaNum(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	if length <= 0 {
		return "", fmt.Errorf("length must be greater than 0")
	}

	randomString := make([]byte, length)
	for i := range randomString {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		randomString[i] = charset[num.Int64()]
	}

	return string(randomString), nil
}

// RandomVaultDocument builds a vault with consistent derived addresses for a
// random asset. Amount fields stay small enough that test arithmetic on top
// of them cannot overflow.
func RandomVaultDocument(t *testing.T, programID string) *model.VaultDocument {
	assetID := gofakeit.LetterN(8)
	return model.NewVaultDocument(
		keys.VaultAddress(programID, assetID),
		gofakeit.LetterN(16),
		assetID,
		keys.CustodyAddress(programID, assetID),
		uint32(gofakeit.Number(1, 10_000)),
		uint64(gofakeit.Number(1, 1_000)),
		time.Now().Unix(),
	)
}

// RandomPositionDocument builds a position under the given vault for a random
// depositor.
func RandomPositionDocument(t *testing.T, programID string, vault *model.VaultDocument) *model.PositionDocument {
	owner := gofakeit.LetterN(16)
	position := model.NewPositionDocument(
		keys.PositionAddress(programID, vault.Address, owner),
		owner,
		vault.Address,
		time.Now().Unix(),
	)
	require.NoError(t, position.ApplyDeposit(uint64(gofakeit.Number(1, 1_000_000))))
	return position
}

// RandomTokenAccountDocument builds a funded token account for a random owner
// of the given asset.
func RandomTokenAccountDocument(t *testing.T, programID, assetID string) *model.TokenAccountDocument {
	owner := gofakeit.LetterN(16)
	return model.NewTokenAccountDocument(
		keys.TokenAccountAddress(programID, assetID, owner),
		assetID,
		owner,
		uint64(gofakeit.Number(1, 1_000_000)),
	)
}
