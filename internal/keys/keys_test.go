package keys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testProgramID = "vault-engine-test"

func TestDerivationIsDeterministic(t *testing.T) {
	a := VaultAddress(testProgramID, "usdc")
	b := VaultAddress(testProgramID, "usdc")
	require.Equal(t, a, b)
	require.Len(t, a, 64)
}

func TestDistinctSeedsDistinctAddresses(t *testing.T) {
	vault := VaultAddress(testProgramID, "usdc")

	require.NotEqual(t, vault, VaultAddress(testProgramID, "usdt"))
	require.NotEqual(t, vault, VaultAddress("other-program", "usdc"))
	require.NotEqual(t, vault, CustodyAddress(testProgramID, "usdc"))
	require.NotEqual(t, vault, PositionAddress(testProgramID, vault, "alice"))
}

func TestPositionAddressBoundToVaultAndDepositor(t *testing.T) {
	vault := VaultAddress(testProgramID, "usdc")
	otherVault := VaultAddress(testProgramID, "usdt")

	alice := PositionAddress(testProgramID, vault, "alice")
	require.NotEqual(t, alice, PositionAddress(testProgramID, vault, "bob"))
	require.NotEqual(t, alice, PositionAddress(testProgramID, otherVault, "alice"))
}

// Concatenation of adjacent seeds must not produce the same address as the
// split form, otherwise two distinct (vault, depositor) pairs could alias.
func TestNoConcatenationAliasing(t *testing.T) {
	a := PositionAddress(testProgramID, "ab", "c")
	b := PositionAddress(testProgramID, "a", "bc")
	require.NotEqual(t, a, b)
}

func TestTokenAccountAddressPerOwner(t *testing.T) {
	a := TokenAccountAddress(testProgramID, "usdc", "alice")
	b := TokenAccountAddress(testProgramID, "usdc", "bob")
	require.NotEqual(t, a, b)
	require.NotEqual(t, a, CustodyAddress(testProgramID, "usdc"))
}
