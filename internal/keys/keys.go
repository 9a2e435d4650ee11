// Package keys derives record addresses from stable seed values. Any party
// holding the program identity can recompute an address without querying an
// index, which is what lets external history/UI collaborators locate vault
// and position records directly.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
)

// Seed tags. These are part of the public addressing scheme and must not
// change once records exist.
const (
	vaultTag        = "vault"
	positionTag     = "user-position"
	custodyTag      = "vault-token"
	tokenAccountTag = "token-account"
)

// derive hashes the program identity, a tag and the given seeds into a
// hex-encoded address. Each component is length-prefixed so that no two
// distinct seed vectors can collide by concatenation.
func derive(programID, tag string, seeds ...string) string {
	h := sha256.New()
	writeComponent(h, programID)
	writeComponent(h, tag)
	for _, seed := range seeds {
		writeComponent(h, seed)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeComponent(h interface{ Write([]byte) (int, error) }, s string) {
	var lenBuf [4]byte
	n := len(s)
	lenBuf[0] = byte(n >> 24)
	lenBuf[1] = byte(n >> 16)
	lenBuf[2] = byte(n >> 8)
	lenBuf[3] = byte(n)
	h.Write(lenBuf[:])
	h.Write([]byte(s))
}

// VaultAddress returns the address of the vault record for an asset.
func VaultAddress(programID, assetID string) string {
	return derive(programID, vaultTag, assetID)
}

// PositionAddress returns the address of the position record for a
// (vault, depositor) pair.
func PositionAddress(programID, vaultAddress, depositor string) string {
	return derive(programID, positionTag, vaultAddress, depositor)
}

// CustodyAddress returns the address of the pooled custody token account
// holding all deposits for an asset.
func CustodyAddress(programID, assetID string) string {
	return derive(programID, custodyTag, assetID)
}

// TokenAccountAddress returns the address of a depositor's own holding
// account for an asset.
func TokenAccountAddress(programID, assetID, owner string) string {
	return derive(programID, tokenAccountTag, assetID, owner)
}
