package model

// TokenAccountDocument is a holding of a single asset by a single owner in
// the custody ledger. The pooled vault custody account is a token account
// whose owner is the vault address.
type TokenAccountDocument struct {
	// Address is the derived token account address, primary key.
	Address string `bson:"_id"`
	AssetID string `bson:"asset_id"`
	Owner   string `bson:"owner"`
	Balance uint64 `bson:"balance"`
}

func NewTokenAccountDocument(address, assetID, owner string, balance uint64) *TokenAccountDocument {
	return &TokenAccountDocument{
		Address: address,
		AssetID: assetID,
		Owner:   owner,
		Balance: balance,
	}
}
