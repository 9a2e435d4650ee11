package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vaultlabs-io/defi-vault-engine/internal/db/model"
)

// SaveNewVault inserts a vault record at its derived address. Concurrent
// creators race on the _id unique index: exactly one insert wins and the
// losers observe DuplicateKeyError, which callers treat as already-exists.
func (db *Database) SaveNewVault(ctx context.Context, vaultDoc *model.VaultDocument) error {
	_, err := db.collection(model.VaultCollection).InsertOne(ctx, vaultDoc)
	if err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) {
			for _, e := range writeErr.WriteErrors {
				if mongo.IsDuplicateKeyError(e) {
					return &DuplicateKeyError{
						Key:     vaultDoc.Address,
						Message: "vault already exists",
					}
				}
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetVault(ctx context.Context, address string) (*model.VaultDocument, error) {
	filter := bson.M{"_id": address}

	res := db.collection(model.VaultCollection).FindOne(ctx, filter)

	var vaultDoc model.VaultDocument
	if err := res.Decode(&vaultDoc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     address,
				Message: "vault not found",
			}
		}
		return nil, err
	}

	return &vaultDoc, nil
}

// GetVaults lists every vault record. The audit poller walks this list, so
// ordering by asset id keeps successive audit logs comparable.
func (db *Database) GetVaults(ctx context.Context) ([]model.VaultDocument, error) {
	cursor, err := db.collection(model.VaultCollection).Find(
		ctx, bson.M{}, options.Find().SetSort(bson.M{"asset_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var vaults []model.VaultDocument
	if err := cursor.All(ctx, &vaults); err != nil {
		return nil, err
	}
	return vaults, nil
}

// IncVaultTotalDeposited grows the vault's running principal total after a
// deposit commits and returns the stored total after the increment, so the
// caller reports the vault-wide figure rather than its own stale snapshot.
func (db *Database) IncVaultTotalDeposited(ctx context.Context, address string, amount uint64) (uint64, error) {
	if err := checkStorableAmount(amount); err != nil {
		return 0, err
	}
	filter := bson.M{"_id": address}
	update := bson.M{"$inc": bson.M{"total_deposited": int64(amount)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	res := db.collection(model.VaultCollection).FindOneAndUpdate(ctx, filter, update, opts)

	var vaultDoc model.VaultDocument
	if err := res.Decode(&vaultDoc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, &NotFoundError{
				Key:     address,
				Message: "vault not found when increasing total deposited",
			}
		}
		return 0, err
	}
	return vaultDoc.TotalDeposited, nil
}

// DecVaultTotalDeposited shrinks the vault's running principal total by the
// principal share of a withdrawal and returns the stored total after the
// decrement. The filter refuses to take the total below zero; a miss with
// the vault present means the per-position bookkeeping and the vault total
// diverged.
func (db *Database) DecVaultTotalDeposited(ctx context.Context, address string, amount uint64) (uint64, error) {
	if err := checkStorableAmount(amount); err != nil {
		return 0, err
	}
	filter := bson.M{
		"_id":             address,
		"total_deposited": bson.M{"$gte": amount},
	}
	update := bson.M{"$inc": bson.M{"total_deposited": -int64(amount)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	res := db.collection(model.VaultCollection).FindOneAndUpdate(ctx, filter, update, opts)

	var vaultDoc model.VaultDocument
	if err := res.Decode(&vaultDoc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, &StaleDocumentError{
				Key:     address,
				Message: fmt.Sprintf("vault total_deposited cannot cover principal withdrawal of %d", amount),
			}
		}
		return 0, err
	}
	return vaultDoc.TotalDeposited, nil
}
