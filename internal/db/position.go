package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vaultlabs-io/defi-vault-engine/internal/db/model"
)

func (db *Database) SaveNewPosition(ctx context.Context, positionDoc *model.PositionDocument) error {
	_, err := db.collection(model.PositionCollection).InsertOne(ctx, positionDoc)
	if err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) {
			for _, e := range writeErr.WriteErrors {
				if mongo.IsDuplicateKeyError(e) {
					return &DuplicateKeyError{
						Key:     positionDoc.Address,
						Message: "position already exists",
					}
				}
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetPosition(ctx context.Context, address string) (*model.PositionDocument, error) {
	filter := bson.M{"_id": address}

	res := db.collection(model.PositionCollection).FindOne(ctx, filter)

	var positionDoc model.PositionDocument
	if err := res.Decode(&positionDoc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     address,
				Message: "position not found",
			}
		}
		return nil, err
	}

	return &positionDoc, nil
}

// UpdatePositionCheckpoint replaces a position record with its settled and
// mutated successor. The filter pins the counters and settlement time the
// operation read, so a concurrent writer that slipped past the external
// per-record serialization surfaces as StaleDocumentError instead of a lost
// update.
func (db *Database) UpdatePositionCheckpoint(
	ctx context.Context,
	prev, updated *model.PositionDocument,
) error {
	filter := bson.M{
		"_id":              prev.Address,
		"deposit_count":    prev.DepositCount,
		"withdraw_count":   prev.WithdrawCount,
		"last_update_time": prev.LastUpdateTime,
	}

	res, err := db.collection(model.PositionCollection).ReplaceOne(ctx, filter, updated)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &StaleDocumentError{
			Key:     prev.Address,
			Message: "position modified concurrently since it was read",
		}
	}
	return nil
}

// GetPositionsByVault lists all positions referencing a vault. Used by the
// invariant check that the vault total equals the sum of position principals.
func (db *Database) GetPositionsByVault(ctx context.Context, vaultAddress string) ([]model.PositionDocument, error) {
	filter := bson.M{"vault_address": vaultAddress}

	cursor, err := db.collection(model.PositionCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var positions []model.PositionDocument
	if err = cursor.All(ctx, &positions); err != nil {
		return nil, err
	}

	return positions, nil
}
