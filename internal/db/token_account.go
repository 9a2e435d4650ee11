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

func (db *Database) GetTokenAccount(ctx context.Context, address string) (*model.TokenAccountDocument, error) {
	filter := bson.M{"_id": address}

	res := db.collection(model.TokenAccountCollection).FindOne(ctx, filter)

	var accountDoc model.TokenAccountDocument
	if err := res.Decode(&accountDoc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     address,
				Message: "token account not found",
			}
		}
		return nil, err
	}

	return &accountDoc, nil
}

// CreditTokenAccount adds amount to a holding, creating the account record
// on first credit.
func (db *Database) CreditTokenAccount(ctx context.Context, account *model.TokenAccountDocument, amount uint64) error {
	if err := checkStorableAmount(amount); err != nil {
		return err
	}
	filter := bson.M{"_id": account.Address}
	update := bson.M{
		"$inc": bson.M{"balance": int64(amount)},
		"$setOnInsert": bson.M{
			"asset_id": account.AssetID,
			"owner":    account.Owner,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := db.collection(model.TokenAccountCollection).UpdateOne(ctx, filter, update, opts)
	return err
}

// DebitTokenAccount removes amount from a holding. The balance gate in the
// filter makes the debit conditional and atomic: a missing account or a
// balance below amount matches nothing and no state changes.
func (db *Database) DebitTokenAccount(ctx context.Context, address string, amount uint64) error {
	if err := checkStorableAmount(amount); err != nil {
		return err
	}
	filter := bson.M{
		"_id":     address,
		"balance": bson.M{"$gte": amount},
	}
	update := bson.M{"$inc": bson.M{"balance": -int64(amount)}}

	res, err := db.collection(model.TokenAccountCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &InsufficientFundsError{
			Key:     address,
			Message: fmt.Sprintf("token account balance cannot cover transfer of %d", amount),
		}
	}
	return nil
}
