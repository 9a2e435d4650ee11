package model

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vaultlabs-io/defi-vault-engine/internal/config"
)

const (
	VaultCollection        = "vaults"
	PositionCollection     = "positions"
	TokenAccountCollection = "token_accounts"
)

type index struct {
	Indexes map[string]int
	Unique  bool
}

var collections = map[string][]index{
	VaultCollection: {
		{Indexes: map[string]int{"asset_id": 1}, Unique: true},
	},
	PositionCollection: {
		{Indexes: map[string]int{"vault_address": 1, "owner": 1}, Unique: true},
	},
	TokenAccountCollection: {
		{Indexes: map[string]int{"asset_id": 1, "owner": 1}, Unique: true},
	},
}

// Setup creates the engine's collections and indexes. It is idempotent and
// safe to run on every startup.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	database := client.Database(cfg.DbName)
	for name, idxs := range collections {
		if err := createCollection(ctx, database, name); err != nil {
			return err
		}
		for _, idx := range idxs {
			if err := createIndex(ctx, database, name, idx); err != nil {
				return err
			}
		}
	}

	if err := client.Disconnect(ctx); err != nil {
		return err
	}
	return nil
}

func createCollection(ctx context.Context, database *mongo.Database, collectionName string) error {
	// CreateCollection fails with NamespaceExists on reruns, which is fine.
	err := database.CreateCollection(ctx, collectionName)
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists" {
			return nil
		}
		return err
	}
	log.Ctx(ctx).Debug().Str("collection", collectionName).Msg("collection created")
	return nil
}

func createIndex(ctx context.Context, database *mongo.Database, collectionName string, idx index) error {
	keys := bson.D{}
	for field, direction := range idx.Indexes {
		keys = append(keys, bson.E{Key: field, Value: direction})
	}

	indexModel := mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(idx.Unique),
	}

	if _, err := database.Collection(collectionName).Indexes().CreateOne(ctx, indexModel); err != nil {
		return err
	}
	return nil
}
