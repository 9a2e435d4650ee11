package db

import (
	"context"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vaultlabs-io/defi-vault-engine/internal/config"
)

type Database struct {
	dbName string
	client *mongo.Client
}

func New(ctx context.Context, cfg config.DbConfig) (*Database, error) {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return nil, err
	}

	return &Database{
		dbName: cfg.DbName,
		client: client,
	}, nil
}

func (db *Database) collection(name string) *mongo.Collection {
	return db.client.Database(db.dbName).Collection(name)
}

func (db *Database) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, nil)
}

// Amounts travel through bson as int64, so an $inc delta above MaxInt64
// would flip sign inside storage. Such amounts are rejected before any
// document is touched.
func checkStorableAmount(amount uint64) error {
	if amount > math.MaxInt64 {
		return fmt.Errorf("amount %d exceeds the storable balance range", amount)
	}
	return nil
}
