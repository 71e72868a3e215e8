package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectMongo dials MONGO_URI, pings the primary and keeps the client on the
// config.
func ConnectMongo(ctx context.Context, cfg *Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	cfg.MongoClient = client
	return client.Database(cfg.DBName), nil
}

func (c *Config) DisconnectMongo(ctx context.Context) error {
	if c.MongoClient == nil {
		return nil
	}
	return c.MongoClient.Disconnect(ctx)
}
