package config

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoClient connects to the URI with the same pool limits as the PostgreSQL adapters and pings the primary.
func MongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	const serverSelectionTimeout = 5 * time.Second

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(sanitizerMaxConnections).
		SetMinPoolSize(0).
		SetMaxConnIdleTime(sanitizerMaxConnIdleTime).
		SetConnectTimeout(sanitizerConnectTimeout).
		SetServerSelectionTimeout(serverSelectionTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if pingErr := client.Ping(ctx, readpref.Primary()); pingErr != nil {
		_ = client.Disconnect(context.Background())
		return nil, pingErr
	}

	return client, nil
}
