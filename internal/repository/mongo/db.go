package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	// Ping the primary node, the initial connect does not verify the server is reachable.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, fmt.Errorf("ping: %w", err)
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection the service touches.
// The unique indexes back the one-active-enrollment and one-check-in-per-day
// invariants, so a failure here must stop startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := EnsureEnrollmentIndexes(ctx, db.Collection(enrollmentCollectionName)); err != nil {
		return fmt.Errorf("enrollment indexes: %w", err)
	}
	if err := EnsureCheckInIndexes(ctx, db.Collection(checkInCollectionName)); err != nil {
		return fmt.Errorf("check-in indexes: %w", err)
	}
	if err := EnsurePlanDetailIndexes(ctx, db.Collection(planDetailCollectionName)); err != nil {
		return fmt.Errorf("plan detail indexes: %w", err)
	}
	return nil
}
