package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const mongoServerSelectionTimeout = 2 * time.Second

func connectMongo(ctx context.Context) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(GetMongoTestURI()).
		SetServerSelectionTimeout(mongoServerSelectionTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// SkipIfNoMongo skips the test if the MongoDB test server is not available.
func SkipIfNoMongo(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*mongoServerSelectionTimeout)
	defer cancel()

	client, err := connectMongo(ctx)
	if err != nil {
		t.Skipf("mongodb not available: %v", err)
	}
	_ = client.Disconnect(ctx)
}

// SetupMongoDB returns a database with a unique name. The database is dropped
// and the client disconnected when the test finishes.
func SetupMongoDB(t *testing.T) *mongo.Database {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := connectMongo(ctx)
	require.NoError(t, err, "failed to connect to mongodb")

	db := client.Database(fmt.Sprintf("keyguard_test_%d", time.Now().UnixNano()))

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		_ = db.Drop(cleanupCtx)
		_ = client.Disconnect(cleanupCtx)
	})

	return db
}
