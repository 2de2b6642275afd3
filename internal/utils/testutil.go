package utils

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	testEnvOnce  sync.Once
	testMongoURI string
)

// loadTestEnv resolves MONGO_URI for integration tests, reading the project
// root .env when the variable is not already exported.
func loadTestEnv() {
	testEnvOnce.Do(func() {
		if uri := os.Getenv("MONGO_URI"); uri != "" {
			testMongoURI = uri
			return
		}
		// This file sits two levels below the project root
		_, filename, _, _ := runtime.Caller(0)
		projectRoot := filepath.Join(filepath.Dir(filename), "..", "..")
		_ = godotenv.Load(filepath.Join(projectRoot, ".env"))

		testMongoURI = os.Getenv("MONGO_URI")
		if testMongoURI == "" {
			panic("MONGO_URI must be set to run integration tests")
		}
	})
}

// SetupTestDB connects to the test MongoDB instance, drops the named
// collections for a clean slate and returns the database handle. The
// connection is closed automatically when the test finishes.
func SetupTestDB(t *testing.T, dbName string, collections ...string) *mongo.Database {
	t.Helper()
	loadTestEnv()

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(testMongoURI))
	require.NoError(t, err, "Failed to connect to MongoDB")
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	db := client.Database(dbName)
	for _, collection := range collections {
		_ = db.Collection(collection).Drop(context.Background())
	}
	return db
}
