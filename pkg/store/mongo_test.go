package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestMongoStore runs against a live MongoDB when TEST_MONGO_URI is set.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set, skipping MongoDB integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := OpenMongo(ctx, MongoOptions{
		URI:        uri,
		Database:   "meshgraph_test",
		Collection: fmt.Sprintf("store_%d", time.Now().UnixNano()),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.coll.Drop(context.Background())
		_ = s.Close()
	})

	exercise(t, s)
}
