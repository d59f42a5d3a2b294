package mongo

import (
	"context"
	"os"
	"testing"
	"time"
)

func mongoTestConf() *Config {
	conf := &Config{
		URI:        os.Getenv("MONGO_TEST_URL"),
		Host:       "localhost",
		Port:       "27017",
		DBName:     "blog_test",
		Collection: "posts",
	}
	return conf
}

// storageConnect connects to the test Mongo instance and skips the test when
// it is not reachable. The collection is dropped on cleanup.
func storageConnect(t *testing.T) *Storage {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	db, err := New(ctx, mongoTestConf())
	if err != nil {
		t.Skipf("mongo is not available: %v", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close(ctx)
		t.Skipf("mongo is not responding: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := db.coll().Drop(ctx); err != nil {
			t.Logf("WARNING: unable to restore DB state after the test: %v", err)
		}
		db.Close(ctx)
	})

	return db
}
