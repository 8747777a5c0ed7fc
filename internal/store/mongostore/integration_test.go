//go:build integration

// Run with a reachable MongoDB:
//
//	TEST_MONGO_URL=mongodb://localhost:27017 \
//		go test -tags=integration ./internal/store/mongostore/...
//
// Each subtest uses its own collection and drops it afterwards.

package mongostore

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/JonMunkholm/translocations/internal/core"
	"github.com/JonMunkholm/translocations/internal/schema"
	"github.com/JonMunkholm/translocations/internal/store/storetest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URL")
	if uri == "" {
		t.Skip("TEST_MONGO_URL not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, Config{
		URI:        uri,
		Database:   "translocations_test",
		Collection: "it_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		OpTimeout:  10 * time.Second,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.coll.Drop(ctx); err != nil {
			t.Errorf("drop collection: %v", err)
		}
		_ = s.Close(ctx)
	})
	return s
}

func TestStore_Integration(t *testing.T) {
	storetest.Run(t, func(t *testing.T) core.Store { return openTestStore(t) })
}

// $set of the input must not touch the application id or created_at.
func TestUpdateKeepsIdentityInDocument(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	orig := storetest.Record("a", schema.SpeciesElephant, 10)
	if err := s.Create(ctx, orig); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Update(ctx, "a", storetest.Record("zzz", schema.SpeciesOther, 1).Input()); err != nil {
		t.Fatalf("Update: %v", err)
	}

	var stored bson.M
	if err := s.coll.FindOne(ctx, bson.D{{Key: "id", Value: "a"}}).Decode(&stored); err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if _, ok := stored["created_at"]; !ok {
		t.Errorf("created_at missing after update: %v", stored)
	}
	if n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "id", Value: "zzz"}}); err != nil || n != 0 {
		t.Errorf("documents with id zzz = %d (err %v), want 0", n, err)
	}
}
