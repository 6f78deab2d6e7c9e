// Package mongodb provides MongoDB repository adapters.
//
// It implements the domain repository ports over a shared *mongo.Client
// whose lifecycle is owned by application startup/shutdown and injected
// into the repositories, never lazily initialized at module scope.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// Collection names.
const (
	colSubmissions  = "submissions"
	colUsers        = "users"
	colInteractions = "interactions"
)

// Connect establishes a MongoDB client and verifies connectivity with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetMaxPoolSize(20))
	if err != nil {
		return nil, fmt.Errorf("op=mongo.connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("op=mongo.ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the repositories rely on. Idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(colUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("op=mongo.ensure_indexes users: %w", err)
	}
	_, err = db.Collection(colSubmissions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sessionId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("op=mongo.ensure_indexes submissions: %w", err)
	}
	_, err = db.Collection(colInteractions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("op=mongo.ensure_indexes interactions: %w", err)
	}
	return nil
}

// wrapErr wraps a driver error with the operation name. Connectivity
// failures are classified as domain.ErrUnavailable so the transport layer
// answers 503 instead of 500 while the database is unreachable.
func wrapErr(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("op=%s: %w: %v", op, domain.ErrUnavailable, err)
	}
	return fmt.Errorf("op=%s: %w", op, err)
}

func isUnavailable(err error) bool {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// Server selection failures pre-date the driver's typed errors.
	return strings.Contains(err.Error(), "server selection error")
}

// toPlain recursively converts bson container types into plain Go maps and
// slices so decoded recommendation payloads can cross the domain boundary
// without a bson dependency.
func toPlain(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = toPlain(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = toPlain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, 0, len(t))
		for _, e := range t {
			out = append(out, toPlain(e))
		}
		return out
	default:
		return v
	}
}

func toPlainMap(m bson.M) map[string]any {
	if m == nil {
		return nil
	}
	out, _ := toPlain(m).(map[string]any)
	return out
}
