// Package logstore persists the append-only audit and action log collections
// in MongoDB. Entries are write-once: nothing in this package updates or
// deletes a document after insert, and ordering is established solely by the
// timestamp field.
package logstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/admin-console/admin-console/internal/config"
)

// Store wraps the MongoDB collections backing the audit pipeline.
type Store struct {
	client *mongo.Client
	audit  *mongo.Collection
	action *mongo.Collection
}

// Connect establishes a MongoDB connection, verifies it with a ping, and
// ensures the query indexes exist. Index creation is idempotent.
func Connect(cfg config.LogstoreConfig) (*Store, error) {
	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to log store: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping log store: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client: client,
		audit:  db.Collection(cfg.AuditCollection),
		action: db.Collection(cfg.ActionCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create log store indexes: %w", err)
	}

	return s, nil
}

// ensureIndexes creates the compound indexes backing the reporting queries.
func (s *Store) ensureIndexes(ctx context.Context) error {
	auditIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "action", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "action_type", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "resource", Value: 1}, {Key: "resource_id", Value: 1}}},
		{Keys: bson.D{{Key: "success", Value: 1}, {Key: "timestamp", Value: -1}}},
	}
	if _, err := s.audit.Indexes().CreateMany(ctx, auditIndexes); err != nil {
		return err
	}

	actionIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "action_type", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "username", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "resource_type", Value: 1}, {Key: "resource_id", Value: 1}}},
		{Keys: bson.D{{Key: "success", Value: 1}, {Key: "timestamp", Value: -1}}},
	}
	_, err := s.action.Indexes().CreateMany(ctx, actionIndexes)
	return err
}

// Ping verifies the log store is reachable. Used by the readiness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
