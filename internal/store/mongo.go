package store

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo persists normalized documents into MongoDB collections.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	logger *log.Logger
}

// Connect opens a MongoDB client and verifies the server is reachable
// within a five second selection window before any document is processed.
func Connect(ctx context.Context, uri, database string, logger *log.Logger) (*Mongo, error) {
	if logger == nil {
		logger = log.Default()
	}

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, &Error{Op: "connect", Err: fmt.Errorf("failed to create client: %w", err)}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, &Error{Op: "connect", Err: fmt.Errorf("server unreachable: %w", err)}
	}

	logger.Debug("Connected to MongoDB", "database", database)

	return &Mongo{
		client: client,
		db:     client.Database(database),
		logger: logger,
	}, nil
}

// EnsureLookupIndex creates the non-unique compound index used to query a
// collection by input value and retrieval time. The index is an access
// path only: inserts never depend on it and duplicates stay allowed.
func (m *Mongo) EnsureLookupIndex(ctx context.Context, collection, keyField, timeField string) error {
	model := mongo.IndexModel{
		Keys: bson.D{
			{Key: keyField, Value: 1},
			{Key: timeField, Value: 1},
		},
	}
	if _, err := m.db.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
		return &Error{Op: "index", Collection: collection, Err: err}
	}
	return nil
}

// Insert stores one document and returns its ObjectID in hex form.
func (m *Mongo) Insert(ctx context.Context, collection string, doc interface{}) (string, error) {
	result, err := m.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", &Error{Op: "insert", Collection: collection, Err: err}
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprintf("%v", result.InsertedID), nil
}

// Close disconnects from the server.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
