// Package mongodb is the cloud-document session backend: one document per
// session in a shared collection, with change streams providing the live
// snapshot subscription.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/bookway/stocktake/internal/domain/models"
	"github.com/bookway/stocktake/internal/session"
)

// Store implements session.Store on a MongoDB collection.
type Store struct {
	client   *mongo.Client
	dbName   string
	collName string
	logger   *zap.Logger
}

type sessionDoc struct {
	ID                 string `bson:"_id"`
	models.SessionData `bson:",inline"`
}

// NewStore connects to MongoDB and verifies the connection.
func NewStore(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{
		client:   client,
		dbName:   dbName,
		collName: "sessions",
		logger:   logger,
	}, nil
}

func (s *Store) collection() *mongo.Collection {
	return s.client.Database(s.dbName).Collection(s.collName)
}

// CreateSession writes the session document, replacing any document already
// stored under the same identifier.
func (s *Store) CreateSession(ctx context.Context, id string, data models.SessionData) error {
	data.LastUpdated = time.Now().UnixMilli()

	_, err := s.collection().ReplaceOne(ctx,
		bson.M{"_id": id},
		sessionDoc{ID: id, SessionData: data},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("create session %s: %w", id, err)
	}
	return nil
}

// JoinSession reads the session document once.
func (s *Store) JoinSession(ctx context.Context, id string) (models.SessionData, error) {
	var doc sessionDoc
	err := s.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.SessionData{}, session.ErrSessionNotFound
	}
	if err != nil {
		return models.SessionData{}, fmt.Errorf("join session %s: %w", id, err)
	}
	return doc.SessionData, nil
}

// UpdateSession performs a partial update of just the products field (plus
// the lastUpdated stamp); the rest of the document is never touched.
func (s *Store) UpdateSession(ctx context.Context, id string, products []models.ProductRecord) error {
	res, err := s.collection().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"products":    products,
			"lastUpdated": time.Now().UnixMilli(),
		}})
	if err != nil {
		return fmt.Errorf("update session %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

// Subscribe opens a change stream on the session document and delivers every
// remote write to fn. The stream also echoes this client's own writes back;
// callers must be idempotent to the echo. The returned disposer closes the
// stream and must be invoked on session teardown, otherwise the listener
// leaks.
func (s *Store) Subscribe(ctx context.Context, id string, fn func([]models.ProductRecord)) (func(), error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: id}}}},
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := s.collection().Watch(streamCtx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch session %s: %w", id, err)
	}

	go func() {
		defer stream.Close(context.Background())

		for stream.Next(streamCtx) {
			var event struct {
				FullDocument sessionDoc `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				s.logger.Warn("failed to decode session change event", zap.String("session", id), zap.Error(err))
				continue
			}
			fn(event.FullDocument.Products)
		}

		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("session change stream closed", zap.String("session", id), zap.Error(err))
		}
	}()

	return cancel, nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
