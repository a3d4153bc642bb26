package store

import (
	"context"
	"errors"

	"github.com/avvvet/race-services/internal/racesvc/engine"
	"github.com/avvvet/race-services/internal/racesvc/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const snapshotCollection = "race_snapshots"

// SnapshotStore archives race snapshots in mongo. The unique compound index
// on (race_started_at, lobby, winner) enforces the write-once key.
type SnapshotStore struct {
	col *mongo.Collection
}

func NewSnapshotStore(db *mongo.Database) (*SnapshotStore, error) {
	col := db.Collection(snapshotCollection)

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "race_started_at", Value: 1},
			{Key: "lobby", Value: 1},
			{Key: "winner", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if _, err := col.Indexes().CreateOne(context.TODO(), indexModel); err != nil {
		return nil, err
	}

	return &SnapshotStore{col: col}, nil
}

func (s *SnapshotStore) Create(ctx context.Context, snap *models.RaceSnapshot) error {
	_, err := s.col.InsertOne(ctx, snap)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return engine.ErrSnapshotExists
		}
		return err
	}
	return nil
}

func (s *SnapshotStore) Get(ctx context.Context, startedAt uint64, lobby, winner string) (*models.RaceSnapshot, error) {
	filter := bson.M{"race_started_at": startedAt, "lobby": lobby, "winner": winner}

	snap := &models.RaceSnapshot{}
	err := s.col.FindOne(ctx, filter).Decode(snap)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return snap, nil
}

func (s *SnapshotStore) Delete(ctx context.Context, startedAt uint64, lobby, winner string) error {
	filter := bson.M{"race_started_at": startedAt, "lobby": lobby, "winner": winner}
	_, err := s.col.DeleteOne(ctx, filter)
	return err
}
