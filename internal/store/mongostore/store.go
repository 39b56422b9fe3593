package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"task-manager/internal/model"
)

const (
	DefaultDatabase = "taskdb"
	collectionName  = "tasks"
)

type TaskStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects to uri, pings the primary and creates the indexes the list
// and filter queries rely on.
func Open(ctx context.Context, uri, database string) (*TaskStore, error) {
	if database == "" {
		database = DefaultDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: pinging mongo: %w", model.ErrStoreUnavailable, err)
	}

	s := &TaskStore{
		client: client,
		coll:   client.Database(database).Collection(collectionName),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *TaskStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}}},
		{Keys: bson.D{{Key: "completed", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", mapError(err))
	}
	return nil
}

func (s *TaskStore) Insert(ctx context.Context, t model.Task) error {
	if _, err := s.coll.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert task: %w", mapError(err))
	}
	return nil
}

func (s *TaskStore) List(ctx context.Context) ([]model.Task, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: 1},
	})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", mapError(err))
	}

	tasks := make([]model.Task, 0)
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w", mapError(err))
	}
	for i := range tasks {
		tasks[i].CreatedAt = tasks[i].CreatedAt.UTC()
	}
	return tasks, nil
}

func (s *TaskStore) Get(ctx context.Context, id string) (model.Task, error) {
	var t model.Task
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&t); err != nil {
		return model.Task{}, mapError(err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

// Update applies only the supplied fields with one FindOneAndUpdate, which
// the server executes atomically for the document.
func (s *TaskStore) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	set := bson.D{}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}
	if patch.Completed != nil {
		set = append(set, bson.E{Key: "completed", Value: *patch.Completed})
	}
	if len(set) == 0 {
		return s.Get(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t model.Task
	err := s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		opts,
	).Decode(&t)
	if err != nil {
		return model.Task{}, mapError(err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete task: %w", mapError(err))
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *TaskStore) Ping(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Second)
		defer cancel()
	}
	return mapError(s.client.Ping(ctx, readpref.Primary()))
}

func (s *TaskStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.ErrNotFound
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
	}
	return err
}
