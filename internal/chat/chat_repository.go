package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	// AppendMessage appends msg to the room's log, creating the log on
	// first use.
	AppendMessage(ctx context.Context, room string, msg Message) error

	// FindLog returns the room's log, or nil when the room has none yet.
	FindLog(ctx context.Context, room string) (*ChatLog, error)
}

/** -------------------- MongoDB -------------------- */

type MongoRepository struct {
	chats *mongo.Collection
}

func NewMongoRepository(chats *mongo.Collection) *MongoRepository {
	return &MongoRepository{chats: chats}
}

func (r *MongoRepository) AppendMessage(ctx context.Context, room string, msg Message) error {
	_, err := r.chats.UpdateOne(ctx,
		bson.M{"room": room},
		bson.M{"$push": bson.M{"messages": msg}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

func (r *MongoRepository) FindLog(ctx context.Context, room string) (*ChatLog, error) {
	var log ChatLog
	err := r.chats.FindOne(ctx, bson.M{"room": room}).Decode(&log)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find chat log: %w", err)
	}
	return &log, nil
}

/** -------------------- In-memory -------------------- */

// MemoryRepository backs tests and local development.
type MemoryRepository struct {
	mu   sync.Mutex
	logs map[string][]Message
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{logs: make(map[string][]Message)}
}

func (r *MemoryRepository) AppendMessage(_ context.Context, room string, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[room] = append(r.logs[room], msg)
	return nil
}

func (r *MemoryRepository) FindLog(_ context.Context, room string) (*ChatLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs, ok := r.logs[room]
	if !ok {
		return nil, nil
	}
	return &ChatLog{Room: room, Messages: append([]Message{}, msgs...)}, nil
}
