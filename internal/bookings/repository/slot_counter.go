package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "divebook/internal/bookings/errors"
	"divebook/pkg/config"
	"divebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	SlotCounterCollectionName = "Slot_counters"
)

// SlotCounterRepository tracks committed capacity per slot. Holds are
// conditional increments: the filter re-checks remaining capacity, so the
// increment and the capacity check are one atomic document update and the
// counter can never exceed capacity.
type SlotCounterRepository interface {
	EnsureSlot(ctx context.Context, slotID string, capacity int) error
	Hold(ctx context.Context, slotID string, n int) error
	Release(ctx context.Context, slotID string, n int) error
	Find(ctx context.Context, slotID string) (*model.SlotCounter, error)
	FindMany(ctx context.Context, slotIDs []string) (map[string]*model.SlotCounter, error)
}

type mongoSlotCounterRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotCounterRepository(cfg *config.Config) SlotCounterRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotCounterRepository{
		cfg:        cfg,
		collection: db.Collection(SlotCounterCollectionName),
	}
}

func (r *mongoSlotCounterRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// EnsureSlot creates the counter document if it does not exist. Capacity
// is only written on insert; a concurrent EnsureSlot never resets an
// existing counter.
func (r *mongoSlotCounterRepository) EnsureSlot(ctx context.Context, slotID string, capacity int) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": slotID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"capacity":   capacity,
			"reserved":   0,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// concurrent upsert on the same _id, the document exists now
			return nil
		}
		return fmt.Errorf("failed to ensure slot counter: %w", err)
	}

	return nil
}

// Hold reserves n seats. The filter admits the update only while
// reserved + n stays within capacity; a full slot matches nothing and the
// caller gets ErrSlotFull.
func (r *mongoSlotCounterRepository) Hold(ctx context.Context, slotID string, n int) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id": slotID,
		"$expr": bson.M{
			"$lte": bson.A{
				bson.M{"$add": bson.A{"$reserved", n}},
				"$capacity",
			},
		},
	}
	update := bson.M{
		"$inc": bson.M{"reserved": n},
		"$set": bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to hold slot capacity: %w", err)
	}

	if result.MatchedCount == 0 {
		if _, findErr := r.Find(ctx, slotID); findErr != nil {
			return findErr
		}
		return bookingserrors.ErrSlotFull
	}

	return nil
}

// Release returns n seats. The filter refuses to drive reserved below
// zero, so a duplicate release is a detectable error instead of silent
// counter corruption.
func (r *mongoSlotCounterRepository) Release(ctx context.Context, slotID string, n int) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id":      slotID,
		"reserved": bson.M{"$gte": n},
	}
	update := bson.M{
		"$inc": bson.M{"reserved": -n},
		"$set": bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release slot capacity: %w", err)
	}

	if result.MatchedCount == 0 {
		if _, findErr := r.Find(ctx, slotID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("cannot release %d seats from slot %s: reserved count too low", n, slotID)
	}

	return nil
}

func (r *mongoSlotCounterRepository) Find(ctx context.Context, slotID string) (*model.SlotCounter, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var counter model.SlotCounter
	err := r.collection.FindOne(ctx, bson.M{"_id": slotID}).Decode(&counter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrSlotNotFound, slotID)
		}
		return nil, fmt.Errorf("failed to find slot counter: %w", err)
	}

	return &counter, nil
}

func (r *mongoSlotCounterRepository) FindMany(ctx context.Context, slotIDs []string) (map[string]*model.SlotCounter, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if len(slotIDs) == 0 {
		return map[string]*model.SlotCounter{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": slotIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find slot counters: %w", err)
	}
	defer cursor.Close(ctx)

	counters := make(map[string]*model.SlotCounter, len(slotIDs))
	for cursor.Next(ctx) {
		var counter model.SlotCounter
		if err := cursor.Decode(&counter); err != nil {
			return nil, fmt.Errorf("failed to decode slot counter: %w", err)
		}
		counters[counter.SlotID] = &counter
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate slot counters: %w", err)
	}

	return counters, nil
}
