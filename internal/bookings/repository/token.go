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
)

const (
	TokenCollectionName = "Booking_tokens"
)

// TokenRepository is the idempotency guard. The token is the document _id,
// so the unique index makes admission a single atomic insert: exactly one
// caller per token ever sees a fresh admission, no matter how many race.
type TokenRepository interface {
	Admit(ctx context.Context, token string, slotID string, participants int) (*model.TokenRecord, bool, error)
	Find(ctx context.Context, token string) (*model.TokenRecord, error)
	Resolve(ctx context.Context, token string, reservationID string) error
	Reject(ctx context.Context, token string, rejectCode string) error
	Release(ctx context.Context, token string) error
}

type mongoTokenRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTokenRepository(cfg *config.Config) TokenRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTokenRepository{
		cfg:        cfg,
		collection: db.Collection(TokenCollectionName),
	}
}

func (r *mongoTokenRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// Admit records the token as in flight. The second return value is true
// when this call created the record; false means another request with the
// same token got there first, and the existing record is returned so the
// caller can replay its outcome.
func (r *mongoTokenRepository) Admit(ctx context.Context, token string, slotID string, participants int) (*model.TokenRecord, bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	record := &model.TokenRecord{
		Token:        token,
		SlotID:       slotID,
		Participants: participants,
		State:        model.TokenStateInFlight,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.collection.InsertOne(ctx, record)
	if err == nil {
		return record, true, nil
	}

	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, fmt.Errorf("failed to admit token: %w", err)
	}

	existing, findErr := r.Find(ctx, token)
	if findErr != nil {
		if errors.Is(findErr, bookingserrors.ErrTokenNotFound) {
			// the racing holder released between our insert and find;
			// the caller retries admission
			return nil, false, bookingserrors.ErrDuplicateInFlight
		}
		return nil, false, findErr
	}

	return existing, false, nil
}

func (r *mongoTokenRepository) Find(ctx context.Context, token string) (*model.TokenRecord, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var record model.TokenRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": token}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find token: %w", err)
	}

	return &record, nil
}

// Resolve moves an in-flight token to confirmed. The state filter makes
// the transition write-once: a token that already settled is left alone.
func (r *mongoTokenRepository) Resolve(ctx context.Context, token string, reservationID string) error {
	return r.settle(ctx, token, bson.M{
		"state":          model.TokenStateConfirmed,
		"reservation_id": reservationID,
		"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
	})
}

// Reject moves an in-flight token to rejected with a stable code, so
// retries of a definitively failed request replay the same rejection.
func (r *mongoTokenRepository) Reject(ctx context.Context, token string, rejectCode string) error {
	return r.settle(ctx, token, bson.M{
		"state":       model.TokenStateRejected,
		"reject_code": rejectCode,
		"updated_at":  time.Now().UTC().Truncate(time.Millisecond),
	})
}

func (r *mongoTokenRepository) settle(ctx context.Context, token string, fields bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": token, "state": model.TokenStateInFlight}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to settle token: %w", err)
	}

	if result.MatchedCount == 0 {
		existing, findErr := r.Find(ctx, token)
		if findErr != nil {
			return findErr
		}
		return fmt.Errorf("token %s already settled in state %q", token, existing.State)
	}

	return nil
}

// Release deletes an in-flight token after a transient failure, so the
// client can retry with the same token and be admitted fresh. Settled
// tokens are never released.
func (r *mongoTokenRepository) Release(ctx context.Context, token string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":   token,
		"state": model.TokenStateInFlight,
	})
	if err != nil {
		return fmt.Errorf("failed to release token: %w", err)
	}

	return nil
}
