package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cheekoai/cheeko-server/domain/entities"
	"github.com/cheekoai/cheeko-server/domain/repositories"
)

// ProfileRepository stores parent profiles in the parent_profiles collection,
// at most one per user.
type ProfileRepository struct {
	collection *mongo.Collection
}

// NewProfileRepository creates a new MongoDB profile repository
func NewProfileRepository(db *mongo.Database) repositories.ProfileRepository {
	return &ProfileRepository{
		collection: db.Collection("parent_profiles"),
	}
}

type profileDocument struct {
	ID      primitive.ObjectID     `bson:"_id"`
	Profile entities.ParentProfile `bson:",inline"`
}

// GetByUserID implements repositories.ProfileRepository
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*entities.ParentProfile, error) {
	if userID == "" {
		return nil, errors.New("user id cannot be empty")
	}

	var doc profileDocument
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile for user %s: %w", userID, err)
	}

	profile := doc.Profile
	profile.ID = doc.ID.Hex()
	return &profile, nil
}

// Upsert implements repositories.ProfileRepository
func (r *ProfileRepository) Upsert(ctx context.Context, profile *entities.ParentProfile) error {
	if profile == nil {
		return errors.New("profile cannot be nil")
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"parent_name":         profile.ParentName,
			"parent_email":        profile.ParentEmail,
			"parent_phone_number": profile.ParentPhoneNumber,
		},
		"$setOnInsert": bson.M{
			"user_id": profile.UserID,
		},
	}

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"user_id": profile.UserID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile for user %s: %w", profile.UserID, err)
	}

	return nil
}
