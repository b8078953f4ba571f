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

// ToyRepository stores bound toys in the toys collection. A unique index on
// toy_mac_id (see Client.EnsureIndexes) enforces at most one binding per
// device; duplicate-key errors surface as repositories.ErrDuplicateMac so the
// workflow layer never inspects driver error text.
type ToyRepository struct {
	collection *mongo.Collection
}

// toyDocument pairs the stored ObjectID with the entity fields.
type toyDocument struct {
	ID  primitive.ObjectID `bson:"_id"`
	Toy entities.Toy       `bson:",inline"`
}

func (d *toyDocument) entity() *entities.Toy {
	toy := d.Toy
	toy.ID = d.ID.Hex()
	return &toy
}

// NewToyRepository creates a new MongoDB toy repository
func NewToyRepository(db *mongo.Database) repositories.ToyRepository {
	return &ToyRepository{
		collection: db.Collection("toys"),
	}
}

// Create implements repositories.ToyRepository
func (r *ToyRepository) Create(ctx context.Context, toy *entities.Toy) error {
	if toy == nil {
		return errors.New("toy cannot be nil")
	}
	if err := toy.Validate(); err != nil {
		return err
	}

	doc := bson.M{
		"user_id":                  toy.UserID,
		"toy_mac_id":               toy.MacID,
		"activation_code":          toy.ActivationCode,
		"name":                     toy.Name,
		"role_type":                toy.RoleType,
		"language":                 toy.Language,
		"voice":                    toy.Voice,
		"kid_name":                 toy.KidName,
		"conversation_sensitivity": toy.Sensitivity,
		"is_wifi_provisioned":      toy.WifiProvisioned,
		"created_at":               toy.CreatedAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicateMac
		}
		return fmt.Errorf("failed to create toy: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		toy.ID = oid.Hex()
	}

	return nil
}

// GetByID implements repositories.ToyRepository
func (r *ToyRepository) GetByID(ctx context.Context, id, ownerID string) (*entities.Toy, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// Malformed ids cannot match any row; same outcome as not found.
		return nil, nil
	}

	var doc toyDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID, "user_id": ownerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get toy %s: %w", id, err)
	}

	return doc.entity(), nil
}

// GetByOwnerID implements repositories.ToyRepository
func (r *ToyRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*entities.Toy, error) {
	if ownerID == "" {
		return nil, errors.New("owner id cannot be empty")
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list toys for user %s: %w", ownerID, err)
	}
	defer cursor.Close(ctx)

	toys := []*entities.Toy{}
	for cursor.Next(ctx) {
		var doc toyDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode toy: %w", err)
		}
		toys = append(toys, doc.entity())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate toys: %w", err)
	}

	return toys, nil
}

// UpdateFields implements repositories.ToyRepository
func (r *ToyRepository) UpdateFields(ctx context.Context, id, ownerID string, patch entities.ToyPatch) (int64, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}

	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.RoleType != nil {
		set["role_type"] = *patch.RoleType
	}
	if patch.Language != nil {
		set["language"] = *patch.Language
	}
	if patch.Voice != nil {
		set["voice"] = *patch.Voice
	}
	if patch.KidName != nil {
		set["kid_name"] = *patch.KidName
	}
	if patch.Sensitivity != nil {
		set["conversation_sensitivity"] = *patch.Sensitivity
	}
	if len(set) == 0 {
		return 0, errors.New("patch cannot be empty")
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID, "user_id": ownerID},
		bson.M{"$set": set},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update toy %s: %w", id, err)
	}

	return result.MatchedCount, nil
}

// Delete implements repositories.ToyRepository
func (r *ToyRepository) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID, "user_id": ownerID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete toy %s: %w", id, err)
	}

	return result.DeletedCount, nil
}
