package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cheekoai/cheeko-server/domain/entities"
	"github.com/cheekoai/cheeko-server/domain/repositories"
)

// CredentialRepository stores device provisioning rows in the mqtt_auth
// collection. Rows are provisioned out-of-band; this repository only reads
// them and flips the active flag.
type CredentialRepository struct {
	collection *mongo.Collection
}

// NewCredentialRepository creates a new MongoDB credential repository
func NewCredentialRepository(db *mongo.Database) repositories.CredentialRepository {
	return &CredentialRepository{
		collection: db.Collection("mqtt_auth"),
	}
}

// GetByActivationCode implements repositories.CredentialRepository
func (r *CredentialRepository) GetByActivationCode(ctx context.Context, code string) (*entities.ActivationCredential, error) {
	if code == "" {
		return nil, errors.New("activation code cannot be empty")
	}

	var cred entities.ActivationCredential
	err := r.collection.FindOne(ctx, bson.M{"activation_code": code}).Decode(&cred)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up activation code: %w", err)
	}

	return &cred, nil
}

// GetByMacID implements repositories.CredentialRepository
func (r *CredentialRepository) GetByMacID(ctx context.Context, macID string) (*entities.ActivationCredential, error) {
	if macID == "" {
		return nil, errors.New("mac id cannot be empty")
	}

	var cred entities.ActivationCredential
	err := r.collection.FindOne(ctx, bson.M{"mac_id": macID}).Decode(&cred)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credential for mac %s: %w", macID, err)
	}

	return &cred, nil
}

// SetActive implements repositories.CredentialRepository
func (r *CredentialRepository) SetActive(ctx context.Context, macID string, active bool) (int64, error) {
	if macID == "" {
		return 0, errors.New("mac id cannot be empty")
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"mac_id": macID},
		bson.M{"$set": bson.M{"is_active": active}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to set active flag for mac %s: %w", macID, err)
	}

	return result.MatchedCount, nil
}
