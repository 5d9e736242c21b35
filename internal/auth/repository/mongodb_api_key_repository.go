package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
	apperrors "github.com/allisson/keyguard/internal/errors"
)

// APIKeyCollection is the MongoDB collection holding API key documents.
const APIKeyCollection = "api_keys"

// encryptedAPIKeyFields are encrypted at rest with the key's partition key.
var encryptedAPIKeyFields = []string{"description"}

// DocumentCipher encrypts selected fields of a BSON document in place.
type DocumentCipher interface {
	EncryptInPlace(doc bson.M, partition cryptoDomain.Partition, allowedKeys ...string) error
	DecryptInPlace(doc bson.M, partition cryptoDomain.Partition) error
}

// MongoDBAPIKeyRepository implements APIKey persistence for MongoDB. The
// description of every key is stored encrypted.
type MongoDBAPIKeyRepository struct {
	collection *mongo.Collection
	cipher     DocumentCipher
}

// Create inserts a new APIKey document.
func (m *MongoDBAPIKeyRepository) Create(ctx context.Context, apiKey *authDomain.APIKey) error {
	doc, err := m.encode(apiKey)
	if err != nil {
		return err
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "api key id already exists")
		}
		return apperrors.Wrap(err, "failed to create api key")
	}
	return nil
}

// Get retrieves an APIKey by id and partition.
func (m *MongoDBAPIKeyRepository) Get(
	ctx context.Context,
	id string,
	partition cryptoDomain.Partition,
) (*authDomain.APIKey, error) {
	var doc bson.M
	err := m.collection.FindOne(ctx, bson.M{"_id": id, "partition": string(partition)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, authDomain.ErrAPIKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get api key")
	}
	return m.decode(doc)
}

// List retrieves the APIKeys of a partition ordered by creation time, newest first.
func (m *MongoDBAPIKeyRepository) List(
	ctx context.Context,
	partition cryptoDomain.Partition,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := m.collection.Find(ctx, bson.M{"partition": string(partition)}, opts)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api keys")
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate api keys")
	}

	apiKeys := make([]*authDomain.APIKey, 0, len(docs))
	for _, doc := range docs {
		apiKey, err := m.decode(doc)
		if err != nil {
			return nil, err
		}
		apiKeys = append(apiKeys, apiKey)
	}
	return apiKeys, nil
}

// Revoke sets revoked_at on an APIKey document.
func (m *MongoDBAPIKeyRepository) Revoke(
	ctx context.Context,
	id string,
	partition cryptoDomain.Partition,
	revokedAt time.Time,
) error {
	result, err := m.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "partition": string(partition)},
		bson.M{"$set": bson.M{"revoked_at": revokedAt}},
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke api key")
	}
	if result.MatchedCount == 0 {
		return authDomain.ErrAPIKeyNotFound
	}
	return nil
}

// EnsureIndexes creates the listing index of the collection.
func (m *MongoDBAPIKeyRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "partition", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to create api key indexes")
	}
	return nil
}

func (m *MongoDBAPIKeyRepository) encode(apiKey *authDomain.APIKey) (bson.M, error) {
	doc := apiKeyToDocument(apiKey)
	if err := m.cipher.EncryptInPlace(doc, apiKey.Partition, encryptedAPIKeyFields...); err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt api key document")
	}
	return doc, nil
}

func (m *MongoDBAPIKeyRepository) decode(doc bson.M) (*authDomain.APIKey, error) {
	partition, _ := doc["partition"].(string)
	if err := m.cipher.DecryptInPlace(doc, cryptoDomain.Partition(partition)); err != nil {
		return nil, err
	}
	return apiKeyFromDocument(doc)
}

func apiKeyToDocument(apiKey *authDomain.APIKey) bson.M {
	scopes := make(bson.A, 0, len(apiKey.Scopes))
	for _, s := range apiKey.Scopes {
		scopes = append(scopes, s)
	}

	doc := bson.M{
		"_id":         apiKey.ID,
		"secret_hash": apiKey.SecretHash,
		"partition":   string(apiKey.Partition),
		"scopes":      scopes,
		"description": apiKey.Description,
		"created_at":  apiKey.CreatedAt,
		"revoked_at":  nil,
	}
	if apiKey.RevokedAt != nil {
		doc["revoked_at"] = *apiKey.RevokedAt
	}
	return doc
}

func apiKeyFromDocument(doc bson.M) (*authDomain.APIKey, error) {
	apiKey := &authDomain.APIKey{}

	var ok bool
	if apiKey.ID, ok = doc["_id"].(string); !ok {
		return nil, fmt.Errorf("api key document: invalid _id")
	}
	if apiKey.SecretHash, ok = doc["secret_hash"].(string); !ok {
		return nil, fmt.Errorf("api key document %s: invalid secret_hash", apiKey.ID)
	}
	partition, ok := doc["partition"].(string)
	if !ok {
		return nil, fmt.Errorf("api key document %s: invalid partition", apiKey.ID)
	}
	apiKey.Partition = cryptoDomain.Partition(partition)
	apiKey.Description, _ = doc["description"].(string)

	if scopes, ok := doc["scopes"].(bson.A); ok {
		apiKey.Scopes = make(authDomain.ScopeList, 0, len(scopes))
		for _, s := range scopes {
			scope, ok := s.(string)
			if !ok {
				return nil, fmt.Errorf("api key document %s: invalid scope", apiKey.ID)
			}
			apiKey.Scopes = append(apiKey.Scopes, scope)
		}
	}

	createdAt, ok := documentTime(doc["created_at"])
	if !ok {
		return nil, fmt.Errorf("api key document %s: invalid created_at", apiKey.ID)
	}
	apiKey.CreatedAt = createdAt

	if revokedAt, ok := documentTime(doc["revoked_at"]); ok {
		apiKey.RevokedAt = &revokedAt
	}

	return apiKey, nil
}

// documentTime accepts both the decoded BSON datetime and a time.Time that
// has not been through the driver yet.
func documentTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case bson.DateTime:
		return t.Time().UTC(), true
	case time.Time:
		return t.UTC(), true
	default:
		return time.Time{}, false
	}
}

// NewMongoDBAPIKeyRepository creates a new MongoDB APIKey repository over db.
func NewMongoDBAPIKeyRepository(db *mongo.Database, cipher DocumentCipher) *MongoDBAPIKeyRepository {
	return &MongoDBAPIKeyRepository{
		collection: db.Collection(APIKeyCollection),
		cipher:     cipher,
	}
}
