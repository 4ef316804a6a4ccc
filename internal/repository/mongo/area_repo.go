package mongo

import (
	"context"
	"errors"
	"time"

	"fieldops/sales-crm/internal/domain"
	"fieldops/sales-crm/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const areaCollectionName = "areas"

// mongoAreaRepository implements repository.AreaRepository
type mongoAreaRepository struct {
	collection *mongo.Collection
}

// NewMongoAreaRepository creates a new Area repository backed by MongoDB.
func NewMongoAreaRepository(db *mongo.Database) repository.AreaRepository {
	return &mongoAreaRepository{
		collection: db.Collection(areaCollectionName),
	}
}

// Create inserts a new area into the database.
func (r *mongoAreaRepository) Create(ctx context.Context, area *domain.Area) (primitive.ObjectID, error) {
	if area.Name == "" {
		return primitive.NilObjectID, errors.New("area name is required")
	}

	area.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	area.CreatedAt = now
	area.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, area)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves an area by its ID.
func (r *mongoAreaRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Area, error) {
	var area domain.Area
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&area)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &area, nil
}

// List retrieves all areas, sorted by name.
func (r *mongoAreaRepository) List(ctx context.Context) ([]domain.Area, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var areas []domain.Area
	if err = cursor.All(ctx, &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// Update modifies an existing area.
func (r *mongoAreaRepository) Update(ctx context.Context, area *domain.Area) error {
	if area.ID == primitive.NilObjectID {
		return errors.New("area ID is required for update")
	}
	if area.Name == "" {
		return errors.New("area name cannot be empty")
	}

	update := bson.M{
		"$set": bson.M{
			"name":      area.Name,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": area.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an area.
func (r *mongoAreaRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureAreaIndexes creates necessary indexes for the areas collection.
func EnsureAreaIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
