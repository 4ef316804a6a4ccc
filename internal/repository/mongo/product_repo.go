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

const productCollectionName = "products"

// mongoProductRepository implements repository.ProductRepository
type mongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates a new Product repository backed by MongoDB.
func NewMongoProductRepository(db *mongo.Database) repository.ProductRepository {
	return &mongoProductRepository{
		collection: db.Collection(productCollectionName),
	}
}

// Create inserts a new product into the database.
func (r *mongoProductRepository) Create(ctx context.Context, product *domain.Product) (primitive.ObjectID, error) {
	if product.Name == "" {
		return primitive.NilObjectID, errors.New("product name is required")
	}

	product.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, product)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a product by its ID.
func (r *mongoProductRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	var product domain.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// List retrieves products, optionally restricted to active ones, sorted by name.
func (r *mongoProductRepository) List(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []domain.Product
	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Update modifies an existing product.
func (r *mongoProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if product.ID == primitive.NilObjectID {
		return errors.New("product ID is required for update")
	}
	if product.Name == "" {
		return errors.New("product name cannot be empty")
	}

	update := bson.M{
		"$set": bson.M{
			"name":        product.Name,
			"description": product.Description,
			"unit":        product.Unit,
			"price":       product.Price,
			"active":      product.Active,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": product.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (r *mongoProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureProductIndexes creates necessary indexes for the products collection.
func EnsureProductIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "active", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "name", Value: "text"}},
			Options: options.Index().SetName("product_text_search"),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
