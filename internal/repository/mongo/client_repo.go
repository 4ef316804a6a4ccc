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

const clientCollectionName = "clients"

// Default page size for client listings
const defaultClientPageLimit = 20

// mongoClientRepository implements repository.ClientRepository
type mongoClientRepository struct {
	collection *mongo.Collection
}

// NewMongoClientRepository creates a new Client repository backed by MongoDB.
func NewMongoClientRepository(db *mongo.Database) repository.ClientRepository {
	return &mongoClientRepository{
		collection: db.Collection(clientCollectionName),
	}
}

// Create inserts a new client into the database.
func (r *mongoClientRepository) Create(ctx context.Context, client *domain.Client) (primitive.ObjectID, error) {
	if client.Name == "" {
		return primitive.NilObjectID, errors.New("client name is required")
	}

	client.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, client)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a client by its ID.
func (r *mongoClientRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Client, error) {
	var client domain.Client
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&client)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

// List retrieves a page of clients, optionally filtered by a name/phone search.
// Returns the page of clients plus the total match count for pagination.
func (r *mongoClientRepository) List(ctx context.Context, page repository.Page) ([]domain.Client, int64, error) {
	filter := bson.M{}
	if page.Search != "" {
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": page.Search, "$options": "i"}},
			bson.M{"phone": bson.M{"$regex": page.Search, "$options": "i"}},
		}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	limit := page.Limit
	if limit <= 0 {
		limit = defaultClientPageLimit
	}
	skip := 0
	if page.Number > 1 {
		skip = (page.Number - 1) * limit
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var clients []domain.Client
	if err = cursor.All(ctx, &clients); err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

// GetBySalesmanID retrieves all clients assigned to a salesman.
func (r *mongoClientRepository) GetBySalesmanID(ctx context.Context, salesmanID primitive.ObjectID) ([]domain.Client, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"salesmanId": salesmanID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var clients []domain.Client
	if err = cursor.All(ctx, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// Update modifies an existing client.
func (r *mongoClientRepository) Update(ctx context.Context, client *domain.Client) error {
	if client.ID == primitive.NilObjectID {
		return errors.New("client ID is required for update")
	}
	if client.Name == "" {
		return errors.New("client name cannot be empty")
	}

	update := bson.M{
		"$set": bson.M{
			"name":       client.Name,
			"phone":      client.Phone,
			"address":    client.Address,
			"areaId":     client.AreaID,
			"salesmanId": client.SalesmanID,
			"updatedAt":  time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": client.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a client.
func (r *mongoClientRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureClientIndexes creates necessary indexes for the clients collection.
func EnsureClientIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "salesmanId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "areaId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "address", Value: "text"}},
			Options: options.Index().SetName("client_text_search"),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
