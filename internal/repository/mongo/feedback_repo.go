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

const feedbackCollectionName = "feedbacks"

// Default page size for feedback listings
const defaultFeedbackPageLimit = 10

// mongoFeedbackRepository implements repository.FeedbackRepository
type mongoFeedbackRepository struct {
	collection *mongo.Collection
}

// NewMongoFeedbackRepository creates a new Feedback repository backed by MongoDB.
func NewMongoFeedbackRepository(db *mongo.Database) repository.FeedbackRepository {
	return &mongoFeedbackRepository{
		collection: db.Collection(feedbackCollectionName),
	}
}

// Create inserts a new feedback record into the database.
func (r *mongoFeedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) (primitive.ObjectID, error) {
	if feedback.ClientID == primitive.NilObjectID || feedback.SalesmanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("feedback requires clientId and salesmanId")
	}

	feedback.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	feedback.CreatedAt = now
	feedback.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, feedback)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a feedback record by its ID.
func (r *mongoFeedbackRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Feedback, error) {
	var feedback domain.Feedback
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&feedback)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &feedback, nil
}

// List retrieves a page of feedback records, newest first. The optional
// search term matches notes and the denormalized client name.
func (r *mongoFeedbackRepository) List(ctx context.Context, page repository.Page) ([]domain.Feedback, int64, error) {
	filter := bson.M{}
	if page.Search != "" {
		filter["$or"] = bson.A{
			bson.M{"notes": bson.M{"$regex": page.Search, "$options": "i"}},
			bson.M{"clientName": bson.M{"$regex": page.Search, "$options": "i"}},
		}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	limit := page.Limit
	if limit <= 0 {
		limit = defaultFeedbackPageLimit
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

	var feedbacks []domain.Feedback
	if err = cursor.All(ctx, &feedbacks); err != nil {
		return nil, 0, err
	}
	return feedbacks, total, nil
}

// GetByClientID retrieves all feedback records for a client, newest first.
func (r *mongoFeedbackRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Feedback, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"clientId": clientID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var feedbacks []domain.Feedback
	if err = cursor.All(ctx, &feedbacks); err != nil {
		return nil, err
	}
	return feedbacks, nil
}

// Update modifies an existing feedback record. The audio attachment is
// replaced wholesale: a nil Audio clears any stored attachment.
func (r *mongoFeedbackRepository) Update(ctx context.Context, feedback *domain.Feedback) error {
	if feedback.ID == primitive.NilObjectID {
		return errors.New("feedback ID is required for update")
	}

	update := bson.M{
		"$set": bson.M{
			"clientId":   feedback.ClientID,
			"clientName": feedback.ClientName,
			"lead":       feedback.Lead,
			"products":   feedback.Products,
			"notes":      feedback.Notes,
			"audio":      feedback.Audio,
			"updatedAt":  time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": feedback.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a feedback record.
func (r *mongoFeedbackRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureFeedbackIndexes creates necessary indexes for the feedbacks collection.
func EnsureFeedbackIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "salesmanId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
