package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Area is a geographic sales territory used to group clients and salesmen.
type Area struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"` // Should be unique
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
