package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client represents a shop/customer managed by a salesman.
type Client struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name       string              `bson:"name" json:"name"`
	Phone      string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Address    string              `bson:"address,omitempty" json:"address,omitempty"`
	AreaID     *primitive.ObjectID `bson:"areaId,omitempty" json:"areaId,omitempty"`         // Area the client belongs to
	SalesmanID *primitive.ObjectID `bson:"salesmanId,omitempty" json:"salesmanId,omitempty"` // Salesman responsible for the client
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time           `bson:"updatedAt" json:"updatedAt"`
}
