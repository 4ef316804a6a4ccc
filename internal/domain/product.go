package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product represents a sellable item in the catalogue.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Unit        string             `bson:"unit,omitempty" json:"unit,omitempty"` // e.g., "box", "piece", "kg"
	Price       float64            `bson:"price" json:"price"`
	Active      bool               `bson:"active" json:"active"` // Inactive products are hidden from selection lists
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
