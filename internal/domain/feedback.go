package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LeadStatus classifies inquiry priority on a feedback record.
type LeadStatus string

const (
	LeadHot  LeadStatus = "hot"
	LeadWarm LeadStatus = "warm"
	LeadCold LeadStatus = "cold"
)

// ValidLeadStatus reports whether s is one of the known classifications.
func ValidLeadStatus(s LeadStatus) bool {
	switch s {
	case LeadHot, LeadWarm, LeadCold:
		return true
	}
	return false
}

// ProductItem is one line item on a feedback record.
type ProductItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"` // Always >= 1
}

// AudioAttachment stores metadata about an uploaded audio note.
// The actual file resides in object storage under S3ObjectKey.
type AudioAttachment struct {
	S3ObjectKey string `bson:"s3ObjectKey" json:"-"`       // Internal storage key, never exposed directly
	FileName    string `bson:"fileName" json:"fileName"`   // Original filename provided by the uploader
	ContentType string `bson:"contentType,omitempty" json:"contentType,omitempty"`
}

// Feedback is a client inquiry/feedback record captured by a salesman,
// optionally carrying a recorded audio note.
type Feedback struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID primitive.ObjectID `bson:"clientId" json:"clientId"`
	// ClientName is denormalized from the client document at write time so
	// listings can regex-search it without a join.
	ClientName string             `bson:"clientName,omitempty" json:"clientName,omitempty"`
	SalesmanID primitive.ObjectID `bson:"salesmanId" json:"salesmanId"` // Who captured the feedback
	Lead       LeadStatus         `bson:"lead" json:"lead"`
	Products   []ProductItem      `bson:"products" json:"products"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Audio      *AudioAttachment   `bson:"audio,omitempty" json:"audio,omitempty"` // Optional audio note
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
