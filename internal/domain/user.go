package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAdmin    Role = "admin"
	RoleSalesman Role = "salesman"
)

// User represents a dashboard user (either an Admin or a Salesman).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`                     // Should be unique
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"` // E.164, used for OTP delivery
	PasswordHash string             `bson:"passwordHash" json:"-"`                  // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Salesman-specific ---
	// Areas this salesman covers. Empty for admins.
	AreaIDs []primitive.ObjectID `bson:"areaIds,omitempty" json:"areaIds,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsSalesman() bool {
	return u.Role == RoleSalesman
}
