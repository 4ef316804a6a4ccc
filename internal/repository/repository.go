package repository

import (
	"context"

	"fieldops/sales-crm/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Page bundles the pagination/search arguments used by list queries.
type Page struct {
	Number int    // 1-based page number
	Limit  int    // page size; 0 means the repository default
	Search string // optional case-insensitive substring match
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ClientRepository defines the interface for interacting with client (shop) data.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Client, error)
	List(ctx context.Context, page Page) ([]domain.Client, int64, error)
	GetBySalesmanID(ctx context.Context, salesmanID primitive.ObjectID) ([]domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// AreaRepository defines the interface for interacting with sales areas.
type AreaRepository interface {
	Create(ctx context.Context, area *domain.Area) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Area, error)
	List(ctx context.Context) ([]domain.Area, error)
	Update(ctx context.Context, area *domain.Area) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProductRepository defines the interface for interacting with catalogue products.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// FeedbackRepository defines the interface for interacting with feedback records.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.Feedback) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Feedback, error)
	List(ctx context.Context, page Page) ([]domain.Feedback, int64, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Feedback, error)
	Update(ctx context.Context, feedback *domain.Feedback) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
