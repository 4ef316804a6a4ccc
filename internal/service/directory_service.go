package service

import (
	"context"
	"errors"

	"fieldops/sales-crm/internal/domain"
	"fieldops/sales-crm/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrClientNameRequired = errors.New("client name is required")
	ErrAreaNameRequired   = errors.New("area name is required")
	ErrAreaExists         = errors.New("area with this name already exists")
	ErrProductInvalid     = errors.New("product name and unit are required")
	ErrDirectoryNotFound  = errors.New("directory entry not found")
)

// DirectoryService manages the reference data feedback records point at:
// clients, products, sales areas and the salesman roster.
type DirectoryService interface {
	CreateClient(ctx context.Context, client *domain.Client) (*domain.Client, error)
	GetClient(ctx context.Context, id primitive.ObjectID) (*domain.Client, error)
	ListClients(ctx context.Context, page repository.Page) ([]domain.Client, int64, error)
	UpdateClient(ctx context.Context, client *domain.Client) error
	DeleteClient(ctx context.Context, id primitive.ObjectID) error

	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error

	CreateArea(ctx context.Context, area *domain.Area) (*domain.Area, error)
	ListAreas(ctx context.Context) ([]domain.Area, error)
	DeleteArea(ctx context.Context, id primitive.ObjectID) error

	ListSalesmen(ctx context.Context) ([]domain.User, error)
}

type directoryService struct {
	clientRepo  repository.ClientRepository
	productRepo repository.ProductRepository
	areaRepo    repository.AreaRepository
	userRepo    repository.UserRepository
}

// NewDirectoryService creates a new instance of directoryService.
func NewDirectoryService(clientRepo repository.ClientRepository, productRepo repository.ProductRepository, areaRepo repository.AreaRepository, userRepo repository.UserRepository) DirectoryService {
	return &directoryService{
		clientRepo:  clientRepo,
		productRepo: productRepo,
		areaRepo:    areaRepo,
		userRepo:    userRepo,
	}
}

// --- Clients ---

func (s *directoryService) CreateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	if client.Name == "" {
		return nil, ErrClientNameRequired
	}
	id, err := s.clientRepo.Create(ctx, client)
	if err != nil {
		return nil, err
	}
	client.ID = id
	return client, nil
}

func (s *directoryService) GetClient(ctx context.Context, id primitive.ObjectID) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDirectoryNotFound
		}
		return nil, err
	}
	return client, nil
}

func (s *directoryService) ListClients(ctx context.Context, page repository.Page) ([]domain.Client, int64, error) {
	return s.clientRepo.List(ctx, page)
}

func (s *directoryService) UpdateClient(ctx context.Context, client *domain.Client) error {
	if client.Name == "" {
		return ErrClientNameRequired
	}
	err := s.clientRepo.Update(ctx, client)
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrUpdateFailed) {
		return ErrDirectoryNotFound
	}
	return err
}

func (s *directoryService) DeleteClient(ctx context.Context, id primitive.ObjectID) error {
	err := s.clientRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrDeleteFailed) {
		return ErrDirectoryNotFound
	}
	return err
}

// --- Products ---

func (s *directoryService) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Unit == "" {
		return nil, ErrProductInvalid
	}
	id, err := s.productRepo.Create(ctx, product)
	if err != nil {
		return nil, err
	}
	product.ID = id
	return product, nil
}

func (s *directoryService) ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	return s.productRepo.List(ctx, activeOnly)
}

func (s *directoryService) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if product.Name == "" || product.Unit == "" {
		return ErrProductInvalid
	}
	err := s.productRepo.Update(ctx, product)
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrUpdateFailed) {
		return ErrDirectoryNotFound
	}
	return err
}

func (s *directoryService) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	err := s.productRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrDeleteFailed) {
		return ErrDirectoryNotFound
	}
	return err
}

// --- Areas ---

func (s *directoryService) CreateArea(ctx context.Context, area *domain.Area) (*domain.Area, error) {
	if area.Name == "" {
		return nil, ErrAreaNameRequired
	}
	id, err := s.areaRepo.Create(ctx, area)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAreaExists
		}
		return nil, err
	}
	area.ID = id
	return area, nil
}

func (s *directoryService) ListAreas(ctx context.Context) ([]domain.Area, error) {
	return s.areaRepo.List(ctx)
}

func (s *directoryService) DeleteArea(ctx context.Context, id primitive.ObjectID) error {
	err := s.areaRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrDeleteFailed) {
		return ErrDirectoryNotFound
	}
	return err
}

// --- Salesmen ---

func (s *directoryService) ListSalesmen(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.GetByRole(ctx, domain.RoleSalesman)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}
