package api

import (
	"errors"
	"fmt"
	"net/http"

	"fieldops/sales-crm/internal/domain"
	"fieldops/sales-crm/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DirectoryHandler exposes client, product, area and salesman endpoints.
type DirectoryHandler struct {
	directoryService service.DirectoryService
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(directoryService service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directoryService: directoryService}
}

// --- Request/Response Structs ---

type ClientRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	AreaID   string `json:"area"`
	Salesman string `json:"salesman"`
}

type ClientResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	AreaID   string `json:"area,omitempty"`
	Salesman string `json:"salesman,omitempty"`
}

type ClientPageResponse struct {
	Items []ClientResponse `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type ProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Unit        string  `json:"unit" binding:"required"`
	Price       float64 `json:"price" binding:"min=0"`
	Active      *bool   `json:"active"`
}

type ProductResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Unit        string  `json:"unit"`
	Price       float64 `json:"price"`
	Active      bool    `json:"active"`
}

type AreaRequest struct {
	Name string `json:"name" binding:"required"`
}

type AreaResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func mapClientToResponse(cl *domain.Client) ClientResponse {
	resp := ClientResponse{
		ID:      cl.ID.Hex(),
		Name:    cl.Name,
		Phone:   cl.Phone,
		Address: cl.Address,
	}
	if cl.AreaID != nil {
		resp.AreaID = cl.AreaID.Hex()
	}
	if cl.SalesmanID != nil {
		resp.Salesman = cl.SalesmanID.Hex()
	}
	return resp
}

func mapProductToResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID.Hex(),
		Name:        p.Name,
		Description: p.Description,
		Unit:        p.Unit,
		Price:       p.Price,
		Active:      p.Active,
	}
}

func (r ClientRequest) toDomain() (*domain.Client, error) {
	cl := &domain.Client{
		Name:    r.Name,
		Phone:   r.Phone,
		Address: r.Address,
	}
	if r.AreaID != "" {
		id, err := primitive.ObjectIDFromHex(r.AreaID)
		if err != nil {
			return nil, fmt.Errorf("invalid area ID format")
		}
		cl.AreaID = &id
	}
	if r.Salesman != "" {
		id, err := primitive.ObjectIDFromHex(r.Salesman)
		if err != nil {
			return nil, fmt.Errorf("invalid salesman ID format")
		}
		cl.SalesmanID = &id
	}
	return cl, nil
}

// --- Clients ---

func (h *DirectoryHandler) CreateClient(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	cl, err := req.toDomain()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.directoryService.CreateClient(c.Request.Context(), cl)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapClientToResponse(created))
}

func (h *DirectoryHandler) ListClients(c *gin.Context) {
	page := parsePage(c)

	items, total, err := h.directoryService.ListClients(c.Request.Context(), page)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Could not list clients")
		return
	}

	resp := ClientPageResponse{
		Items: make([]ClientResponse, 0, len(items)),
		Total: total,
		Page:  page.Number,
		Limit: page.Limit,
	}
	for i := range items {
		resp.Items = append(resp.Items, mapClientToResponse(&items[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DirectoryHandler) UpdateClient(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	cl, err := req.toDomain()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	cl.ID = id

	if err := h.directoryService.UpdateClient(c.Request.Context(), cl); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapClientToResponse(cl))
}

func (h *DirectoryHandler) DeleteClient(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	if err := h.directoryService.DeleteClient(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Products ---

func (h *DirectoryHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Unit:        req.Unit,
		Price:       req.Price,
		Active:      active,
	}

	created, err := h.directoryService.CreateProduct(c.Request.Context(), p)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapProductToResponse(created))
}

func (h *DirectoryHandler) ListProducts(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	items, err := h.directoryService.ListProducts(c.Request.Context(), activeOnly)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Could not list products")
		return
	}

	resp := make([]ProductResponse, 0, len(items))
	for i := range items {
		resp = append(resp, mapProductToResponse(&items[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DirectoryHandler) UpdateProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p := &domain.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Unit:        req.Unit,
		Price:       req.Price,
		Active:      active,
	}

	if err := h.directoryService.UpdateProduct(c.Request.Context(), p); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapProductToResponse(p))
}

func (h *DirectoryHandler) DeleteProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if err := h.directoryService.DeleteProduct(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Areas ---

func (h *DirectoryHandler) CreateArea(c *gin.Context) {
	var req AreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	created, err := h.directoryService.CreateArea(c.Request.Context(), &domain.Area{Name: req.Name})
	if err != nil {
		if errors.Is(err, service.ErrAreaExists) {
			abortWithError(c, http.StatusConflict, err.Error())
			return
		}
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, AreaResponse{ID: created.ID.Hex(), Name: created.Name})
}

func (h *DirectoryHandler) ListAreas(c *gin.Context) {
	items, err := h.directoryService.ListAreas(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Could not list areas")
		return
	}

	resp := make([]AreaResponse, 0, len(items))
	for _, a := range items {
		resp = append(resp, AreaResponse{ID: a.ID.Hex(), Name: a.Name})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DirectoryHandler) DeleteArea(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid area ID format")
		return
	}

	if err := h.directoryService.DeleteArea(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Salesmen ---

func (h *DirectoryHandler) ListSalesmen(c *gin.Context) {
	users, err := h.directoryService.ListSalesmen(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Could not list salesmen")
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, MapUserToResponse(&users[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DirectoryHandler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDirectoryNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrClientNameRequired),
		errors.Is(err, service.ErrAreaNameRequired),
		errors.Is(err, service.ErrProductInvalid):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
