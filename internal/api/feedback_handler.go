package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fieldops/sales-crm/internal/domain"
	"fieldops/sales-crm/internal/repository"
	"fieldops/sales-crm/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedbackHandler exposes the feedback record endpoints.
type FeedbackHandler struct {
	feedbackService service.FeedbackService
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(feedbackService service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// --- Request/Response Structs ---

type ProductItemRequest struct {
	ProductID string `json:"product" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type AudioRequest struct {
	Key          string `json:"key" binding:"required"`
	OriginalName string `json:"originalName"`
	ContentType  string `json:"contentType"`
}

type FeedbackRequest struct {
	ClientID string               `json:"client" binding:"required"`
	Lead     domain.LeadStatus    `json:"lead" binding:"required"`
	Products []ProductItemRequest `json:"products" binding:"required,min=1,dive"`
	Notes    string               `json:"notes"`
	Audio    *AudioRequest        `json:"audio"`
}

type ProductItemResponse struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

type FeedbackResponse struct {
	ID         string                `json:"id"`
	ClientID   string                `json:"client"`
	ClientName string                `json:"clientName,omitempty"`
	Salesman   string                `json:"salesman"`
	Lead       domain.LeadStatus     `json:"lead"`
	Products   []ProductItemResponse `json:"products"`
	Notes      string                `json:"notes,omitempty"`
	HasAudio   bool                  `json:"hasAudio"`
	AudioName  string                `json:"audioName,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
}

type FeedbackPageResponse struct {
	Items []FeedbackResponse `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type UploadURLRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
}

type PlaybackURLResponse struct {
	SignedURL    string `json:"signedUrl"`
	Key          string `json:"key"`
	OriginalName string `json:"originalName"`
}

func (r FeedbackRequest) toInput() (service.FeedbackInput, error) {
	clientID, err := primitive.ObjectIDFromHex(r.ClientID)
	if err != nil {
		return service.FeedbackInput{}, fmt.Errorf("invalid client ID format")
	}

	items := make([]domain.ProductItem, 0, len(r.Products))
	for _, p := range r.Products {
		pid, err := primitive.ObjectIDFromHex(p.ProductID)
		if err != nil {
			return service.FeedbackInput{}, fmt.Errorf("invalid product ID format")
		}
		items = append(items, domain.ProductItem{ProductID: pid, Quantity: p.Quantity})
	}

	in := service.FeedbackInput{
		ClientID: clientID,
		Lead:     r.Lead,
		Products: items,
		Notes:    r.Notes,
	}
	if r.Audio != nil {
		in.AudioKey = r.Audio.Key
		in.AudioName = r.Audio.OriginalName
		in.AudioContentType = r.Audio.ContentType
	}
	return in, nil
}

// MapFeedbackToResponse converts a domain Feedback to its DTO.
func MapFeedbackToResponse(fb *domain.Feedback) FeedbackResponse {
	items := make([]ProductItemResponse, 0, len(fb.Products))
	for _, p := range fb.Products {
		items = append(items, ProductItemResponse{ProductID: p.ProductID.Hex(), Quantity: p.Quantity})
	}

	resp := FeedbackResponse{
		ID:         fb.ID.Hex(),
		ClientID:   fb.ClientID.Hex(),
		ClientName: fb.ClientName,
		Salesman:   fb.SalesmanID.Hex(),
		Lead:       fb.Lead,
		Products:   items,
		Notes:      fb.Notes,
		CreatedAt:  fb.CreatedAt,
	}
	if fb.Audio != nil {
		resp.HasAudio = true
		resp.AudioName = fb.Audio.FileName
	}
	return resp
}

// --- Handler Methods ---

// RequestUploadURL issues a presigned PUT grant for an audio note.
func (h *FeedbackHandler) RequestUploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	ticket, err := h.feedbackService.RequestUploadURL(c.Request.Context(), req.FileName, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMimeType) {
			abortWithError(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Could not generate upload URL")
		return
	}

	c.JSON(http.StatusOK, UploadURLResponse{UploadURL: ticket.UploadURL, Key: ticket.ObjectKey})
}

// GetPlaybackURL issues a fresh signed download URL for a record's audio.
func (h *FeedbackHandler) GetPlaybackURL(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid feedback ID format")
		return
	}

	src, err := h.feedbackService.GetPlaybackSource(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFeedbackNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNoAudio):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Could not generate playback URL")
		}
		return
	}

	c.JSON(http.StatusOK, PlaybackURLResponse{
		SignedURL:    src.SignedURL,
		Key:          src.Key,
		OriginalName: src.OriginalName,
	})
}

// CreateFeedback stores a new record captured by the authenticated salesman.
func (h *FeedbackHandler) CreateFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	salesmanID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Invalid user ID in token")
		return
	}

	in, err := req.toInput()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	fb, err := h.feedbackService.Create(c.Request.Context(), salesmanID, in)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapFeedbackToResponse(fb))
}

// UpdateFeedback replaces an existing record.
func (h *FeedbackHandler) UpdateFeedback(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid feedback ID format")
		return
	}

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	in, err := req.toInput()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	fb, err := h.feedbackService.Update(c.Request.Context(), id, in)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapFeedbackToResponse(fb))
}

// DeleteFeedback removes a record.
func (h *FeedbackHandler) DeleteFeedback(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid feedback ID format")
		return
	}

	if err := h.feedbackService.Delete(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetFeedback fetches one record by ID.
func (h *FeedbackHandler) GetFeedback(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid feedback ID format")
		return
	}

	fb, err := h.feedbackService.Get(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapFeedbackToResponse(fb))
}

// ListFeedback returns one page of records.
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	page := parsePage(c)

	items, total, err := h.feedbackService.List(c.Request.Context(), page)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Could not list feedback records")
		return
	}

	resp := FeedbackPageResponse{
		Items: make([]FeedbackResponse, 0, len(items)),
		Total: total,
		Page:  page.Number,
		Limit: page.Limit,
	}
	for i := range items {
		resp.Items = append(resp.Items, MapFeedbackToResponse(&items[i]))
	}

	c.JSON(http.StatusOK, resp)
}

func (h *FeedbackHandler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFeedbackNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrClientNotFound):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrInvalidLead),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrNoProducts):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// parsePage extracts page/limit/search query parameters.
func parsePage(c *gin.Context) repository.Page {
	page := repository.Page{Search: c.Query("search")}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		page.Number = n
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		page.Limit = n
	}
	return page
}
