package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fieldops/sales-crm/internal/domain"
	"fieldops/sales-crm/internal/repository"
	"fieldops/sales-crm/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

type mockFeedbackService struct {
	mock.Mock
}

func (m *mockFeedbackService) RequestUploadURL(ctx context.Context, fileName, contentType string) (*service.UploadTicket, error) {
	args := m.Called(ctx, fileName, contentType)
	if t, ok := args.Get(0).(*service.UploadTicket); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFeedbackService) GetPlaybackSource(ctx context.Context, feedbackID primitive.ObjectID) (*service.PlaybackSource, error) {
	args := m.Called(ctx, feedbackID)
	if s, ok := args.Get(0).(*service.PlaybackSource); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFeedbackService) Create(ctx context.Context, salesmanID primitive.ObjectID, in service.FeedbackInput) (*domain.Feedback, error) {
	args := m.Called(ctx, salesmanID, in)
	if fb, ok := args.Get(0).(*domain.Feedback); ok {
		return fb, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFeedbackService) Update(ctx context.Context, id primitive.ObjectID, in service.FeedbackInput) (*domain.Feedback, error) {
	args := m.Called(ctx, id, in)
	if fb, ok := args.Get(0).(*domain.Feedback); ok {
		return fb, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFeedbackService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockFeedbackService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Feedback, error) {
	args := m.Called(ctx, id)
	if fb, ok := args.Get(0).(*domain.Feedback); ok {
		return fb, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFeedbackService) List(ctx context.Context, page repository.Page) ([]domain.Feedback, int64, error) {
	args := m.Called(ctx, page)
	var items []domain.Feedback
	if v, ok := args.Get(0).([]domain.Feedback); ok {
		items = v
	}
	return items, args.Get(1).(int64), args.Error(2)
}

func newTestRouter(svc service.FeedbackService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	h := NewFeedbackHandler(svc)
	group := router.Group("/api/v1/feedback")
	group.Use(AuthMiddleware(testSecret))
	{
		group.POST("/upload-url", h.RequestUploadURL)
		group.POST("", h.CreateFeedback)
		group.GET("", h.ListFeedback)
		group.GET("/:id/audio-url", h.GetPlaybackURL)
		group.DELETE("/:id", h.DeleteFeedback)
	}
	return router
}

func signToken(t *testing.T, userID primitive.ObjectID, role domain.Role) string {
	t.Helper()
	claims := jwt.MapClaims{
		"uid":  userID.Hex(),
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequestUploadURLRequiresAuth(t *testing.T) {
	svc := new(mockFeedbackService)
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodPost, "/api/v1/feedback/upload-url", "", gin.H{
		"fileName": "recording.wav", "contentType": "audio/wav",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "RequestUploadURL")
}

func TestRequestUploadURLReturnsTicket(t *testing.T) {
	svc := new(mockFeedbackService)
	router := newTestRouter(svc)
	token := signToken(t, primitive.NewObjectID(), domain.RoleSalesman)

	svc.On("RequestUploadURL", mock.Anything, "recording.wav", "audio/wav").
		Return(&service.UploadTicket{UploadURL: "https://s3.local/put", ObjectKey: "uploads/audio/abc.wav"}, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/feedback/upload-url", token, gin.H{
		"fileName": "recording.wav", "contentType": "audio/wav",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp UploadURLResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "uploads/audio/abc.wav", resp.Key)
	assert.Equal(t, "https://s3.local/put", resp.UploadURL)
}

func TestRequestUploadURLRejectsNonAudio(t *testing.T) {
	svc := new(mockFeedbackService)
	router := newTestRouter(svc)
	token := signToken(t, primitive.NewObjectID(), domain.RoleSalesman)

	svc.On("RequestUploadURL", mock.Anything, "notes.pdf", "application/pdf").
		Return(nil, service.ErrInvalidMimeType)

	w := doJSON(t, router, http.MethodPost, "/api/v1/feedback/upload-url", token, gin.H{
		"fileName": "notes.pdf", "contentType": "application/pdf",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreateFeedbackUsesTokenIdentity(t *testing.T) {
	svc := new(mockFeedbackService)
	router := newTestRouter(svc)

	salesmanID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()
	productID := primitive.NewObjectID()
	token := signToken(t, salesmanID, domain.RoleSalesman)

	svc.On("Create", mock.Anything, salesmanID, mock.MatchedBy(func(in service.FeedbackInput) bool {
		return in.ClientID == clientID &&
			in.Lead == domain.LeadHot &&
			len(in.Products) == 1 && in.Products[0].Quantity == 2 &&
			in.AudioKey == "uploads/audio/abc.wav"
	})).Return(&domain.Feedback{
		ID:         primitive.NewObjectID(),
		ClientID:   clientID,
		SalesmanID: salesmanID,
		Lead:       domain.LeadHot,
		Products:   []domain.ProductItem{{ProductID: productID, Quantity: 2}},
		Audio:      &domain.AudioAttachment{S3ObjectKey: "uploads/audio/abc.wav", FileName: "recording.wav"},
	}, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/feedback", token, gin.H{
		"client":   clientID.Hex(),
		"lead":     "hot",
		"products": []gin.H{{"product": productID.Hex(), "quantity": 2}},
		"audio":    gin.H{"key": "uploads/audio/abc.wav", "originalName": "recording.wav"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp FeedbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.HasAudio)
	assert.Equal(t, "recording.wav", resp.AudioName)
	svc.AssertExpectations(t)
}

func TestGetPlaybackURL(t *testing.T) {
	svc := new(mockFeedbackService)
	router := newTestRouter(svc)

	id := primitive.NewObjectID()
	token := signToken(t, primitive.NewObjectID(), domain.RoleSalesman)

	svc.On("GetPlaybackSource", mock.Anything, id).Return(&service.PlaybackSource{
		SignedURL:    "https://s3.local/get?X-Amz-Expires=900",
		Key:          "uploads/audio/abc.wav",
		OriginalName: "recording.wav",
	}, nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/feedback/"+id.Hex()+"/audio-url", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp PlaybackURLResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "recording.wav", resp.OriginalName)
	assert.Contains(t, resp.SignedURL, "X-Amz-Expires")
}

func TestGetPlaybackURLWithoutAudio(t *testing.T) {
	svc := new(mockFeedbackService)
	router := newTestRouter(svc)

	id := primitive.NewObjectID()
	token := signToken(t, primitive.NewObjectID(), domain.RoleSalesman)
	svc.On("GetPlaybackSource", mock.Anything, id).Return(nil, service.ErrNoAudio)

	w := doJSON(t, router, http.MethodGet, "/api/v1/feedback/"+id.Hex()+"/audio-url", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteFeedback(t *testing.T) {
	svc := new(mockFeedbackService)
	router := newTestRouter(svc)

	id := primitive.NewObjectID()
	token := signToken(t, primitive.NewObjectID(), domain.RoleSalesman)
	svc.On("Delete", mock.Anything, id).Return(nil)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/feedback/"+id.Hex(), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestListFeedbackPassesPaging(t *testing.T) {
	svc := new(mockFeedbackService)
	router := newTestRouter(svc)
	token := signToken(t, primitive.NewObjectID(), domain.RoleSalesman)

	svc.On("List", mock.Anything, repository.Page{Number: 2, Limit: 5, Search: "corner"}).
		Return([]domain.Feedback{}, int64(12), nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/feedback?page=2&limit=5&search=corner", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp FeedbackPageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(12), resp.Total)
	assert.Equal(t, 2, resp.Page)
}
