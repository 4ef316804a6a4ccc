package service

import (
	"context"
	"strings"
	"testing"

	"fieldops/sales-crm/internal/domain"
	"fieldops/sales-crm/internal/repository"
	"fieldops/sales-crm/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestFeedbackService() (FeedbackService, *mockFeedbackRepo, *mockClientRepo, *mockFileStorage) {
	fbRepo := new(mockFeedbackRepo)
	clRepo := new(mockClientRepo)
	fs := new(mockFileStorage)
	return NewFeedbackService(fbRepo, clRepo, fs), fbRepo, clRepo, fs
}

func validInput(clientID primitive.ObjectID) FeedbackInput {
	return FeedbackInput{
		ClientID: clientID,
		Lead:     domain.LeadHot,
		Products: []domain.ProductItem{{ProductID: primitive.NewObjectID(), Quantity: 2}},
		Notes:    "asked about bulk pricing",
	}
}

func TestRequestUploadURLValidatesContentType(t *testing.T) {
	svc, _, _, fs := newTestFeedbackService()

	_, err := svc.RequestUploadURL(context.Background(), "notes.pdf", "application/pdf")
	assert.ErrorIs(t, err, ErrInvalidMimeType)
	fs.AssertNotCalled(t, "GeneratePresignedUploadURL")
}

func TestRequestUploadURLIssuesTicket(t *testing.T) {
	svc, _, _, fs := newTestFeedbackService()

	fs.On("GeneratePresignedUploadURL", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "uploads/audio/") && strings.HasSuffix(key, ".wav")
	}), "audio/wav", storage.DefaultPresignedURLExpiry).Return("https://s3.local/put", nil)

	ticket, err := svc.RequestUploadURL(context.Background(), "recording.wav", "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "https://s3.local/put", ticket.UploadURL)
	assert.True(t, strings.HasPrefix(ticket.ObjectKey, "uploads/audio/"))
	fs.AssertExpectations(t)
}

func TestCreateRejectsInvalidLead(t *testing.T) {
	svc, _, _, _ := newTestFeedbackService()

	in := validInput(primitive.NewObjectID())
	in.Lead = "lukewarm"
	_, err := svc.Create(context.Background(), primitive.NewObjectID(), in)
	assert.ErrorIs(t, err, ErrInvalidLead)
}

func TestCreateRejectsZeroQuantity(t *testing.T) {
	svc, _, _, _ := newTestFeedbackService()

	in := validInput(primitive.NewObjectID())
	in.Products[0].Quantity = 0
	_, err := svc.Create(context.Background(), primitive.NewObjectID(), in)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCreateRejectsUnknownClient(t *testing.T) {
	svc, _, clRepo, _ := newTestFeedbackService()

	clientID := primitive.NewObjectID()
	clRepo.On("GetByID", mock.Anything, clientID).Return(nil, repository.ErrNotFound)

	_, err := svc.Create(context.Background(), primitive.NewObjectID(), validInput(clientID))
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestCreateStoresRecordWithAudio(t *testing.T) {
	svc, fbRepo, clRepo, _ := newTestFeedbackService()

	clientID := primitive.NewObjectID()
	salesmanID := primitive.NewObjectID()
	newID := primitive.NewObjectID()

	clRepo.On("GetByID", mock.Anything, clientID).Return(&domain.Client{ID: clientID, Name: "Corner Shop"}, nil)
	fbRepo.On("Create", mock.Anything, mock.MatchedBy(func(fb *domain.Feedback) bool {
		return fb.SalesmanID == salesmanID &&
			fb.ClientName == "Corner Shop" &&
			fb.Audio != nil &&
			fb.Audio.S3ObjectKey == "uploads/audio/abc.wav" &&
			fb.Audio.FileName == "recording.wav"
	})).Return(newID, nil)

	in := validInput(clientID)
	in.AudioKey = "uploads/audio/abc.wav"
	in.AudioName = "recording.wav"
	in.AudioContentType = "audio/wav"

	fb, err := svc.Create(context.Background(), salesmanID, in)
	require.NoError(t, err)
	assert.Equal(t, newID, fb.ID)
	assert.Equal(t, "Corner Shop", fb.ClientName, "client name is denormalized for list search")
	fbRepo.AssertExpectations(t)
}

func TestUpdateRefreshesClientName(t *testing.T) {
	svc, fbRepo, clRepo, _ := newTestFeedbackService()

	id := primitive.NewObjectID()
	oldClient := primitive.NewObjectID()
	newClient := primitive.NewObjectID()

	fbRepo.On("GetByID", mock.Anything, id).Return(&domain.Feedback{
		ID:         id,
		ClientID:   oldClient,
		ClientName: "Corner Shop",
		Lead:       domain.LeadWarm,
		Products:   []domain.ProductItem{{ProductID: primitive.NewObjectID(), Quantity: 1}},
	}, nil)
	clRepo.On("GetByID", mock.Anything, newClient).Return(&domain.Client{ID: newClient, Name: "Harbour Kiosk"}, nil)
	fbRepo.On("Update", mock.Anything, mock.MatchedBy(func(fb *domain.Feedback) bool {
		return fb.ClientID == newClient && fb.ClientName == "Harbour Kiosk"
	})).Return(nil)

	got, err := svc.Update(context.Background(), id, validInput(newClient))
	require.NoError(t, err)
	assert.Equal(t, "Harbour Kiosk", got.ClientName)
	fbRepo.AssertExpectations(t)
}

func TestUpdateDeletesReplacedAudioObject(t *testing.T) {
	svc, fbRepo, clRepo, fs := newTestFeedbackService()

	id := primitive.NewObjectID()
	clientID := primitive.NewObjectID()
	existing := &domain.Feedback{
		ID:       id,
		ClientID: clientID,
		Lead:     domain.LeadWarm,
		Products: []domain.ProductItem{{ProductID: primitive.NewObjectID(), Quantity: 1}},
		Audio:    &domain.AudioAttachment{S3ObjectKey: "uploads/audio/old.wav", FileName: "old.wav"},
	}

	fbRepo.On("GetByID", mock.Anything, id).Return(existing, nil)
	clRepo.On("GetByID", mock.Anything, clientID).Return(&domain.Client{ID: clientID}, nil)
	fbRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	fs.On("DeleteObject", mock.Anything, "uploads/audio/old.wav").Return(nil)

	in := validInput(clientID)
	in.AudioKey = "uploads/audio/new.wav"
	in.AudioName = "recording.wav"

	got, err := svc.Update(context.Background(), id, in)
	require.NoError(t, err)
	require.NotNil(t, got.Audio)
	assert.Equal(t, "uploads/audio/new.wav", got.Audio.S3ObjectKey)
	fs.AssertExpectations(t)
}

func TestUpdateKeepsUnchangedAudioObject(t *testing.T) {
	svc, fbRepo, clRepo, fs := newTestFeedbackService()

	id := primitive.NewObjectID()
	clientID := primitive.NewObjectID()
	existing := &domain.Feedback{
		ID:       id,
		ClientID: clientID,
		Lead:     domain.LeadWarm,
		Products: []domain.ProductItem{{ProductID: primitive.NewObjectID(), Quantity: 1}},
		Audio:    &domain.AudioAttachment{S3ObjectKey: "uploads/audio/keep.wav", FileName: "keep.wav"},
	}

	fbRepo.On("GetByID", mock.Anything, id).Return(existing, nil)
	clRepo.On("GetByID", mock.Anything, clientID).Return(&domain.Client{ID: clientID}, nil)
	fbRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	in := validInput(clientID)
	in.AudioKey = "uploads/audio/keep.wav"
	in.AudioName = "keep.wav"

	_, err := svc.Update(context.Background(), id, in)
	require.NoError(t, err)
	fs.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
}

func TestDeleteRemovesAudioObject(t *testing.T) {
	svc, fbRepo, _, fs := newTestFeedbackService()

	id := primitive.NewObjectID()
	fbRepo.On("GetByID", mock.Anything, id).Return(&domain.Feedback{
		ID:    id,
		Audio: &domain.AudioAttachment{S3ObjectKey: "uploads/audio/zap.wav"},
	}, nil)
	fbRepo.On("Delete", mock.Anything, id).Return(nil)
	fs.On("DeleteObject", mock.Anything, "uploads/audio/zap.wav").Return(nil)

	require.NoError(t, svc.Delete(context.Background(), id))
	fs.AssertExpectations(t)
}

func TestGetPlaybackSource(t *testing.T) {
	svc, fbRepo, _, fs := newTestFeedbackService()

	id := primitive.NewObjectID()
	fbRepo.On("GetByID", mock.Anything, id).Return(&domain.Feedback{
		ID:    id,
		Audio: &domain.AudioAttachment{S3ObjectKey: "uploads/audio/note.wav", FileName: "recording.wav"},
	}, nil)
	fs.On("GeneratePresignedDownloadURL", mock.Anything, "uploads/audio/note.wav", storage.DefaultPresignedURLExpiry).
		Return("https://s3.local/get?X-Amz-Expires=900", nil)

	src, err := svc.GetPlaybackSource(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "uploads/audio/note.wav", src.Key)
	assert.Equal(t, "recording.wav", src.OriginalName)
	assert.Contains(t, src.SignedURL, "X-Amz-Expires")
}

func TestGetPlaybackSourceWithoutAudio(t *testing.T) {
	svc, fbRepo, _, _ := newTestFeedbackService()

	id := primitive.NewObjectID()
	fbRepo.On("GetByID", mock.Anything, id).Return(&domain.Feedback{ID: id}, nil)

	_, err := svc.GetPlaybackSource(context.Background(), id)
	assert.ErrorIs(t, err, ErrNoAudio)
}
