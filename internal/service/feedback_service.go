package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"fieldops/sales-crm/internal/domain"
	"fieldops/sales-crm/internal/repository"
	"fieldops/sales-crm/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrFeedbackNotFound = errors.New("feedback record not found")
	ErrInvalidLead      = errors.New("invalid lead classification")
	ErrInvalidQuantity  = errors.New("product quantities must be at least 1")
	ErrNoProducts       = errors.New("at least one product line item is required")
	ErrInvalidMimeType  = errors.New("only audio content types are accepted")
	ErrClientNotFound   = errors.New("client not found")
	ErrNoAudio          = errors.New("feedback record has no audio note")
	ErrUploadURLFailed  = errors.New("failed to generate presigned upload URL")
)

// UploadTicket is a presigned write grant handed to the client app. The
// object key doubles as the durable reference stored on the record.
type UploadTicket struct {
	UploadURL string
	ObjectKey string
}

// PlaybackSource is a short-lived signed download URL for a record's audio
// note, paired with the identity of the underlying object.
type PlaybackSource struct {
	SignedURL    string
	Key          string
	OriginalName string
}

// FeedbackInput carries the fields the API accepts for create/update.
type FeedbackInput struct {
	ClientID primitive.ObjectID
	Lead     domain.LeadStatus
	Products []domain.ProductItem
	Notes    string
	// AudioKey is empty when the record has no note; otherwise it refers
	// to an object already uploaded via an UploadTicket.
	AudioKey         string
	AudioName        string
	AudioContentType string
}

// FeedbackService manages feedback records and their audio notes.
type FeedbackService interface {
	RequestUploadURL(ctx context.Context, fileName, contentType string) (*UploadTicket, error)
	GetPlaybackSource(ctx context.Context, feedbackID primitive.ObjectID) (*PlaybackSource, error)
	Create(ctx context.Context, salesmanID primitive.ObjectID, in FeedbackInput) (*domain.Feedback, error)
	Update(ctx context.Context, id primitive.ObjectID, in FeedbackInput) (*domain.Feedback, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Feedback, error)
	List(ctx context.Context, page repository.Page) ([]domain.Feedback, int64, error)
}

type feedbackService struct {
	feedbackRepo repository.FeedbackRepository
	clientRepo   repository.ClientRepository
	fileStorage  storage.FileStorage
}

// NewFeedbackService creates a new instance of feedbackService.
func NewFeedbackService(feedbackRepo repository.FeedbackRepository, clientRepo repository.ClientRepository, fileStorage storage.FileStorage) FeedbackService {
	return &feedbackService{
		feedbackRepo: feedbackRepo,
		clientRepo:   clientRepo,
		fileStorage:  fileStorage,
	}
}

// RequestUploadURL validates the declared content type and issues a
// presigned PUT grant for a fresh object key. The object is not referenced
// by any record until the client confirms it on create/update.
func (s *feedbackService) RequestUploadURL(ctx context.Context, fileName, contentType string) (*UploadTicket, error) {
	if !strings.HasPrefix(strings.ToLower(contentType), "audio/") {
		return nil, ErrInvalidMimeType
	}

	// Unique key, preserving the original extension for content sniffing.
	ext := filepath.Ext(fileName)
	objectKey := fmt.Sprintf("uploads/audio/%s%s", uuid.New().String(), ext)

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		log.Printf("ERROR: presign upload for key %s: %v", objectKey, err)
		return nil, ErrUploadURLFailed
	}

	return &UploadTicket{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// GetPlaybackSource issues a fresh signed download URL for the record's
// audio note.
func (s *feedbackService) GetPlaybackSource(ctx context.Context, feedbackID primitive.ObjectID) (*PlaybackSource, error) {
	fb, err := s.feedbackRepo.GetByID(ctx, feedbackID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, err
	}
	if fb.Audio == nil {
		return nil, ErrNoAudio
	}

	signedURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, fb.Audio.S3ObjectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}

	return &PlaybackSource{
		SignedURL:    signedURL,
		Key:          fb.Audio.S3ObjectKey,
		OriginalName: fb.Audio.FileName,
	}, nil
}

func validateInput(in FeedbackInput) error {
	if !domain.ValidLeadStatus(in.Lead) {
		return ErrInvalidLead
	}
	if len(in.Products) == 0 {
		return ErrNoProducts
	}
	for _, p := range in.Products {
		if p.Quantity < 1 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

func audioFromInput(in FeedbackInput) *domain.AudioAttachment {
	if in.AudioKey == "" {
		return nil
	}
	return &domain.AudioAttachment{
		S3ObjectKey: in.AudioKey,
		FileName:    in.AudioName,
		ContentType: in.AudioContentType,
	}
}

// Create validates and stores a new feedback record.
func (s *feedbackService) Create(ctx context.Context, salesmanID primitive.ObjectID, in FeedbackInput) (*domain.Feedback, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	// The referenced client must exist. Its name is denormalized onto the
	// record so listings can search by client name.
	client, err := s.clientRepo.GetByID(ctx, in.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	fb := &domain.Feedback{
		ClientID:   in.ClientID,
		ClientName: client.Name,
		SalesmanID: salesmanID,
		Lead:       in.Lead,
		Products:   in.Products,
		Notes:      in.Notes,
		Audio:      audioFromInput(in),
	}

	id, err := s.feedbackRepo.Create(ctx, fb)
	if err != nil {
		return nil, err
	}
	fb.ID = id
	return fb, nil
}

// Update replaces the mutable fields of an existing record. When the audio
// reference changes, the previously stored object is deleted from storage.
func (s *feedbackService) Update(ctx context.Context, id primitive.ObjectID, in FeedbackInput) (*domain.Feedback, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	existing, err := s.feedbackRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, err
	}

	client, err := s.clientRepo.GetByID(ctx, in.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	existing.ClientID = in.ClientID
	existing.ClientName = client.Name
	existing.Lead = in.Lead
	existing.Products = in.Products
	existing.Notes = in.Notes

	oldAudio := existing.Audio
	existing.Audio = audioFromInput(in)

	if err := s.feedbackRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	// Orphaned object cleanup after a successful update. Deletion failures
	// leave a stray object behind but never fail the request.
	if oldAudio != nil && (existing.Audio == nil || existing.Audio.S3ObjectKey != oldAudio.S3ObjectKey) {
		if err := s.fileStorage.DeleteObject(ctx, oldAudio.S3ObjectKey); err != nil {
			log.Printf("WARN: delete replaced audio object %s: %v", oldAudio.S3ObjectKey, err)
		}
	}

	return existing, nil
}

// Delete removes a record and its stored audio object, if any.
func (s *feedbackService) Delete(ctx context.Context, id primitive.ObjectID) error {
	fb, err := s.feedbackRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFeedbackNotFound
		}
		return err
	}

	if err := s.feedbackRepo.Delete(ctx, id); err != nil {
		return err
	}

	if fb.Audio != nil {
		if err := s.fileStorage.DeleteObject(ctx, fb.Audio.S3ObjectKey); err != nil {
			log.Printf("WARN: delete audio object %s: %v", fb.Audio.S3ObjectKey, err)
		}
	}
	return nil
}

// Get fetches one record by ID.
func (s *feedbackService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Feedback, error) {
	fb, err := s.feedbackRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, err
	}
	return fb, nil
}

// List returns one page of records plus the total count.
func (s *feedbackService) List(ctx context.Context, page repository.Page) ([]domain.Feedback, int64, error) {
	return s.feedbackRepo.List(ctx, page)
}
