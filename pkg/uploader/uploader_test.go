package uploader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIssuer hands out credentials pointing at a test server.
type fakeIssuer struct {
	mu        sync.Mutex
	uploadURL string
	key       string
	err       error
	calls     int
	lastName  string
	lastMime  string
}

func (f *fakeIssuer) RequestUploadCredential(_ context.Context, fileName, mimeType string) (*Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastName = fileName
	f.lastMime = mimeType
	if f.err != nil {
		return nil, f.err
	}
	return &Credential{UploadURL: f.uploadURL, Key: f.key}, nil
}

func TestSelectFileRejectsNonAudio(t *testing.T) {
	p := NewPipeline(&fakeIssuer{}, nil)

	err := p.SelectFile("cat.png", "image/png", strings.NewReader("bytes"))
	assert.ErrorIs(t, err, ErrNotAudio)
	assert.Equal(t, StatusNotStarted, p.Status())
	assert.Nil(t, p.Reference())
	assert.True(t, p.Settled(), "rejected selection must leave state unchanged")
}

func TestUploadTwoPhase(t *testing.T) {
	var (
		gotMethod      string
		gotContentType string
		gotBody        []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	issuer := &fakeIssuer{uploadURL: srv.URL + "/bucket/audio/k123?X-Amz-Signature=x", key: "audio/k123"}
	p := NewPipeline(issuer, nil)

	require.NoError(t, p.SelectFile("note.mp3", "audio/mpeg", strings.NewReader("audio-bytes")))
	ref, err := p.Upload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &StorageReference{Key: "audio/k123", OriginalName: "note.mp3"}, ref)
	assert.Equal(t, StatusSucceeded, p.Status())
	assert.True(t, p.Settled())

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "audio/mpeg", gotContentType, "PUT must carry the declared content type")
	assert.Equal(t, []byte("audio-bytes"), gotBody)
	assert.Equal(t, "note.mp3", issuer.lastName)
	assert.Equal(t, "audio/mpeg", issuer.lastMime)
}

func TestUploadCredentialFailure(t *testing.T) {
	issuer := &fakeIssuer{err: errors.New("boom")}
	p := NewPipeline(issuer, nil)

	require.NoError(t, p.SelectFile("note.wav", "audio/wav", strings.NewReader("x")))
	_, err := p.Upload(context.Background())
	require.Error(t, err)

	assert.Equal(t, StatusFailed, p.Status())
	assert.Nil(t, p.Reference())
	assert.False(t, p.Settled(), "failed upload blocks submission until retried or removed")
}

func TestUploadNon2xxIsFailureNotPartialSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	issuer := &fakeIssuer{uploadURL: srv.URL, key: "audio/k1"}
	p := NewPipeline(issuer, nil)

	require.NoError(t, p.SelectFile("note.wav", "audio/wav", strings.NewReader("x")))
	_, err := p.Upload(context.Background())
	assert.ErrorIs(t, err, ErrUploadRejected)
	assert.Equal(t, StatusFailed, p.Status())
	assert.Nil(t, p.Reference())
}

func TestUploadRetryAfterFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	issuer := &fakeIssuer{uploadURL: srv.URL, key: "audio/k2"}
	p := NewPipeline(issuer, nil)
	require.NoError(t, p.SelectFile("note.wav", "audio/wav", strings.NewReader("x")))

	_, err := p.Upload(context.Background())
	require.Error(t, err, "no automatic retry inside the pipeline")
	assert.Equal(t, 1, attempts)

	// The caller re-invokes the whole two-phase sequence.
	ref, err := p.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "audio/k2", ref.Key)
	assert.Equal(t, 2, issuer.calls, "retry re-requests the credential")
}

func TestUploadWithoutPending(t *testing.T) {
	p := NewPipeline(&fakeIssuer{}, nil)
	_, err := p.Upload(context.Background())
	assert.ErrorIs(t, err, ErrNothingToUpload)
}

func TestRemoveAudioClearsEverything(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	issuer := &fakeIssuer{uploadURL: srv.URL, key: "audio/k3"}
	p := NewPipeline(issuer, nil)
	require.NoError(t, p.SelectFile("note.wav", "audio/wav", strings.NewReader("x")))
	_, err := p.Upload(context.Background())
	require.NoError(t, err)

	p.RemoveAudio()
	assert.Nil(t, p.Reference())
	assert.Equal(t, StatusNotStarted, p.Status())
	assert.True(t, p.Settled())
}

func TestAttachExisting(t *testing.T) {
	p := NewPipeline(&fakeIssuer{}, nil)

	p.AttachExisting(StorageReference{Key: "audio/old", OriginalName: "old.wav"})
	assert.True(t, p.Existing())
	assert.True(t, p.Settled())
	require.NotNil(t, p.Reference())
	assert.Equal(t, "audio/old", p.Reference().Key)

	// Recording a replacement clears the existing marker.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	p2 := NewPipeline(&fakeIssuer{uploadURL: srv.URL, key: "audio/new"}, nil)
	p2.AttachExisting(StorageReference{Key: "audio/old", OriginalName: "old.wav"})
	require.NoError(t, p2.SelectFile("new.wav", "audio/wav", strings.NewReader("x")))
	_, err := p2.Upload(context.Background())
	require.NoError(t, err)
	assert.False(t, p2.Existing())
	assert.Equal(t, "audio/new", p2.Reference().Key)
}
