// Package uploader stages a captured or selected audio file and promotes it
// into object storage through a two-phase presigned upload: request a write
// credential, then PUT the bytes directly to storage. Only the resulting
// StorageReference may be attached to a feedback record.
package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Status of the pending upload.
type Status int

const (
	StatusNotStarted Status = iota
	StatusRequestingCredential
	StatusUploading
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not-started"
	case StatusRequestingCredential:
		return "requesting-credential"
	case StatusUploading:
		return "uploading"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// StorageReference is the durable result of a successful upload.
// Immutable once created.
type StorageReference struct {
	Key          string `json:"key"`
	OriginalName string `json:"originalName"`
}

// Credential is a presigned write grant issued by the feedback service.
type Credential struct {
	UploadURL string
	Key       string
}

// CredentialIssuer obtains presigned upload credentials, keyed by filename
// and MIME type.
type CredentialIssuer interface {
	RequestUploadCredential(ctx context.Context, fileName, mimeType string) (*Credential, error)
}

var (
	// ErrNotAudio rejects non-audio file selections.
	ErrNotAudio = errors.New("uploader: only audio files are accepted")
	// ErrNothingToUpload means no capture or selection is staged.
	ErrNothingToUpload = errors.New("uploader: no pending audio")
	// ErrUploadInFlight means a two-phase upload is already running.
	ErrUploadInFlight = errors.New("uploader: upload already in progress")
	// ErrUploadRejected means storage answered the PUT with a non-2xx
	// status. The whole two-phase sequence may be re-invoked.
	ErrUploadRejected = errors.New("uploader: storage rejected the upload")
)

// pending is a staged audio blob awaiting promotion to durable storage.
type pending struct {
	name string
	mime string
	data []byte
}

// Pipeline stages one audio attachment for a feedback form.
type Pipeline struct {
	issuer CredentialIssuer
	client *http.Client

	mu       sync.Mutex
	status   Status
	pend     *pending
	ref      *StorageReference
	existing bool // reference carried over from an edited record; not previewable
}

// NewPipeline creates a pipeline. A nil client falls back to
// http.DefaultClient.
func NewPipeline(issuer CredentialIssuer, client *http.Client) *Pipeline {
	if client == nil {
		client = http.DefaultClient
	}
	return &Pipeline{issuer: issuer, client: client}
}

// SelectFile stages a user-chosen file. Non-audio MIME types are rejected
// with no state change. A previous reference or staged blob is replaced.
func (p *Pipeline) SelectFile(name, mimeType string, r io.Reader) error {
	if !strings.HasPrefix(strings.ToLower(mimeType), "audio/") {
		return ErrNotAudio
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusRequestingCredential || p.status == StatusUploading {
		return ErrUploadInFlight
	}
	p.pend = &pending{name: name, mime: mimeType, data: data}
	p.ref = nil
	p.existing = false
	p.status = StatusNotStarted
	return nil
}

// AttachExisting installs a reference that is already stored, as happens
// when editing a record with a previously uploaded audio note. It is
// carried through unchanged unless explicitly replaced or removed.
func (p *Pipeline) AttachExisting(ref StorageReference) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pend = nil
	p.ref = &ref
	p.existing = true
	p.status = StatusSucceeded
}

// Existing reports whether the current reference predates this session.
func (p *Pipeline) Existing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.existing
}

// Upload runs the two-phase sequence for the staged blob: request a write
// credential, then PUT the bytes with the declared Content-Type. There is
// no automatic retry; on failure the blob stays staged and the caller may
// invoke Upload again.
func (p *Pipeline) Upload(ctx context.Context) (*StorageReference, error) {
	p.mu.Lock()
	if p.status == StatusRequestingCredential || p.status == StatusUploading {
		p.mu.Unlock()
		return nil, ErrUploadInFlight
	}
	if p.pend == nil {
		p.mu.Unlock()
		return nil, ErrNothingToUpload
	}
	pend := p.pend
	p.status = StatusRequestingCredential
	p.mu.Unlock()

	cred, err := p.issuer.RequestUploadCredential(ctx, pend.name, pend.mime)
	if err != nil {
		p.setStatus(StatusFailed)
		return nil, err
	}

	p.setStatus(StatusUploading)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, cred.UploadURL, bytes.NewReader(pend.data))
	if err != nil {
		p.setStatus(StatusFailed)
		return nil, err
	}
	req.Header.Set("Content-Type", pend.mime)
	req.ContentLength = int64(len(pend.data))

	resp, err := p.client.Do(req)
	if err != nil {
		p.setStatus(StatusFailed)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.setStatus(StatusFailed)
		return nil, fmt.Errorf("%w: status %d", ErrUploadRejected, resp.StatusCode)
	}

	ref := &StorageReference{Key: cred.Key, OriginalName: pend.name}

	p.mu.Lock()
	p.ref = ref
	p.pend = nil
	p.existing = false
	p.status = StatusSucceeded
	p.mu.Unlock()

	return ref, nil
}

// RemoveAudio discards the staged blob and any reference.
func (p *Pipeline) RemoveAudio() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pend = nil
	p.ref = nil
	p.existing = false
	p.status = StatusNotStarted
}

// Status returns the pipeline's upload status.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Reference returns the resolved storage reference, or nil.
func (p *Pipeline) Reference() *StorageReference {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ref
}

// InFlight reports whether a two-phase upload is currently running.
func (p *Pipeline) InFlight() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status == StatusRequestingCredential || p.status == StatusUploading
}

// Settled reports whether the pipeline is in a state that permits form
// submission: either no audio at all, or a fully-resolved reference. A
// staged blob that has not (or not successfully) been uploaded blocks
// submission until uploaded, retried or removed.
func (p *Pipeline) Settled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusSucceeded {
		return true
	}
	return p.status == StatusNotStarted && p.pend == nil
}

func (p *Pipeline) setStatus(s Status) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}
