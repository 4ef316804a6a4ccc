package uploader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

// Captured recordings always use this fixed container and type.
const (
	RecordingFileName = "recording.wav"
	RecordingMIMEType = "audio/wav"
)

var (
	// ErrPermissionDenied is returned by capture sources when microphone
	// access is refused.
	ErrPermissionDenied = errors.New("uploader: microphone permission denied")
	// ErrNotRecording means Stop was called without a running capture.
	ErrNotRecording = errors.New("uploader: not recording")
	// ErrAlreadyRecording means Start was called twice.
	ErrAlreadyRecording = errors.New("uploader: recording already in progress")
)

// CaptureSource abstracts a microphone. Start returns a stream of encoded
// audio bytes that ends when the stream is closed.
type CaptureSource interface {
	Start(ctx context.Context) (io.ReadCloser, error)
}

// Recorder captures microphone audio and, on stop, immediately promotes the
// capture through the upload pipeline. Recording and upload are one user
// step; stopping mid-capture uploads the partial capture rather than
// discarding it.
type Recorder struct {
	source CaptureSource
	pipe   *Pipeline

	mu     sync.Mutex
	stream io.ReadCloser
	buf    *bytes.Buffer
	done   chan struct{}
}

// NewRecorder creates a recorder feeding the given pipeline.
func NewRecorder(source CaptureSource, pipe *Pipeline) *Recorder {
	return &Recorder{source: source, pipe: pipe}
}

// Recording reports whether a capture is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream != nil
}

// StartRecording acquires the capture source and begins buffering audio.
func (r *Recorder) StartRecording(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream != nil {
		return ErrAlreadyRecording
	}

	stream, err := r.source.Start(ctx)
	if err != nil {
		return err
	}

	buf := &bytes.Buffer{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = io.Copy(buf, stream)
	}()

	r.stream = stream
	r.buf = buf
	r.done = done
	return nil
}

// StopRecording ends the capture, materializes the buffered bytes as a
// fixed-name audio blob, and immediately uploads it through the pipeline.
//
// If staging fails (say the pipeline is busy with another upload), the
// capture is retained and a later StopRecording retries the promotion with
// the same bytes rather than losing the audio.
func (r *Recorder) StopRecording(ctx context.Context) (*StorageReference, error) {
	r.mu.Lock()
	stream, buf, done := r.stream, r.buf, r.done
	r.stream, r.done = nil, nil
	r.mu.Unlock()

	if stream == nil {
		if buf == nil {
			return nil, ErrNotRecording
		}
		// Retained capture from a stop whose staging failed; retry.
	} else {
		_ = stream.Close()
		<-done // wait for the copier to drain the stream
	}

	if err := r.pipe.SelectFile(RecordingFileName, RecordingMIMEType, bytes.NewReader(buf.Bytes())); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.buf == buf {
		r.buf = nil
	}
	r.mu.Unlock()
	return r.pipe.Upload(ctx)
}
