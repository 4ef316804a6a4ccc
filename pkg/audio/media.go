// Package audio coordinates audio playback across many list rows.
//
// Each feedback row owns a Controller driving a small state machine over an
// opaque MediaHandle, while a shared SessionRegistry guarantees that at most
// one handle in the process is audible at a time. Signed playback URLs are
// resolved lazily through a SourceResolver and pre-checked for expiry before
// any media backend is constructed.
package audio

import (
	"context"
	"time"
)

// MediaHandle is an opaque playable object produced by a MediaOpener.
// Implementations wrap whatever media backend actually emits sound.
type MediaHandle interface {
	Play() error
	Pause()
	// Seek moves the playback position. Seek(0) rewinds to the start.
	Seek(offset time.Duration)
	Playing() bool
	Ended() bool
	Close() error
}

// EventType tags a media lifecycle callback.
type EventType int

const (
	EventLoadStarted EventType = iota
	EventCanPlay
	EventPlaying
	EventPaused
	EventEnded
	EventStalled
	EventError
)

// Event is a tagged media lifecycle notification delivered by a handle.
// Kind is meaningful only for EventError.
type Event struct {
	Type EventType
	Kind ErrorKind
}

// MediaOpener constructs a MediaHandle for a playback URL. Lifecycle events
// of the returned handle are delivered through onEvent.
type MediaOpener interface {
	Open(url string, onEvent func(Event)) (MediaHandle, error)
}

// PlaybackSource is a resolved, time-limited playback location.
type PlaybackSource struct {
	SignedURL    string
	Key          string
	OriginalName string
}

// SourceResolver obtains a fresh signed playback URL for a feedback record.
type SourceResolver interface {
	ResolvePlaybackURL(ctx context.Context, feedbackID string) (*PlaybackSource, error)
}
