package audio

import "sync"

// SessionRegistry is the process-wide authority over which audio handle is
// current. It guarantees mutual exclusion of playback: installing a new
// current handle stops the previous one. The registry holds identity only
// and never owns a handle's lifecycle.
type SessionRegistry interface {
	// SetCurrent installs handle as the single current one, stopping a
	// differing previous holder (pause + rewind) first.
	SetCurrent(handle MediaHandle, ownerID string)

	// StopCurrent stops the current handle and clears the slot.
	// Calling it with an empty slot is a no-op.
	StopCurrent()

	// Release clears the slot if ownerID holds it, playing or not, without
	// touching the handle. Other owners' slots are left alone.
	Release(ownerID string)

	// IsPlaying reports whether the current slot belongs to ownerID and the
	// underlying handle is audibly playing.
	IsPlaying(ownerID string) bool
}

// sessionRegistry is the in-memory single-slot implementation.
type sessionRegistry struct {
	mu      sync.Mutex
	handle  MediaHandle
	ownerID string
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() SessionRegistry {
	return &sessionRegistry{}
}

func (r *sessionRegistry) SetCurrent(handle MediaHandle, ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.handle != nil && r.handle != handle {
		r.handle.Pause()
		r.handle.Seek(0)
	}
	r.handle = handle
	r.ownerID = ownerID
}

func (r *sessionRegistry) StopCurrent() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.handle == nil {
		return
	}
	r.handle.Pause()
	r.handle.Seek(0)
	r.handle = nil
	r.ownerID = ""
}

func (r *sessionRegistry) Release(ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ownerID != ownerID {
		return
	}
	// Identity only: the departing owner disposes of its own handle, which
	// may already be closed.
	r.handle = nil
	r.ownerID = ""
}

func (r *sessionRegistry) IsPlaying(ownerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.handle == nil || r.ownerID != ownerID {
		return false
	}
	return r.handle.Playing() && !r.handle.Ended()
}
