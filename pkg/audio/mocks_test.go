package audio

import (
	"context"
	"sync"
	"time"
)

// fakeHandle is a MediaHandle that records calls and lets tests drive
// lifecycle events the way a real media backend would.
type fakeHandle struct {
	mu      sync.Mutex
	playing bool
	ended   bool
	pos     time.Duration
	closed  bool
	pauses  int
	emit    func(Event)
}

func (h *fakeHandle) Play() error {
	h.mu.Lock()
	h.playing = true
	h.ended = false
	h.mu.Unlock()
	h.emit(Event{Type: EventPlaying})
	return nil
}

func (h *fakeHandle) Pause() {
	h.mu.Lock()
	was := h.playing
	h.playing = false
	h.pauses++
	h.mu.Unlock()
	if was {
		h.emit(Event{Type: EventPaused})
	}
}

func (h *fakeHandle) pauseCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pauses
}

func (h *fakeHandle) Seek(offset time.Duration) {
	h.mu.Lock()
	h.pos = offset
	h.mu.Unlock()
}

func (h *fakeHandle) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing
}

func (h *fakeHandle) Ended() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ended
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.playing = false
	return nil
}

func (h *fakeHandle) position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos
}

// ready simulates the backend signalling it can start playback.
func (h *fakeHandle) ready() {
	h.emit(Event{Type: EventCanPlay})
}

// finish simulates natural end of the track.
func (h *fakeHandle) finish() {
	h.mu.Lock()
	h.playing = false
	h.ended = true
	h.mu.Unlock()
	h.emit(Event{Type: EventEnded})
}

// fail simulates a backend error of the given kind.
func (h *fakeHandle) fail(kind ErrorKind) {
	h.mu.Lock()
	h.playing = false
	h.mu.Unlock()
	h.emit(Event{Type: EventError, Kind: kind})
}

// fakeOpener hands out fakeHandles keyed by URL.
type fakeOpener struct {
	mu      sync.Mutex
	handles map[string]*fakeHandle
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{handles: make(map[string]*fakeHandle)}
}

func (o *fakeOpener) Open(url string, onEvent func(Event)) (MediaHandle, error) {
	h := &fakeHandle{emit: onEvent}
	o.mu.Lock()
	o.handles[url] = h
	o.mu.Unlock()
	return h, nil
}

// eagerOpener mimics a backend with the media already buffered: the handle
// reports readiness synchronously, before Open returns.
type eagerOpener struct {
	*fakeOpener
}

func (o *eagerOpener) Open(url string, onEvent func(Event)) (MediaHandle, error) {
	h, err := o.fakeOpener.Open(url, onEvent)
	onEvent(Event{Type: EventCanPlay})
	return h, err
}

func (o *fakeOpener) handle(url string) *fakeHandle {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handles[url]
}

func (o *fakeOpener) opened() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.handles)
}

// fakeResolver returns one signed URL per owner and counts calls. A non-nil
// gate parks every call until the channel is closed, so tests can hold a
// resolution in flight.
type fakeResolver struct {
	mu       sync.Mutex
	urlFor   func(owner string) string
	failures int           // fail this many leading calls
	gate     chan struct{} // optional; block until closed
	calls    int
}

func (r *fakeResolver) ResolvePlaybackURL(_ context.Context, feedbackID string) (*PlaybackSource, error) {
	r.mu.Lock()
	r.calls++
	fail := false
	if r.failures > 0 {
		r.failures--
		fail = true
	}
	gate := r.gate
	r.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail {
		return nil, context.DeadlineExceeded
	}
	return &PlaybackSource{
		SignedURL:    r.urlFor(feedbackID),
		Key:          "audio/" + feedbackID,
		OriginalName: feedbackID + ".wav",
	}, nil
}

func (r *fakeResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
