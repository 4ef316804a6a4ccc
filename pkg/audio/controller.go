package audio

import (
	"context"
	"sync"
	"time"

	"fieldops/sales-crm/pkg/signedurl"
)

// Controller drives playback for one feedback row.
//
// It lazily resolves a signed playback URL, wires media lifecycle events
// into the transition function, and cooperates with the shared
// SessionRegistry so at most one row is ever audible. A sticky manual-pause
// flag records a deliberate user pause and suppresses any later automatic
// resume of this row until the user explicitly plays again.
type Controller struct {
	ownerID   string
	registry  SessionRegistry
	resolver  SourceResolver
	opener    MediaOpener
	isExpired func(rawURL string, now time.Time) bool
	now       func() time.Time

	mu          sync.Mutex
	state       State
	errKind     ErrorKind
	source      *PlaybackSource
	handle      MediaHandle
	manualPause bool
	resolveSeq  int
}

// Option configures a Controller.
type Option func(*Controller)

// WithExpiryCheck replaces the signed-URL expiry pre-check. The default
// understands SigV4-style signature parameters via pkg/signedurl.
func WithExpiryCheck(fn func(rawURL string, now time.Time) bool) Option {
	return func(c *Controller) { c.isExpired = fn }
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a controller for the feedback record identified by
// ownerID. All collaborators are injected; the registry is typically shared
// across every row of a list.
func NewController(ownerID string, registry SessionRegistry, resolver SourceResolver, opener MediaOpener, opts ...Option) *Controller {
	c := &Controller{
		ownerID:   ownerID,
		registry:  registry,
		resolver:  resolver,
		opener:    opener,
		isExpired: signedurl.IsExpired,
		now:       time.Now,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OwnerID returns the feedback record this controller plays audio for.
func (c *Controller) OwnerID() string { return c.ownerID }

// State returns the controller's current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ErrKind returns the classification of the last playback error.
func (c *Controller) ErrKind() ErrorKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errKind
}

// Snapshot is the reconciled view a UI row renders from.
type Snapshot struct {
	State     State
	ErrorKind ErrorKind
	Playing   bool
}

// Snapshot reconciles local state with the registry. A sticky manual pause
// always wins over a stale "still playing" answer from the registry.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	state, kind, manual := c.state, c.errKind, c.manualPause
	c.mu.Unlock()

	// The registry is queried outside the controller lock: eviction takes
	// the registry lock first and re-enters controllers through handle
	// callbacks.
	playing := c.registry.IsPlaying(c.ownerID)
	if manual {
		playing = false
	}
	return Snapshot{State: state, ErrorKind: kind, Playing: playing}
}

// TogglePlayPause is the single user-facing affordance of a row.
//
// From Idle (or a recoverable error) it triggers URL resolution and returns;
// playback starts asynchronously once the handle is ready, unless a manual
// pause intervened. From Playing it performs a manual pause: stop, rewind,
// evict from the registry, and set the sticky flag. From Paused/Ended/Ready
// it resumes, clearing the flag and becoming the registry's current holder.
func (c *Controller) TogglePlayPause(ctx context.Context) {
	c.mu.Lock()

	switch c.state {
	case StatePlaying:
		c.manualPause = true
		c.state = StatePaused
		h := c.handle
		c.mu.Unlock()
		if h != nil {
			h.Pause()
			h.Seek(0)
		}
		c.registry.StopCurrent()
		return

	case StateIdle:
		c.beginResolveLocked(ctx)
		c.mu.Unlock()
		return

	case StateErrored:
		if c.errKind.Recoverable() {
			c.beginResolveLocked(ctx)
		}
		c.mu.Unlock()
		return

	case StateLoading:
		// Resolution already in flight.
		c.mu.Unlock()
		return

	case StateReady, StatePaused, StateEnded:
		if c.source == nil || c.handle == nil {
			c.beginResolveLocked(ctx)
			c.mu.Unlock()
			return
		}
		if c.isExpired(c.source.SignedURL, c.now()) {
			// Cached URL went stale while paused.
			c.beginResolveLocked(ctx)
			c.mu.Unlock()
			return
		}
		c.manualPause = false
		rewind := c.state == StateEnded
		h := c.handle
		c.mu.Unlock()

		if rewind {
			h.Seek(0)
		}
		c.registry.SetCurrent(h, c.ownerID)
		if err := h.Play(); err != nil {
			c.fail(ErrorUnknown)
		}
		return
	}

	c.mu.Unlock()
}

// beginResolveLocked starts an asynchronous URL resolution. The sequence
// counter implicitly cancels superseded attempts: their results are dropped
// on arrival. Callers must hold c.mu.
func (c *Controller) beginResolveLocked(ctx context.Context) {
	c.resolveSeq++
	seq := c.resolveSeq
	c.state = StateLoading
	c.errKind = ErrorNone
	go c.resolve(ctx, seq)
}

func (c *Controller) resolve(ctx context.Context, seq int) {
	src, err := c.resolver.ResolvePlaybackURL(ctx, c.ownerID)

	c.mu.Lock()
	if seq != c.resolveSeq || c.state != StateLoading {
		// Superseded or the row moved on; ignore the result.
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.state = StateErrored
		c.errKind = ErrorNetworkOrExpired
		c.mu.Unlock()
		return
	}
	if c.isExpired(src.SignedURL, c.now()) {
		// Dead on arrival: never construct a media handle for it.
		c.state = StateErrored
		c.errKind = ErrorNetworkOrExpired
		c.source = nil
		c.mu.Unlock()
		return
	}

	// Open outside the lock: handles may deliver events re-entrantly.
	c.mu.Unlock()
	handle, err := c.opener.Open(src.SignedURL, c.handleEvent)
	c.mu.Lock()

	if seq != c.resolveSeq {
		c.mu.Unlock()
		if handle != nil {
			_ = handle.Close()
		}
		return
	}
	if err != nil {
		c.state = StateErrored
		c.errKind = ErrorUnsupported
		c.mu.Unlock()
		return
	}

	old := c.handle
	c.source = src
	c.handle = handle
	// A handle may report readiness synchronously inside Open, before it is
	// installed here; that transition already moved us to Ready but had no
	// handle to autoplay. Catch up now.
	missedReady := c.state == StateReady && !c.manualPause
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	if missedReady {
		c.registry.SetCurrent(handle, c.ownerID)
		if err := handle.Play(); err != nil {
			c.fail(ErrorUnknown)
		}
	}
	// Otherwise remains in Loading until the handle reports readiness.
}

// handleEvent feeds one media lifecycle event through the transition
// function and executes the resulting side effect.
func (c *Controller) handleEvent(ev Event) {
	c.mu.Lock()
	if ev.Type == EventError {
		kind := ev.Kind
		if kind == ErrorNone {
			kind = ErrorUnknown
		}
		c.errKind = kind
	}
	next, act := transition(c.state, c.manualPause, ev)
	c.state = next
	h := c.handle
	c.mu.Unlock()

	switch act {
	case actionAutoplay:
		if h == nil {
			return
		}
		c.registry.SetCurrent(h, c.ownerID)
		if err := h.Play(); err != nil {
			c.fail(ErrorUnknown)
		}
	case actionStop:
		if h != nil {
			h.Pause()
			h.Seek(0)
		}
	}
}

func (c *Controller) fail(kind ErrorKind) {
	c.mu.Lock()
	c.state = StateErrored
	c.errKind = kind
	c.mu.Unlock()
}

// Close releases the media handle and vacates the registry slot if this
// controller holds it, playing or paused. Used when the owning row unmounts.
func (c *Controller) Close() error {
	c.mu.Lock()
	h := c.handle
	c.handle = nil
	c.source = nil
	c.resolveSeq++ // drop any in-flight resolution
	c.state = StateIdle
	c.manualPause = false
	c.mu.Unlock()

	// Unconditional: a paused owner still occupies the slot, and leaving a
	// closed handle there would let a later eviction touch it.
	c.registry.Release(c.ownerID)
	if h != nil {
		return h.Close()
	}
	return nil
}
