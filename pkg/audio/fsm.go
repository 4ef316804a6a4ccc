package audio

// State of a playback controller.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StatePlaying
	StatePaused
	StateEnded
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// ErrorKind classifies a playback failure for the UI.
// Only ErrorNetworkOrExpired is recoverable by re-resolving the URL.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorUnsupported
	ErrorDecode
	ErrorNetworkOrExpired
	ErrorUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorUnsupported:
		return "unsupported"
	case ErrorDecode:
		return "decode"
	case ErrorNetworkOrExpired:
		return "network-or-expired"
	}
	return "unknown"
}

// Recoverable reports whether re-resolving the playback URL can clear the
// error.
func (k ErrorKind) Recoverable() bool {
	return k == ErrorNetworkOrExpired
}

// action is a side effect the controller must perform after a transition.
type action int

const (
	actionNone action = iota
	// actionAutoplay starts playback of the freshly readied handle.
	actionAutoplay
	// actionStop pauses and rewinds the handle. Emitted when a stray
	// playing notification arrives under a sticky manual pause.
	actionStop
)

// transition maps one tagged media event onto the next controller state and
// a side effect. It is pure: the manual-pause guard is an input, never
// consulted from ambient state, so the pause-vs-late-autoplay race is
// decided here and nowhere else.
func transition(s State, manualPause bool, ev Event) (State, action) {
	switch ev.Type {
	case EventLoadStarted:
		if s == StatePlaying || s == StateEnded {
			return s, actionNone
		}
		return StateLoading, actionNone

	case EventCanPlay:
		if s != StateLoading && s != StateReady {
			return s, actionNone
		}
		if manualPause {
			// Delayed readiness after the user already paused: hold in
			// Ready, skip the one-shot autoplay.
			return StateReady, actionNone
		}
		return StateReady, actionAutoplay

	case EventPlaying:
		if manualPause {
			return s, actionStop
		}
		return StatePlaying, actionNone

	case EventPaused:
		switch s {
		case StatePlaying, StateLoading, StateReady:
			return StatePaused, actionNone
		}
		return s, actionNone

	case EventEnded:
		return StateEnded, actionNone

	case EventStalled:
		if s == StatePlaying {
			return StateLoading, actionNone
		}
		return s, actionNone

	case EventError:
		return StateErrored, actionNone
	}
	return s, actionNone
}
