package shell

import "errors"

// CaptureKind identifies the active exclusive input capture.
type CaptureKind uint8

const (
	CaptureNone CaptureKind = iota
	// CapturePuzzle routes lines to an app callback and shows the app's prompt.
	CapturePuzzle
	// CapturePassthrough routes lines verbatim to a remote party that owns
	// the prompt.
	CapturePassthrough
)

func (k CaptureKind) String() string {
	switch k {
	case CaptureNone:
		return "none"
	case CapturePuzzle:
		return "puzzle"
	case CapturePassthrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// CaptureFunc receives every submitted line while its capture is active.
type CaptureFunc func(line string)

var errInvalidCapture = errors.New("invalid capture")

type capture struct {
	kind   CaptureKind
	fn     CaptureFunc
	stage  int
	prompt string
}

// EnterPuzzle installs fn for every submitted line until the stage drops to 0
// or ExitCapture is called. stage must be positive.
func (s *Session) EnterPuzzle(stage int, prompt string, fn CaptureFunc) error {
	if stage <= 0 || fn == nil {
		return errInvalidCapture
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture.kind != CaptureNone {
		return ErrCaptureBusy
	}
	s.capture = capture{kind: CapturePuzzle, fn: fn, stage: stage, prompt: prompt}
	return nil
}

// SetStage updates the puzzle stage. 0 exits the puzzle.
func (s *Session) SetStage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture.kind != CapturePuzzle {
		return
	}
	if n <= 0 {
		s.capture = capture{}
		return
	}
	s.capture.stage = n
}

// Stage returns the puzzle stage, or 0 when no puzzle is active.
func (s *Session) Stage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture.kind != CapturePuzzle {
		return 0
	}
	return s.capture.stage
}

// SetCapturePrompt replaces the prompt of an active puzzle.
func (s *Session) SetCapturePrompt(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture.kind == CapturePuzzle {
		s.capture.prompt = prompt
	}
}

// EnterPassthrough forwards every submitted line to fn and suppresses the
// shell prompt until ExitCapture.
func (s *Session) EnterPassthrough(fn CaptureFunc) error {
	if fn == nil {
		return errInvalidCapture
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture.kind != CaptureNone {
		return ErrCaptureBusy
	}
	s.capture = capture{kind: CapturePassthrough, fn: fn}
	return nil
}

// ExitCapture clears any capture. It is a no-op when none is active.
func (s *Session) ExitCapture() {
	s.mu.Lock()
	s.capture = capture{}
	s.mu.Unlock()
}

// Capture returns the active capture kind.
func (s *Session) Capture() CaptureKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capture.kind
}

func (s *Session) activeCapture() capture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capture
}

// ReleaseCapture ends the active capture from any goroutine. The shell
// goroutine clears it and redraws the prompt with the pending edit buffer.
// It reports false when the session has ended.
func (s *Session) ReleaseCapture() bool {
	return s.Schedule(func() {
		if s.Capture() == CaptureNone {
			return
		}
		s.ExitCapture()
		if s.redraw != nil {
			s.redraw()
		}
	})
}
