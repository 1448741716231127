package capture

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
	"github.com/Nephrolytics-ai/chartscribe/pkg/utils"
)

// State is the recording lifecycle: idle → recording ⇄ paused → (stop) → idle.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// The canonical encoding every finalized artifact carries.
const (
	artifactMIMEType = "audio/wav"
	artifactFileName = "recording.wav"
)

// Engine drives one microphone recording session at a time. Invalid
// transitions are no-ops rather than errors: this is a control surface for
// UI buttons, and a stray click must not break the session.
type Engine struct {
	device Device

	mu        sync.Mutex
	state     State
	session   Session
	accrued   time.Duration
	segmentAt time.Time
	collected chan [][]byte

	now func() time.Time
}

func NewEngine(device Device) *Engine {
	return &Engine{device: device, now: time.Now}
}

// Start acquires the microphone and begins accruing duration. Starting while
// a session is active is a no-op. A device failure surfaces as
// model.ErrDeviceUnavailable and leaves the engine idle.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle {
		return nil
	}

	session, err := e.device.Acquire(ctx)
	if err != nil {
		return utils.WrapIfNotNil(fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, err))
	}

	e.state = StateRecording
	e.session = session
	e.accrued = 0
	e.segmentAt = e.now()
	e.collected = make(chan [][]byte, 1)

	go collect(session, e.collected)
	return nil
}

// collect buffers chunks until the session's channel closes, then hands the
// batch to the stop path. The chunks belong to this session alone.
func collect(session Session, done chan<- [][]byte) {
	var chunks [][]byte
	for chunk := range session.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		buf := make([]byte, len(chunk))
		copy(buf, chunk)
		chunks = append(chunks, buf)
	}
	done <- chunks
}

// Pause freezes duration accrual. No-op unless recording.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRecording {
		return
	}
	e.accrued += e.now().Sub(e.segmentAt)
	e.state = StatePaused
	_ = e.session.Pause()
}

// Resume restarts duration accrual. No-op unless paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePaused {
		return
	}
	e.segmentAt = e.now()
	e.state = StateRecording
	_ = e.session.Resume()
}

// Stop finalizes all buffered chunks into a single artifact, releases the
// device, and resets the engine to idle with zero duration. The artifact is
// emitted exactly once per session; calling Stop while idle returns
// (nil, nil).
func (e *Engine) Stop() (*model.AudioArtifact, error) {
	e.mu.Lock()
	if e.state != StateRecording && e.state != StatePaused {
		e.mu.Unlock()
		return nil, nil
	}
	session := e.session
	collected := e.collected
	// Reset while still holding the lock so an overlapping Stop takes the
	// no-op path instead of finalizing the same session again.
	e.state = StateIdle
	e.session = nil
	e.collected = nil
	e.accrued = 0
	e.mu.Unlock()

	closeErr := session.Close()
	data := bytes.Join(<-collected, nil)

	artifact := &model.AudioArtifact{
		Data:     data,
		MIMEType: artifactMIMEType,
		FileName: artifactFileName,
	}
	if closeErr != nil {
		return artifact, utils.WrapIfNotNil(closeErr)
	}
	return artifact, nil
}

// State reports the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Duration reports elapsed recording time in whole seconds, counting only
// time spent in the recording state.
func (e *Engine) Duration() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := e.accrued
	if e.state == StateRecording {
		total += e.now().Sub(e.segmentAt)
	}
	return int(total / time.Second)
}
