// Package camera owns the single physical camera resource. An Engine runs
// the open/configure/capture/close state machine and feeds a bounded,
// latest-wins frame queue consumed by both snapshot and continuous
// streaming.
package camera

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// State is the capture session lifecycle position.
type State int

const (
	StateIdle State = iota
	StateOpening
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "idle"
	}
}

// FrameSize is one output format a device can produce.
type FrameSize struct {
	Width  int
	Height int
}

// Capabilities describes what one physical device supports. FrameSizes is
// ordered as reported by the device; the first entry is used to size the
// capture surface.
type Capabilities struct {
	Lens           Lens
	ExposureMin    int
	ExposureMax    int
	SharpnessTiers []SharpnessTier
	FrameSizes     []FrameSize
}

// Config is the device-level configuration derived from requested Params
// via the capability mapping.
type Config struct {
	ExposureSteps int
	Sharpness     SharpnessTier
}

// Device is one attachable camera.
type Device interface {
	Capabilities() Capabilities
	// Open allocates the capture session. Implementations must honor ctx
	// cancellation; the engine bounds the open with a timeout.
	Open(ctx context.Context, cfg Config) (Session, error)
}

// Session is an open capture pipeline.
type Session interface {
	// Capture blocks until the next completed frame is available and
	// returns it encoded as JPEG.
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// ErrNoDevice is returned when no camera can be opened.
var ErrNoDevice = errors.New("no camera device available")

const defaultOpenTimeout = 1500 * time.Millisecond

// Engine is the process-wide capture state machine. Concurrent callers
// share one session; starting with different parameters while a session is
// open triggers a full teardown and reopen, which callers must treat as
// expected.
type Engine struct {
	mu      sync.Mutex
	devices []Device

	state  State
	params Params
	sess   Session
	queue  *FrameQueue
	cancel context.CancelFunc
	done   chan struct{}

	openTimeout time.Duration
}

// NewEngine creates an Engine over the attachable devices.
func NewEngine(devices ...Device) *Engine {
	return &Engine{
		devices:     devices,
		state:       StateIdle,
		openTimeout: defaultOpenTimeout,
	}
}

// State returns the current lifecycle position.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start opens a capture session for the given parameters. If a session is
// already ready with identical parameters this is a no-op; otherwise any
// existing session is fully torn down first.
func (e *Engine) Start(ctx context.Context, p Params) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		if e.state == StateReady && e.params == p {
			return nil
		}
		if e.sess == nil && e.done == nil {
			break
		}
		e.teardownLocked()
		// teardownLocked may have released the lock while waiting for the
		// old capture loop; re-check in case another Start installed a
		// session in the meantime.
	}
	e.state = StateOpening

	dev := e.pickDevice(p.Lens)
	if dev == nil {
		e.state = StateClosed
		return ErrNoDevice
	}

	caps := dev.Capabilities()
	cfg := Config{
		ExposureSteps: MapExposure(p.ExposureBias, caps.ExposureMin, caps.ExposureMax),
		Sharpness:     MapSharpness(p.Sharpness, caps.SharpnessTiers),
	}

	openCtx, cancel := context.WithTimeout(ctx, e.openTimeout)
	sess, err := dev.Open(openCtx, cfg)
	cancel()
	if err != nil {
		e.state = StateClosed
		return err
	}

	loopCtx, loopCancel := context.WithCancel(context.Background())
	e.sess = sess
	e.params = p
	e.queue = NewFrameQueue()
	e.cancel = loopCancel
	e.done = make(chan struct{})
	e.state = StateReady

	go e.captureLoop(loopCtx, sess, e.queue, e.done)

	slog.Info("camera session opened",
		"lens", caps.Lens, "exposure_steps", cfg.ExposureSteps, "sharpness", cfg.Sharpness)
	return nil
}

// pickDevice matches the requested lens, falling back to the other lens,
// then to any available device.
func (e *Engine) pickDevice(lens Lens) Device {
	for _, want := range []Lens{lens, lens.Other()} {
		for _, d := range e.devices {
			if d.Capabilities().Lens == want {
				return d
			}
		}
	}
	if len(e.devices) > 0 {
		return e.devices[0]
	}
	return nil
}

// captureLoop is the dedicated capture-owning task: it requests one frame
// at a time and immediately re-issues the next request. Kept as an explicit
// loop so stack usage stays bounded and cancellation is one context away.
func (e *Engine) captureLoop(ctx context.Context, sess Session, queue *FrameQueue, done chan struct{}) {
	defer close(done)

	for {
		frame, err := sess.Capture(ctx)
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("capture failed, closing session", "err", err)
				e.closeOnFailure(sess)
			}
			return
		}
		queue.Push(frame)
	}
}

// closeOnFailure transitions to Closed after an in-loop capture error,
// unless a newer session has already replaced this one.
func (e *Engine) closeOnFailure(sess Session) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess != sess {
		return
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	_ = sess.Close()
	e.sess = nil
	e.queue = nil
	e.state = StateClosed
}

// NextFrame blocks until the next frame arrives or the timeout elapses.
// Returns false when no session is ready or nothing arrived in time.
func (e *Engine) NextFrame(timeout time.Duration) ([]byte, bool) {
	e.mu.Lock()
	queue := e.queue
	e.mu.Unlock()

	if queue == nil {
		return nil, false
	}
	return queue.Next(timeout)
}

// Stop releases the capture session and its resources. Safe to call when
// already idle.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.sess != nil || e.done != nil {
		e.teardownLocked()
	}
	e.state = StateIdle
}

// teardownLocked destroys the current session and waits for its capture
// loop to exit. Waiting releases e.mu, so the session fields are cleared
// and the state moved out of Ready first; callers must re-check the fields
// after it returns, since a concurrent Start may have installed a fresh
// session during the wait.
func (e *Engine) teardownLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.sess != nil {
		_ = e.sess.Close()
		e.sess = nil
	}
	e.queue = nil

	done := e.done
	if done == nil {
		return
	}
	e.done = nil
	e.state = StateClosed

	// The loop may be blocked inside Capture; closing the session above
	// unblocks it. The lock is released while waiting so the loop's own
	// failure path can take it if a capture error beat the cancel.
	e.mu.Unlock()
	<-done
	e.mu.Lock()
}
