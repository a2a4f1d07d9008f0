// Package coretest provides in-memory SignalConnection doubles for tests.
package coretest

import (
	"sync"

	"github.com/dkeye/Relay/internal/core"
)

// Recorder keeps every frame it is handed.
type Recorder struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) TrySend(f core.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return core.ErrClosed
	}
	if r.full {
		return core.ErrBackpressure
	}
	r.frames = append(r.frames, append(core.Frame(nil), f...))
	return nil
}

func (r *Recorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// SetFull makes subsequent sends fail with backpressure.
func (r *Recorder) SetFull(full bool) {
	r.mu.Lock()
	r.full = full
	r.mu.Unlock()
}

func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Recorder) Frames() []core.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Frame(nil), r.frames...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}
