package importer

import (
	"math"
	"sync"
	"sync/atomic"
)

// Progress is the shared state polled by the caller while an import runs on
// its worker goroutine. The fraction and running flag are atomics; the
// status message sits behind a mutex held only for single assignments, so
// the poller is never blocked on import work.
type Progress struct {
	fractionBits atomic.Uint64
	running      atomic.Bool

	mu      sync.Mutex
	message string
}

// Fraction returns the completed share of the import in [0.0, 1.0].
func (p *Progress) Fraction() float64 {
	return math.Float64frombits(p.fractionBits.Load())
}

func (p *Progress) setFraction(f float64) {
	p.fractionBits.Store(math.Float64bits(f))
}

// Running reports whether an import is in flight.
func (p *Progress) Running() bool {
	return p.running.Load()
}

func (p *Progress) setRunning(v bool) {
	p.running.Store(v)
}

// Message returns the current human-readable status line.
func (p *Progress) Message() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.message
}

func (p *Progress) setMessage(msg string) {
	p.mu.Lock()
	p.message = msg
	p.mu.Unlock()
}
