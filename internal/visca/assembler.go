package visca

import (
	"errors"
	"time"
)

// FrameCapacity is the largest reply frame accepted, terminator included.
const FrameCapacity = 17

// ErrFrameOverflow is returned by Feed when a reply grows past
// FrameCapacity without a terminator. The partial frame is dropped.
var ErrFrameOverflow = errors.New("visca: reply frame exceeds buffer capacity")

// AssemblerState is the framing state of the inbound byte stream.
type AssemblerState int

const (
	// Idle waits for ReplyAddress.
	Idle AssemblerState = iota
	// Receiving accumulates bytes until Terminator.
	Receiving
)

func (s AssemblerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Receiving:
		return "receiving"
	default:
		return "unknown"
	}
}

// Assembler reassembles reply frames from the shared serial bus. It is not
// safe for concurrent use; feed it from a single goroutine.
type Assembler struct {
	state AssemblerState
	buf   [FrameCapacity]byte
	n     int

	timeout  time.Duration
	lastByte time.Time
	now      func() time.Time

	onFrame func(Frame)

	overflows int
	expired   int
	resyncs   int
}

// NewAssembler returns an Idle assembler. onFrame, if not nil, receives
// every frame completed through Write. A zero timeout disables Expire.
func NewAssembler(onFrame func(Frame), timeout time.Duration) *Assembler {
	return &Assembler{
		onFrame: onFrame,
		timeout: timeout,
		now:     time.Now,
	}
}

// State returns the current framing state.
func (a *Assembler) State() AssemblerState { return a.state }

// Buffered returns the number of bytes held for the frame in progress.
func (a *Assembler) Buffered() int { return a.n }

// Feed pushes one byte through the state machine and returns the completed
// frame, if this byte finished one. The returned frame is a copy.
func (a *Assembler) Feed(b byte) (Frame, error) {
	if b == ReplyAddress {
		if a.state == Receiving {
			// a new start marker abandons the partial frame
			a.resyncs++
		}
		a.state = Receiving
		a.buf[0] = b
		a.n = 1
		a.lastByte = a.now()
		return nil, nil
	}

	if a.state == Idle {
		return nil, nil
	}

	if a.n == FrameCapacity {
		a.reset()
		a.overflows++
		return nil, ErrFrameOverflow
	}

	a.buf[a.n] = b
	a.n++
	a.lastByte = a.now()

	if b != Terminator {
		return nil, nil
	}

	frame := make(Frame, a.n)
	copy(frame, a.buf[:a.n])
	a.reset()
	return frame, nil
}

// Write feeds p byte by byte, handing completed frames to the handler.
// Overflows are counted, not returned, so Write never fails.
func (a *Assembler) Write(p []byte) (int, error) {
	for _, b := range p {
		frame, err := a.Feed(b)
		if err != nil || frame == nil {
			continue
		}
		if a.onFrame != nil {
			a.onFrame(frame)
		}
	}
	return len(p), nil
}

// Expire drops a partial frame that has seen no byte for longer than the
// timeout. It reports whether a frame was dropped.
func (a *Assembler) Expire(now time.Time) bool {
	if a.timeout <= 0 || a.state != Receiving {
		return false
	}
	if now.Sub(a.lastByte) < a.timeout {
		return false
	}
	a.reset()
	a.expired++
	return true
}

// Stats reports how many partial frames were dropped by overflow, by
// timeout and by a new start marker.
func (a *Assembler) Stats() (overflows, expired, resyncs int) {
	return a.overflows, a.expired, a.resyncs
}

func (a *Assembler) reset() {
	a.state = Idle
	a.n = 0
}
