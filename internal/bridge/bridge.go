// Package bridge runs the VISCA bus: it applies camera requests, writes the
// encoded frames to the link, reassembles replies and polls the cameras.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"visca-bridge/internal/protocol"
	"visca-bridge/internal/pubsub"
	"visca-bridge/internal/transport"
	"visca-bridge/internal/visca"
)

// ErrClosed is returned by calls made after Run has returned.
var ErrClosed = errors.New("bridge: closed")

const (
	defaultTick  = 20 * time.Millisecond
	readBufSize  = 64
	rxQueueDepth = 64
)

// Config for the bridge
type Config struct {
	Cameras      int
	Limits       visca.Limits
	PollEnabled  bool
	PollInterval time.Duration
	FrameTimeout time.Duration
	// TickInterval is how often the poll clock and the frame timeout are
	// checked. Defaults to 20ms.
	TickInterval time.Duration
}

type execCall struct {
	req protocol.Request
	err chan error
}

// Bridge owns the camera states, the reply assembler and the poll
// scheduler. All three are only touched by the goroutine running Run.
type Bridge struct {
	cfg  Config
	link transport.Link
	bus  *pubsub.PubSub

	cams *visca.Cameras
	asm  *visca.Assembler
	poll *visca.Scheduler

	requests  chan execCall
	snapshots chan chan []visca.Position
	rx        chan []byte
	rxErr     chan error

	done     chan struct{}
	doneOnce sync.Once
	now      func() time.Time
}

// New creates a bridge writing to link and publishing replies on bus.
func New(cfg Config, link transport.Link, bus *pubsub.PubSub) *Bridge {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTick
	}

	b := &Bridge{
		link:      link,
		bus:       bus,
		cams:      visca.NewCameras(cfg.Cameras, cfg.Limits),
		requests:  make(chan execCall),
		snapshots: make(chan chan []visca.Position),
		rx:        make(chan []byte, rxQueueDepth),
		rxErr:     make(chan error, 1),
		done:      make(chan struct{}),
		now:       time.Now,
	}
	cfg.Cameras = b.cams.Len()
	b.cfg = cfg
	b.asm = visca.NewAssembler(nil, cfg.FrameTimeout)
	return b
}

// Cameras returns the number of addressed cameras.
func (b *Bridge) Cameras() int { return b.cfg.Cameras }

// Transport names the link.
func (b *Bridge) Transport() string { return b.link.String() }

// Run processes requests, inbound bytes and the poll clock until ctx is
// cancelled or the link fails. It must be called once.
func (b *Bridge) Run(ctx context.Context) error {
	defer b.doneOnce.Do(func() { close(b.done) })

	b.poll = visca.NewScheduler(b.cfg.PollInterval, b.now())
	go b.readLoop()

	ticker := time.NewTicker(b.cfg.TickInterval)
	defer ticker.Stop()

	log.Printf("VISCA: bridge running on %s with %d cameras", b.link, b.cfg.Cameras)
	if b.cfg.PollEnabled {
		log.Printf("VISCA: polling every %v", b.poll.Interval())
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case call := <-b.requests:
			call.err <- b.apply(call.req)
		case reply := <-b.snapshots:
			reply <- b.cams.Positions()
		case chunk := <-b.rx:
			b.receive(chunk)
		case err := <-b.rxErr:
			return fmt.Errorf("read from %s: %w", b.link, err)
		case <-ticker.C:
			b.tick(b.now())
		}
	}
}

// Execute hands req to the Run goroutine and waits for its frames to be
// written.
func (b *Bridge) Execute(ctx context.Context, req protocol.Request) error {
	call := execCall{req: req, err: make(chan error, 1)}

	select {
	case b.requests <- call:
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrClosed
	}

	select {
	case err := <-call.err:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrClosed
	}
}

// Positions returns a snapshot of every camera's stored position.
func (b *Bridge) Positions(ctx context.Context) ([]visca.Position, error) {
	reply := make(chan []visca.Position, 1)

	select {
	case b.snapshots <- reply:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.done:
		return nil, ErrClosed
	}

	select {
	case positions := <-reply:
		return positions, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.done:
		return nil, ErrClosed
	}
}

// readLoop copies bytes off the link. It exits when the link fails or is
// closed, or once Run has returned.
func (b *Bridge) readLoop() {
	buf := make([]byte, readBufSize)
	for {
		n, err := b.link.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case b.rx <- chunk:
			case <-b.done:
				return
			}
		}
		if err != nil {
			select {
			case b.rxErr <- err:
			case <-b.done:
			}
			return
		}
		select {
		case <-b.done:
			return
		default:
		}
	}
}

// receive feeds inbound bytes, in arrival order, through the assembler.
func (b *Bridge) receive(chunk []byte) {
	for _, c := range chunk {
		frame, err := b.asm.Feed(c)
		if err != nil {
			log.Printf("VISCA: dropped reply: %v", err)
			continue
		}
		if frame != nil {
			b.handleFrame(frame)
		}
	}
}

// handleFrame suppresses the bare completion echo and forwards the rest.
func (b *Bridge) handleFrame(frame visca.Frame) {
	if visca.IsEcho(frame) {
		return
	}
	reply := visca.ParseReply(frame)
	if reply.Err != nil {
		log.Printf("VISCA: camera error %s: %v", frame.Hex(), reply.Err)
	}
	b.bus.Publish(pubsub.TopicData, reply)
}

// tick drops a stalled partial reply and sends the poll burst when due.
func (b *Bridge) tick(now time.Time) {
	if b.asm.Expire(now) {
		log.Printf("VISCA: dropped incomplete reply after %v", b.cfg.FrameTimeout)
	}
	if !b.cfg.PollEnabled {
		return
	}
	for _, f := range b.poll.Poll(now, b.cams.Addresses()) {
		if err := b.write(f); err != nil {
			log.Printf("VISCA: poll failed: %v", err)
			return
		}
	}
}

func (b *Bridge) write(f []byte) error {
	if _, err := b.link.Write(f); err != nil {
		return fmt.Errorf("write to %s: %w", b.link, err)
	}
	return nil
}
