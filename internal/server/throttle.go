package server

import (
	"sync"
	"time"

	"visca-bridge/internal/protocol"
	"visca-bridge/internal/visca"
)

const minMoveInterval = 50 * time.Millisecond // ~20 moves/sec per camera

// throttle coalesces rapid updates, sending immediately when possible
// and scheduling a trailing edge send for updates during cooldown
type throttle struct {
	mu           sync.Mutex
	interval     time.Duration
	lastSendTime time.Time
	timerRunning bool
	stopCh       <-chan struct{}
	flush        func()
}

// trigger must be called with t.mu held.
func (t *throttle) trigger() {
	now := time.Now()
	if now.Sub(t.lastSendTime) >= t.interval {
		t.flush()
		t.lastSendTime = now
	} else if !t.timerRunning {
		t.timerRunning = true
		remaining := t.interval - now.Sub(t.lastSendTime)
		go func() {
			select {
			case <-time.After(remaining):
				t.mu.Lock()
				t.flush()
				t.lastSendTime = time.Now()
				t.timerRunning = false
				t.mu.Unlock()
			case <-t.stopCh:
			}
		}()
	}
}

// cameraMove is the joystick state of one camera.
type cameraMove struct {
	throttle
	pending, sent protocol.MoveBy
	hasSent       bool
}

// moveThrottle limits relative moves to one per interval per camera. The
// latest request inside a cooldown wins; repeats of the last sent move are
// dropped.
type moveThrottle struct {
	mu       sync.Mutex
	interval time.Duration
	cams     map[visca.Address]*cameraMove
	send     func(protocol.MoveBy)
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newMoveThrottle(interval time.Duration, send func(protocol.MoveBy)) *moveThrottle {
	return &moveThrottle{
		interval: interval,
		cams:     make(map[visca.Address]*cameraMove),
		send:     send,
		stopCh:   make(chan struct{}),
	}
}

func (m *moveThrottle) camera(a visca.Address) *cameraMove {
	m.mu.Lock()
	defer m.mu.Unlock()

	cm, ok := m.cams[a]
	if !ok {
		cm = &cameraMove{}
		cm.interval = m.interval
		cm.stopCh = m.stopCh
		cm.flush = func() {
			if !cm.hasSent || cm.pending != cm.sent {
				m.send(cm.pending)
				cm.sent = cm.pending
				cm.hasSent = true
			}
		}
		m.cams[a] = cm
	}
	return cm
}

// Move queues req for its camera.
func (m *moveThrottle) Move(req protocol.MoveBy) {
	cm := m.camera(req.Cam)

	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.pending = req
	if !cm.hasSent || cm.pending != cm.sent {
		cm.trigger()
	}
}

// Close cancels pending trailing-edge sends.
func (m *moveThrottle) Close() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}
