package visca

import (
	"errors"
	"fmt"
)

// MaxCameras is the number of individually addressable devices on one
// VISCA bus (0x81..0x87).
const MaxCameras = 7

// AutoFocus is the focus value that selects automatic focus.
const AutoFocus = -1

var ErrInvalidAddress = errors.New("visca: invalid camera address")

// Address is a zero-based camera index on the bus.
type Address uint8

// NewAddress validates n against the number of configured cameras.
func NewAddress(n, cameras int) (Address, error) {
	if cameras <= 0 || cameras > MaxCameras {
		cameras = MaxCameras
	}
	if n < 0 || n >= cameras {
		return 0, fmt.Errorf("%w: %d (have %d cameras)", ErrInvalidAddress, n, cameras)
	}
	return Address(n), nil
}

// Byte returns the device address byte, 0x81 for camera 0.
func (a Address) Byte() byte {
	return 0x81 + byte(a)
}

// Limits are the hardware ceilings for positional values.
type Limits struct {
	PanMax   int
	TiltMax  int
	ZoomMax  int
	FocusMax int
}

// DefaultLimits returns the ceilings of the deployed camera model.
func DefaultLimits() Limits {
	return Limits{
		PanMax:   800,
		TiltMax:  212,
		ZoomMax:  2305,
		FocusMax: 65535,
	}
}

// CameraState holds the last requested absolute position of one camera.
// Setters clamp; nothing is transmitted until an absolute move is encoded.
type CameraState struct {
	limits Limits
	pan    int
	tilt   int
	zoom   int
	focus  int
}

// NewCameraState returns a state centred in every axis.
func NewCameraState(limits Limits) *CameraState {
	return &CameraState{
		limits: limits,
		pan:    limits.PanMax / 2,
		tilt:   limits.TiltMax / 2,
		zoom:   limits.ZoomMax / 2,
		focus:  limits.FocusMax / 2,
	}
}

func (c *CameraState) Pan() int   { return c.pan }
func (c *CameraState) Tilt() int  { return c.tilt }
func (c *CameraState) Zoom() int  { return c.zoom }
func (c *CameraState) Focus() int { return c.focus }

// AutoFocus reports whether the focus sentinel is set.
func (c *CameraState) AutoFocus() bool { return c.focus == AutoFocus }

func (c *CameraState) SetPan(v int)   { c.pan = clampInt(v, 0, c.limits.PanMax) }
func (c *CameraState) SetTilt(v int)  { c.tilt = clampInt(v, 0, c.limits.TiltMax) }
func (c *CameraState) SetZoom(v int)  { c.zoom = clampInt(v, 0, c.limits.ZoomMax) }
func (c *CameraState) SetFocus(v int) { c.focus = clampInt(v, AutoFocus, c.limits.FocusMax) }

// Position is a copy of a CameraState, safe to hand to other goroutines.
type Position struct {
	Camera int `json:"cam"`
	Pan    int `json:"x"`
	Tilt   int `json:"y"`
	Zoom   int `json:"z"`
	Focus  int `json:"focus"`
}

// Position snapshots the state.
func (c *CameraState) Position(a Address) Position {
	return Position{Camera: int(a), Pan: c.pan, Tilt: c.tilt, Zoom: c.zoom, Focus: c.focus}
}

// Cameras is the per-address bank of camera states.
type Cameras struct {
	states []*CameraState
}

// NewCameras creates count states (1..MaxCameras) with default positions.
func NewCameras(count int, limits Limits) *Cameras {
	if count <= 0 || count > MaxCameras {
		count = MaxCameras
	}
	c := &Cameras{states: make([]*CameraState, count)}
	for i := range c.states {
		c.states[i] = NewCameraState(limits)
	}
	return c
}

// Len returns the number of configured cameras.
func (c *Cameras) Len() int { return len(c.states) }

// Get returns the state for a. The address must have been validated
// against Len.
func (c *Cameras) Get(a Address) *CameraState {
	return c.states[a]
}

// Addresses lists the configured addresses in ascending order.
func (c *Cameras) Addresses() []Address {
	out := make([]Address, len(c.states))
	for i := range out {
		out[i] = Address(i)
	}
	return out
}

// Positions snapshots every camera.
func (c *Cameras) Positions() []Position {
	out := make([]Position, len(c.states))
	for i, s := range c.states {
		out[i] = s.Position(Address(i))
	}
	return out
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
