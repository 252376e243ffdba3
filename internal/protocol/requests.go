package protocol

import "visca-bridge/internal/visca"

// Request is one validated camera operation. The concrete types below are
// the only implementations.
type Request interface {
	request()
}

// Raw is written to the line unchanged.
type Raw struct {
	Data []byte
}

// Blink drives a camera LED.
type Blink struct {
	Cam  visca.Address
	LED  byte
	Mode byte
}

// SettingKind names an on/off camera setting.
type SettingKind string

const (
	SettingBacklight    SettingKind = "backlight"
	SettingMirror       SettingKind = "mirror"
	SettingFlip         SettingKind = "flip"
	SettingMotionDetect SettingKind = "mmdetect"
)

// Setting switches one on/off setting.
type Setting struct {
	Cam  visca.Address
	Kind SettingKind
	On   bool
}

// PictureKind names a picture parameter with an auto mode.
type PictureKind string

const (
	PictureWhiteBalance PictureKind = "wb"
	PictureIris         PictureKind = "iris"
)

// Picture sets white balance or iris. Negative values select auto.
type Picture struct {
	Cam   visca.Address
	Kind  PictureKind
	Value int
}

// MoveTo updates the stored position of a camera and sends an absolute
// move. Nil fields keep their stored value.
type MoveTo struct {
	Cam   visca.Address
	Pan   *int
	Tilt  *int
	Zoom  *int
	Focus *int
}

// MoveBy drives pan and tilt relative to the current position, -100..100.
type MoveBy struct {
	Cam visca.Address
	DX  int
	DY  int
}

// Inquire triggers an immediate inquire-all burst.
type Inquire struct{}

func (Raw) request()     {}
func (Blink) request()   {}
func (Setting) request() {}
func (Picture) request() {}
func (MoveTo) request()  {}
func (MoveBy) request()  {}
func (Inquire) request() {}
