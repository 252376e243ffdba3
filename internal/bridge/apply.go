package bridge

import (
	"fmt"
	"log"

	"visca-bridge/internal/protocol"
	"visca-bridge/internal/pubsub"
	"visca-bridge/internal/visca"
)

// apply encodes req and writes the frames. Called from Run only.
func (b *Bridge) apply(req protocol.Request) error {
	frames, err := b.encode(req)
	if err != nil {
		return err
	}
	for _, f := range frames {
		if err := b.write(f); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) encode(req protocol.Request) ([]visca.Frame, error) {
	switch r := req.(type) {
	case protocol.Raw:
		b.bus.Publish(pubsub.TopicStatus, fmt.Sprintf("raw %d bytes", len(r.Data)))
		return []visca.Frame{visca.Frame(r.Data)}, nil

	case protocol.Inquire:
		return visca.InquireAll(b.cams.Addresses()), nil
	}

	cam, err := b.address(req)
	if err != nil {
		return nil, err
	}

	switch r := req.(type) {
	case protocol.Blink:
		return []visca.Frame{visca.Blink(cam, r.LED, r.Mode)}, nil

	case protocol.Setting:
		switch r.Kind {
		case protocol.SettingBacklight:
			return []visca.Frame{visca.Backlight(cam, r.On)}, nil
		case protocol.SettingMirror:
			return []visca.Frame{visca.Mirror(cam, r.On)}, nil
		case protocol.SettingFlip:
			return []visca.Frame{visca.Flip(cam, r.On)}, nil
		case protocol.SettingMotionDetect:
			return []visca.Frame{visca.MotionDetect(cam, r.On)}, nil
		}
		return nil, fmt.Errorf("unknown setting %q", r.Kind)

	case protocol.Picture:
		switch r.Kind {
		case protocol.PictureWhiteBalance:
			return []visca.Frame{visca.WhiteBalance(cam, r.Value)}, nil
		case protocol.PictureIris:
			return []visca.Frame{visca.Iris(cam, r.Value)}, nil
		}
		return nil, fmt.Errorf("unknown picture setting %q", r.Kind)

	case protocol.MoveTo:
		state := b.cams.Get(cam)
		setClamped(cam, "pan", r.Pan, state.SetPan, state.Pan)
		setClamped(cam, "tilt", r.Tilt, state.SetTilt, state.Tilt)
		setClamped(cam, "zoom", r.Zoom, state.SetZoom, state.Zoom)
		setClamped(cam, "focus", r.Focus, state.SetFocus, state.Focus)
		return []visca.Frame{visca.AbsoluteMove(cam, state)}, nil

	case protocol.MoveBy:
		return []visca.Frame{visca.RelativeMove(cam, r.DX, r.DY)}, nil
	}

	return nil, fmt.Errorf("unsupported request %T", req)
}

// address returns the target camera of req, checked against the bank.
func (b *Bridge) address(req protocol.Request) (visca.Address, error) {
	var cam visca.Address
	switch r := req.(type) {
	case protocol.Blink:
		cam = r.Cam
	case protocol.Setting:
		cam = r.Cam
	case protocol.Picture:
		cam = r.Cam
	case protocol.MoveTo:
		cam = r.Cam
	case protocol.MoveBy:
		cam = r.Cam
	}
	return visca.NewAddress(int(cam), b.cams.Len())
}

// setClamped stores v, if given, and logs when the stored value differs.
func setClamped(cam visca.Address, axis string, v *int, set func(int), get func() int) {
	if v == nil {
		return
	}
	set(*v)
	if got := get(); got != *v {
		log.Printf("VISCA: camera %d %s %d clamped to %d", cam, axis, *v, got)
	}
}
