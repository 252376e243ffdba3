package visca

// Wire constants.
const (
	// Terminator ends every VISCA message.
	Terminator byte = 0xFF
	// ReplyAddress starts every reply frame seen on the shared bus.
	ReplyAddress byte = 0x90

	categoryCommand byte = 0x01
	categoryInquiry byte = 0x09

	setOn  byte = 0x02
	setOff byte = 0x03

	// MaxSpeed is the highest pan/tilt drive speed byte.
	MaxSpeed = 0x1F
)

// Frame is one transmission burst: one or more VISCA messages, each ending
// in Terminator.
type Frame []byte

// Wrap builds a VISCA message: address byte, body, terminator.
func Wrap(a Address, body ...byte) Frame {
	// VISCA command format: [address byte] [payload...] [terminator]
	cmd := make(Frame, 0, len(body)+2)
	cmd = append(cmd, a.Byte())
	cmd = append(cmd, body...)
	cmd = append(cmd, Terminator)
	return cmd
}

// Messages splits a burst into its individual terminated messages.
func (f Frame) Messages() []Frame {
	var out []Frame
	start := 0
	for i, b := range f {
		if b == Terminator {
			out = append(out, f[start:i+1])
			start = i + 1
		}
	}
	if start < len(f) {
		out = append(out, f[start:])
	}
	return out
}

func onOff(on bool) byte {
	if on {
		return setOn
	}
	return setOff
}

// Blink drives a camera LED. led and mode are passed through unchanged.
func Blink(a Address, led, mode byte) Frame {
	return Wrap(a, categoryCommand, 0x33, led, mode)
}

// Flip sets vertical image flip.
func Flip(a Address, on bool) Frame {
	return Wrap(a, categoryCommand, 0x04, 0x66, onOff(on))
}

// Mirror sets horizontal image mirroring.
func Mirror(a Address, on bool) Frame {
	return Wrap(a, categoryCommand, 0x04, 0x61, onOff(on))
}

// Backlight toggles backlight compensation.
func Backlight(a Address, on bool) Frame {
	return Wrap(a, categoryCommand, 0x04, 0x33, 0x02, onOff(on))
}

// MotionDetect toggles the camera's motion detection.
func MotionDetect(a Address, on bool) Frame {
	var v byte
	if on {
		v = 0x01
	}
	return Wrap(a, categoryCommand, 0x50, 0x30, 0x01, v)
}

// WhiteBalance selects auto white balance for v <= -1, otherwise manual
// mode followed by the direct colour temperature value.
func WhiteBalance(a Address, v int) Frame {
	mode := byte(0x06)
	if v < 0 {
		mode = 0x00
	}
	n := nibblesOf(v)
	return Wrap(a,
		categoryCommand, 0x04, 0x35, mode, Terminator,
		a.Byte(), categoryCommand, 0x04, 0x75, n[0], n[1], n[2], n[3])
}

// Iris selects auto exposure for v <= -1, otherwise iris priority followed
// by the direct iris value.
func Iris(a Address, v int) Frame {
	mode := byte(0x03)
	if v < 0 {
		mode = 0x00
	}
	n := nibblesOf(v)
	return Wrap(a,
		categoryCommand, 0x04, 0x39, mode, Terminator,
		a.Byte(), categoryCommand, 0x04, 0x4B, n[0], n[1], n[2], n[3])
}

// direction maps a signed delta onto a drive direction byte:
// 02 for positive, 01 for negative, 03 for stop.
func direction(d int) byte {
	switch {
	case d > 0:
		return 0x02
	case d < 0:
		return 0x01
	default:
		return 0x03
	}
}

// Speed scales |d| from 0..100 onto 0..MaxSpeed, rounding to nearest.
func Speed(d int) byte {
	if d < 0 {
		d = -d
	}
	return byte(clampInt((d*MaxSpeed+50)/100, 0, MaxSpeed))
}

// RelativeMove stops any drive in progress, then drives pan and tilt at
// speeds proportional to dx and dy (-100..100).
func RelativeMove(a Address, dx, dy int) Frame {
	return Wrap(a,
		categoryCommand, 0x06, 0x01, 0x00, 0x00, 0x03, 0x03, Terminator,
		a.Byte(), categoryCommand, 0x06, 0x01, Speed(dx), Speed(dy), direction(dx), direction(dy))
}

// AbsoluteMove sends focus mode, a drive stop and the absolute
// pan/tilt/zoom/focus position held in s.
func AbsoluteMove(a Address, s *CameraState) Frame {
	focusMode := byte(0x03)
	if s.AutoFocus() {
		focusMode = 0x02
	}
	body := make([]byte, 0, 34)
	body = append(body, categoryCommand, 0x04, 0x38, focusMode, Terminator)
	body = append(body, a.Byte(), categoryCommand, 0x06, 0x01, 0x03, 0x03, 0x03, 0x03, Terminator)
	body = append(body, a.Byte(), categoryCommand, 0x06, 0x20)
	for _, v := range []int{s.Pan(), s.Tilt(), s.Zoom(), s.Focus()} {
		n := nibblesOf(v)
		body = append(body, n[:]...)
	}
	return Wrap(a, body...)
}

// InquirePanTilt asks one camera for its pan/tilt position.
func InquirePanTilt(a Address) Frame {
	return Wrap(a, categoryInquiry, 0x06, 0x12)
}

// InquireAll builds one pan/tilt inquiry per address, in the given order.
func InquireAll(addrs []Address) []Frame {
	out := make([]Frame, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, InquirePanTilt(a))
	}
	return out
}
