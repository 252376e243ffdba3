package visca

import (
	"encoding/hex"
	"errors"
	"strings"
)

// Reply message types, high nibble of the second byte.
const (
	replyAck        byte = 0x40
	replyCompletion byte = 0x50
	replyError      byte = 0x60
)

var (
	ErrMessageLength  = errors.New("visca: message length error")
	ErrSyntax         = errors.New("visca: syntax error")
	ErrBufferFull     = errors.New("visca: command buffer full")
	ErrCanceled       = errors.New("visca: command canceled")
	ErrNoSocket       = errors.New("visca: no socket")
	ErrNotExecutable  = errors.New("visca: command not executable")
	ErrUnknownFailure = errors.New("visca: unknown error")
)

var replyErrors = map[byte]error{
	0x01: ErrMessageLength,
	0x02: ErrSyntax,
	0x03: ErrBufferFull,
	0x04: ErrCanceled,
	0x05: ErrNoSocket,
	0x41: ErrNotExecutable,
}

// ReplyKind classifies a reply frame.
type ReplyKind string

const (
	KindAck        ReplyKind = "ack"
	KindCompletion ReplyKind = "completion"
	KindPanTilt    ReplyKind = "pan_tilt"
	KindError      ReplyKind = "error"
	KindUnknown    ReplyKind = "unknown"
)

// Reply is a decoded reply frame.
type Reply struct {
	Kind   ReplyKind
	Socket byte
	Err    error
	Pan    int
	Tilt   int
	Raw    Frame
}

// IsEcho reports whether f is the bare completion 90 50 FF, which the
// cameras emit for every accepted command and carries nothing to report.
func IsEcho(f Frame) bool {
	return len(f) == 3 && f[0] == ReplyAddress && f[1] == replyCompletion && f[2] == Terminator
}

// ParseReply decodes a complete frame as produced by the Assembler.
func ParseReply(f Frame) Reply {
	r := Reply{Kind: KindUnknown, Raw: f}
	if len(f) < 3 || f[len(f)-1] != Terminator {
		return r
	}
	r.Socket = f[1] & 0x0F
	payload := f[2 : len(f)-1]

	switch f[1] & 0xF0 {
	case replyAck:
		r.Kind = KindAck
	case replyCompletion:
		r.Kind = KindCompletion
		// pan/tilt position: 4 pan nibbles, 4 tilt nibbles
		if len(payload) == 8 && nibblesOnly(payload) {
			r.Kind = KindPanTilt
			r.Pan = int(int16(FromNibbles(payload[0:4])))
			r.Tilt = int(int16(FromNibbles(payload[4:8])))
		}
	case replyError:
		r.Kind = KindError
		r.Err = ErrUnknownFailure
		if len(payload) > 0 {
			if err, ok := replyErrors[payload[0]]; ok {
				r.Err = err
			}
		}
	}
	return r
}

// Hex formats a frame as space separated upper-case byte pairs.
func (f Frame) Hex() string {
	if len(f) == 0 {
		return ""
	}
	s := strings.ToUpper(hex.EncodeToString(f))
	var b strings.Builder
	for i := 0; i < len(s); i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+2])
	}
	return b.String()
}

func nibblesOnly(p []byte) bool {
	for _, b := range p {
		if b&0xF0 != 0 {
			return false
		}
	}
	return true
}
