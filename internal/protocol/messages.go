package protocol

import (
	"encoding/json"

	"visca-bridge/internal/visca"
)

// Message types
const (
	TypePing    = "ping"
	TypePong    = "pong"
	TypeStatus  = "status"
	TypeCommand = "command"
	TypeReport  = "report"
	TypeCameras = "cameras"
	TypeError   = "error"
)

// Error codes
const (
	ErrCodeLinkDown       = "LINK_DOWN"
	ErrCodeVISCA          = "VISCA_ERROR"
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeInvalidCommand = "INVALID_COMMAND"
)

// Message is the base envelope for all WebSocket messages
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// PingPayload for ping messages
type PingPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// PongPayload for pong messages
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"`
}

// StatusPayload describes the bridge and its links
type StatusPayload struct {
	Transport     string `json:"transport"`
	Cameras       int    `json:"cameras"`
	MQTTConnected bool   `json:"mqtt_connected"`
	Message       string `json:"message,omitempty"`
}

// CommandPayload carries one dispatch command, same names and arguments
// as the visca/command/<name> bus topics
type CommandPayload struct {
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// ReportPayload describes one inbound reply frame
type ReportPayload struct {
	Hex    string `json:"hex"`
	Kind   string `json:"kind"`
	Socket byte   `json:"socket"`
	Pan    *int   `json:"pan,omitempty"`
	Tilt   *int   `json:"tilt,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CamerasPayload lists the stored position of every camera
type CamerasPayload struct {
	Cameras []visca.Position `json:"cameras"`
}

// ErrorPayload for error messages
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewMessage creates a new message with the given type and payload
func NewMessage(msgType string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:    msgType,
		Payload: data,
	}, nil
}

// ParsePayload unmarshals the payload into the given struct
func (m *Message) ParsePayload(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// NewReport describes a decoded reply frame.
func NewReport(r visca.Reply) ReportPayload {
	p := ReportPayload{
		Hex:    r.Raw.Hex(),
		Kind:   string(r.Kind),
		Socket: r.Socket,
	}
	if r.Kind == visca.KindPanTilt {
		pan, tilt := r.Pan, r.Tilt
		p.Pan, p.Tilt = &pan, &tilt
	}
	if r.Err != nil {
		p.Error = r.Err.Error()
	}
	return p
}
