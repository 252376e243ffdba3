package protocol

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"visca-bridge/internal/visca"
)

// Command topics. Bus topics are TopicPrefix + command name.
const (
	TopicPrefix   = "visca/command/"
	TopicCommands = TopicPrefix + "#"
	TopicStatus   = "visca/status"
	TopicData     = "visca/data"

	CommandRaw      = "raw"
	CommandBlink    = "blinkenlights"
	CommandSettings = "settings"
	CommandPicture  = "picture"
	CommandMoveTo   = "moveto"
	CommandMoveBy   = "moveby"
	CommandInquire  = "inquire"
)

var ErrUnknownCommand = errors.New("unknown command")

// Switch decodes a JSON bool or number (non-zero is on).
type Switch bool

func (s *Switch) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*s = Switch(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected bool or number, got %s", data)
	}
	*s = n != 0
	return nil
}

// commandArgs is the union of every command's JSON fields.
type commandArgs struct {
	Cam int `json:"cam"`

	LED  int `json:"led"`
	Mode int `json:"mode"`

	Backlight *Switch `json:"backlight"`
	Mirror    *Switch `json:"mirror"`
	Flip      *Switch `json:"flip"`
	MMDetect  *Switch `json:"mmdetect"`

	WB   *int `json:"wb"`
	Iris *int `json:"iris"`

	X     *int `json:"x"`
	Y     *int `json:"y"`
	Z     *int `json:"z"`
	Focus *int `json:"focus"`
}

// CommandName strips TopicPrefix from a bus topic.
func CommandName(topic string) string {
	return strings.TrimPrefix(topic, TopicPrefix)
}

// ParseCommand turns a command name (or full bus topic) and its JSON
// payload into validated requests. cameras bounds the "cam" field. A
// command may yield several requests, or none when no field is set.
func ParseCommand(topic string, payload []byte, cameras int) ([]Request, error) {
	name := CommandName(topic)

	switch name {
	case CommandRaw:
		return []Request{parseRaw(payload)}, nil
	case CommandBlink, CommandSettings, CommandPicture, CommandMoveTo, CommandMoveBy, CommandInquire:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	var args commandArgs
	if len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", name, err)
		}
	}

	cam, err := visca.NewAddress(args.Cam, cameras)
	if err != nil {
		return nil, err
	}

	switch name {
	case CommandBlink:
		return []Request{Blink{Cam: cam, LED: byte(args.LED), Mode: byte(args.Mode)}}, nil

	case CommandSettings:
		var reqs []Request
		for _, s := range []struct {
			kind  SettingKind
			value *Switch
		}{
			{SettingBacklight, args.Backlight},
			{SettingMirror, args.Mirror},
			{SettingFlip, args.Flip},
			{SettingMotionDetect, args.MMDetect},
		} {
			if s.value != nil {
				reqs = append(reqs, Setting{Cam: cam, Kind: s.kind, On: bool(*s.value)})
			}
		}
		return reqs, nil

	case CommandPicture:
		var reqs []Request
		if args.WB != nil {
			reqs = append(reqs, Picture{Cam: cam, Kind: PictureWhiteBalance, Value: *args.WB})
		}
		if args.Iris != nil {
			reqs = append(reqs, Picture{Cam: cam, Kind: PictureIris, Value: *args.Iris})
		}
		return reqs, nil

	case CommandMoveTo:
		return []Request{MoveTo{Cam: cam, Pan: args.X, Tilt: args.Y, Zoom: args.Z, Focus: args.Focus}}, nil

	case CommandMoveBy:
		req := MoveBy{Cam: cam}
		if args.X != nil {
			req.DX = *args.X
		}
		if args.Y != nil {
			req.DY = *args.Y
		}
		return []Request{req}, nil

	default:
		return []Request{Inquire{}}, nil
	}
}

// parseRaw accepts {"hex": "81 01 ..."} from JSON surfaces and otherwise
// passes the payload bytes through untouched.
func parseRaw(payload []byte) Raw {
	var args struct {
		Hex string `json:"hex"`
	}
	if err := json.Unmarshal(payload, &args); err == nil && args.Hex != "" {
		clean := strings.NewReplacer(" ", "", ":", "").Replace(args.Hex)
		if data, err := hex.DecodeString(clean); err == nil {
			return Raw{Data: data}
		}
	}
	data := make([]byte, len(payload))
	copy(data, payload)
	return Raw{Data: data}
}
