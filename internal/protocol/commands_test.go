package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visca-bridge/internal/visca"
)

func intPtr(v int) *int { return &v }

func TestParseCommand_Blink(t *testing.T) {
	reqs, err := ParseCommand("visca/command/blinkenlights", []byte(`{"led":2,"mode":1,"cam":3}`), visca.MaxCameras)
	require.NoError(t, err)
	assert.Equal(t, []Request{Blink{Cam: 3, LED: 2, Mode: 1}}, reqs)
}

func TestParseCommand_CamDefaultsToZero(t *testing.T) {
	reqs, err := ParseCommand(CommandBlink, []byte(`{}`), visca.MaxCameras)
	require.NoError(t, err)
	assert.Equal(t, []Request{Blink{}}, reqs)

	reqs, err = ParseCommand(CommandInquire, nil, visca.MaxCameras)
	require.NoError(t, err)
	assert.Equal(t, []Request{Inquire{}}, reqs)
}

func TestParseCommand_SettingsOrder(t *testing.T) {
	reqs, err := ParseCommand(CommandSettings, []byte(`{"mmdetect":1,"flip":true,"backlight":false,"mirror":0,"cam":1}`), visca.MaxCameras)
	require.NoError(t, err)
	assert.Equal(t, []Request{
		Setting{Cam: 1, Kind: SettingBacklight, On: false},
		Setting{Cam: 1, Kind: SettingMirror, On: false},
		Setting{Cam: 1, Kind: SettingFlip, On: true},
		Setting{Cam: 1, Kind: SettingMotionDetect, On: true},
	}, reqs)

	reqs, err = ParseCommand(CommandSettings, []byte(`{"cam":1}`), visca.MaxCameras)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestParseCommand_Picture(t *testing.T) {
	reqs, err := ParseCommand(CommandPicture, []byte(`{"wb":-1,"iris":12}`), visca.MaxCameras)
	require.NoError(t, err)
	assert.Equal(t, []Request{
		Picture{Kind: PictureWhiteBalance, Value: -1},
		Picture{Kind: PictureIris, Value: 12},
	}, reqs)
}

func TestParseCommand_MoveTo(t *testing.T) {
	reqs, err := ParseCommand(CommandMoveTo, []byte(`{"x":100,"focus":-1,"cam":2}`), visca.MaxCameras)
	require.NoError(t, err)
	assert.Equal(t, []Request{MoveTo{Cam: 2, Pan: intPtr(100), Focus: intPtr(-1)}}, reqs)
}

func TestParseCommand_MoveBy(t *testing.T) {
	reqs, err := ParseCommand(CommandMoveBy, []byte(`{"x":50}`), visca.MaxCameras)
	require.NoError(t, err)
	assert.Equal(t, []Request{MoveBy{DX: 50}}, reqs)
}

func TestParseCommand_Raw(t *testing.T) {
	payload := []byte{0x81, 0x01, 0x04, 0x00, 0x02, 0xFF}
	reqs, err := ParseCommand("visca/command/raw", payload, visca.MaxCameras)
	require.NoError(t, err)
	assert.Equal(t, []Request{Raw{Data: payload}}, reqs)

	reqs, err = ParseCommand(CommandRaw, []byte(`{"hex":"81 09 06 12 FF"}`), visca.MaxCameras)
	require.NoError(t, err)
	assert.Equal(t, []Request{Raw{Data: []byte{0x81, 0x09, 0x06, 0x12, 0xFF}}}, reqs)
}

func TestParseCommand_Errors(t *testing.T) {
	_, err := ParseCommand("visca/command/zoomy", []byte(`{}`), visca.MaxCameras)
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = ParseCommand(CommandMoveTo, []byte(`{"cam":7}`), visca.MaxCameras)
	assert.ErrorIs(t, err, visca.ErrInvalidAddress)

	_, err = ParseCommand(CommandMoveTo, []byte(`{"cam":2}`), 2)
	assert.ErrorIs(t, err, visca.ErrInvalidAddress)

	_, err = ParseCommand(CommandSettings, []byte(`{"flip":"yes"}`), visca.MaxCameras)
	assert.Error(t, err)

	_, err = ParseCommand(CommandMoveTo, []byte(`not json`), visca.MaxCameras)
	assert.Error(t, err)
}

func TestNewReport(t *testing.T) {
	r := NewReport(visca.ParseReply(visca.Frame{0x90, 0x50, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x02, 0xFF}))
	assert.Equal(t, "pan_tilt", r.Kind)
	require.NotNil(t, r.Pan)
	assert.Equal(t, 16, *r.Pan)
	assert.Equal(t, 2, *r.Tilt)

	r = NewReport(visca.ParseReply(visca.Frame{0x90, 0x60, 0x03, 0xFF}))
	assert.Equal(t, "error", r.Kind)
	assert.Equal(t, visca.ErrBufferFull.Error(), r.Error)
	assert.Nil(t, r.Pan)
}
