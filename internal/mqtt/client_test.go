package mqtt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visca-bridge/internal/protocol"
	"visca-bridge/internal/pubsub"
	"visca-bridge/internal/visca"
)

type fakeController struct {
	reqs []protocol.Request
	err  error
}

func (f *fakeController) Execute(_ context.Context, req protocol.Request) error {
	if f.err != nil {
		return f.err
	}
	f.reqs = append(f.reqs, req)
	return nil
}

func (f *fakeController) Positions(context.Context) ([]visca.Position, error) { return nil, nil }
func (f *fakeController) Cameras() int                                        { return visca.MaxCameras }
func (f *fakeController) Transport() string                                   { return "fake" }

type published struct {
	topic   string
	payload string
}

type recorder struct {
	mu  sync.Mutex
	out []published
}

func (r *recorder) publish(topic string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = append(r.out, published{topic, string(payload)})
}

func newTestClient(ctrl *fakeController) (*Client, *recorder) {
	rec := &recorder{}
	c := New(Config{Server: "localhost", Port: "1883", ClientPrefix: "VISCABridge-"}, ctrl, pubsub.New())
	c.publish = rec.publish
	return c, rec
}

func TestConfig_BrokerURL(t *testing.T) {
	assert.Equal(t, "tcp://192.168.2.11:1883", Config{Server: "192.168.2.11", Port: "1883"}.BrokerURL())
	assert.Equal(t, "tcp://[::1]:1884", Config{Server: "::1", Port: "1884"}.BrokerURL())
}

func TestClientID(t *testing.T) {
	id := ClientID("VISCABridge-")
	require.True(t, strings.HasPrefix(id, "VISCABridge-"))
	suffix := strings.TrimPrefix(id, "VISCABridge-")
	assert.NotEmpty(t, suffix)
	assert.LessOrEqual(t, len(suffix), 4)
}

func TestHandleCommand_Dispatches(t *testing.T) {
	ctrl := &fakeController{}
	c, rec := newTestClient(ctrl)

	c.handleCommand("visca/command/blinkenlights", []byte(`{"cam":0,"led":2,"mode":1}`))
	c.handleCommand("visca/command/moveby", []byte(`{"cam":1,"x":50}`))

	assert.Equal(t, []protocol.Request{
		protocol.Blink{Cam: 0, LED: 2, Mode: 1},
		protocol.MoveBy{Cam: 1, DX: 50},
	}, ctrl.reqs)
	assert.Empty(t, rec.out)
}

func TestHandleCommand_ReportsErrorsOnStatus(t *testing.T) {
	c, rec := newTestClient(&fakeController{})

	c.handleCommand("visca/command/dance", nil)
	require.Len(t, rec.out, 1)
	assert.Equal(t, protocol.TopicStatus, rec.out[0].topic)
	assert.Contains(t, rec.out[0].payload, "unknown command")

	c, rec = newTestClient(&fakeController{err: errors.New("link down")})
	c.handleCommand("visca/command/inquire", nil)
	require.Len(t, rec.out, 1)
	assert.Contains(t, rec.out[0].payload, "link down")
}

func TestForward(t *testing.T) {
	c, rec := newTestClient(&fakeController{})

	c.forward(pubsub.TopicData, visca.ParseReply(visca.Frame{0x90, 0x41, 0xFF}))
	c.forward(pubsub.TopicStatus, "raw 5 bytes")
	c.forward(pubsub.TopicStatus, 42)

	require.Len(t, rec.out, 2)
	assert.Equal(t, published{protocol.TopicData, "\x90\x41\xff"}, rec.out[0])
	assert.Equal(t, published{protocol.TopicStatus, "raw 5 bytes"}, rec.out[1])
}

func TestConnected_DefaultsFalse(t *testing.T) {
	c, _ := newTestClient(&fakeController{})
	assert.False(t, c.Connected())
}
