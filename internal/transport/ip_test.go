package transport

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visca-bridge/internal/visca"
)

func TestBuildVISCAOverIP(t *testing.T) {
	l := newIPLink(nil, KindUDP, "camera:52381", 0)

	first := l.buildVISCAOverIP([]byte{0x81, 0x09, 0x06, 0x12, 0xFF})
	second := l.buildVISCAOverIP([]byte{0x81, 0xFF})

	assert.Equal(t, []byte{0x01, 0x00}, first[0:2])
	assert.Equal(t, uint16(5), binary.BigEndian.Uint16(first[2:4]))
	assert.Equal(t, uint32(0), binary.BigEndian.Uint32(first[4:8]))
	assert.Equal(t, []byte{0x81, 0x09, 0x06, 0x12, 0xFF}, first[8:])
	assert.Equal(t, uint32(1), binary.BigEndian.Uint32(second[4:8]))
}

func TestStripIPHeader(t *testing.T) {
	reply := []byte{0x01, 0x11, 0x00, 0x03, 0x00, 0x00, 0x00, 0x07, 0x90, 0x41, 0xFF}
	assert.Equal(t, []byte{0x90, 0x41, 0xFF}, stripIPHeader(reply))

	raw := []byte{0x90, 0x50, 0xFF}
	assert.Equal(t, raw, stripIPHeader(raw))

	badLength := []byte{0x01, 0x11, 0x00, 0x09, 0x00, 0x00, 0x00, 0x07, 0x90, 0x41, 0xFF}
	assert.Equal(t, badLength, stripIPHeader(badLength))
}

func TestIPLink_UDPSplitsBurst(t *testing.T) {
	server, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()

	link, err := Open(Config{Kind: KindUDP, Address: server.LocalAddr().String(), ReadTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer link.Close()

	burst := visca.RelativeMove(0, 50, 0)
	n, err := link.Write(burst)
	require.NoError(t, err)
	assert.Equal(t, len(burst), n)

	buf := make([]byte, 64)
	var from net.Addr
	for i, want := range burst.Messages() {
		require.NoError(t, server.SetReadDeadline(time.Now().Add(time.Second)))
		var got int
		got, from, err = server.ReadFrom(buf)
		require.NoError(t, err)
		assert.Equal(t, uint32(i), binary.BigEndian.Uint32(buf[4:8]))
		assert.Equal(t, []byte(want), buf[ipHeaderSize:got])
	}

	// a reply comes back without its header
	_, err = server.WriteTo([]byte{0x01, 0x11, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, 0x90, 0x41, 0xFF}, from)
	require.NoError(t, err)

	rx := make([]byte, 16)
	var got int
	for deadline := time.Now().Add(time.Second); got == 0 && time.Now().Before(deadline); {
		got, err = link.Read(rx)
		require.NoError(t, err)
	}
	assert.Equal(t, []byte{0x90, 0x41, 0xFF}, rx[:got])
}

func TestIPLink_ReadTimeoutIsNotAnError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	link, err := Open(Config{Kind: KindTCP, Address: ln.Addr().String(), ReadTimeout: 10 * time.Millisecond})
	require.NoError(t, err)
	defer link.Close()

	n, err := link.Read(make([]byte, 8))
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, "tcp:"+ln.Addr().String(), link.String())
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(Config{Kind: "carrier-pigeon"})
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Open(Config{Kind: KindUDP})
	assert.Error(t, err)

	_, err = Open(Config{Kind: KindSerial})
	assert.Error(t, err)

	_, err = Open(Config{Kind: KindTarm})
	assert.Error(t, err)
}
