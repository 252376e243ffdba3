package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"visca-bridge/internal/visca"
)

const (
	ipHeaderSize = 8
	ipMaxPacket  = 1024
)

// VISCA over IP payload types
var (
	ipTypeCommand = [2]byte{0x01, 0x00}
	ipTypeReply   = [2]byte{0x01, 0x11}
)

// ipLink carries VISCA over TCP (raw) or UDP (VISCA over IP framing).
type ipLink struct {
	conn        net.Conn
	protocol    string
	address     string
	readTimeout time.Duration

	mu     sync.Mutex
	seqNum uint32

	rx []byte
}

func dialIP(cfg Config) (Link, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("transport: %s address is required", cfg.Kind)
	}

	conn, err := net.DialTimeout(cfg.Kind, cfg.Address, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to VISCA over %s: %w", cfg.Kind, err)
	}

	return newIPLink(conn, cfg.Kind, cfg.Address, cfg.ReadTimeout), nil
}

func newIPLink(conn net.Conn, protocol, address string, readTimeout time.Duration) *ipLink {
	return &ipLink{
		conn:        conn,
		protocol:    protocol,
		address:     address,
		readTimeout: readTimeout,
		rx:          make([]byte, ipMaxPacket),
	}
}

// buildVISCAOverIP wraps one VISCA message in VISCA-over-IP framing
func (l *ipLink) buildVISCAOverIP(msg []byte) []byte {
	// VISCA over IP header (8 bytes):
	// Bytes 0-1: Message type (0x01 0x00 for command)
	// Bytes 2-3: Payload length (big endian)
	// Bytes 4-7: Sequence number (big endian)
	packet := make([]byte, ipHeaderSize, ipHeaderSize+len(msg))
	packet[0] = ipTypeCommand[0]
	packet[1] = ipTypeCommand[1]
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(msg)))
	binary.BigEndian.PutUint32(packet[4:8], l.seqNum)
	l.seqNum++

	return append(packet, msg...)
}

// Write sends a burst. Over UDP every VISCA message of the burst goes out
// as its own datagram.
func (l *ipLink) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.protocol != KindUDP {
		return l.conn.Write(p)
	}

	written := 0
	for _, msg := range visca.Frame(p).Messages() {
		if _, err := l.conn.Write(l.buildVISCAOverIP(msg)); err != nil {
			return written, err
		}
		written += len(msg)
	}
	return written, nil
}

// Read returns reply bytes with any VISCA-over-IP header removed.
func (l *ipLink) Read(p []byte) (int, error) {
	if l.readTimeout > 0 {
		l.conn.SetReadDeadline(time.Now().Add(l.readTimeout))
	}

	if l.protocol != KindUDP {
		n, err := l.conn.Read(p)
		if isTimeout(err) {
			return n, nil
		}
		return n, err
	}

	n, err := l.conn.Read(l.rx)
	if isTimeout(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return copy(p, stripIPHeader(l.rx[:n])), nil
}

func (l *ipLink) Close() error {
	return l.conn.Close()
}

func (l *ipLink) String() string {
	return l.protocol + ":" + l.address
}

// stripIPHeader removes a VISCA-over-IP header whose length field matches
// the datagram; anything else is passed through as raw VISCA.
func stripIPHeader(pkt []byte) []byte {
	if len(pkt) <= ipHeaderSize {
		return pkt
	}
	if pkt[0] != ipTypeReply[0] || pkt[1] != ipTypeReply[1] {
		return pkt
	}
	if int(binary.BigEndian.Uint16(pkt[2:4])) != len(pkt)-ipHeaderSize {
		return pkt
	}
	return pkt[ipHeaderSize:]
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
