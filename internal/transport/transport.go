// Package transport opens the link VISCA frames are written to and reply
// bytes are read from.
package transport

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Link kinds
const (
	KindSerial = "serial" // go.bug.st/serial
	KindTarm   = "tarm"   // github.com/tarm/serial
	KindTCP    = "tcp"    // raw VISCA over a TCP stream
	KindUDP    = "udp"    // VISCA over IP
)

var ErrUnsupported = errors.New("transport: unsupported link kind")

// Link is a byte pipe to the camera bus. Read may return 0, nil when the
// read timeout expires with nothing received; any error means the link is
// unusable.
type Link interface {
	io.ReadWriteCloser
	// String names the link for logs and status
	String() string
}

// Config for opening a link
type Config struct {
	Kind        string
	Device      string // serial device, e.g. /dev/ttyUSB0
	BaudRate    int
	Address     string // host:port for tcp/udp
	ReadTimeout time.Duration
}

// DefaultConfig returns a 9600 8N1 serial configuration.
func DefaultConfig() Config {
	return Config{
		Kind:        KindSerial,
		Device:      "/dev/ttyUSB0",
		BaudRate:    9600,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Open opens the link described by cfg.
func Open(cfg Config) (Link, error) {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = 9600
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 100 * time.Millisecond
	}

	switch cfg.Kind {
	case KindSerial, "":
		return openSerial(cfg)
	case KindTarm:
		return openTarm(cfg)
	case KindTCP, KindUDP:
		return dialIP(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, cfg.Kind)
	}
}
