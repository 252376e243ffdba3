package transport

import (
	"errors"
	"fmt"
	"io"

	"github.com/tarm/serial"
)

// tarmLink adapts tarm/serial, which reports a read timeout as io.EOF.
type tarmLink struct {
	port   *serial.Port
	device string
}

func openTarm(cfg Config) (Link, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("transport: serial device is required")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.BaudRate,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return &tarmLink{port: port, device: cfg.Device}, nil
}

func (l *tarmLink) Read(p []byte) (int, error) {
	n, err := l.port.Read(p)
	if errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}

func (l *tarmLink) Write(p []byte) (int, error) { return l.port.Write(p) }
func (l *tarmLink) Close() error                { return l.port.Close() }
func (l *tarmLink) String() string              { return "tarm:" + l.device }
