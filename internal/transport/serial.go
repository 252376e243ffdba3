package transport

import (
	"fmt"

	"go.bug.st/serial"
)

type serialLink struct {
	serial.Port
	device string
}

// openSerial opens a serial port 8N1 at the configured baud rate
func openSerial(cfg Config) (Link, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("transport: serial device is required")
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return &serialLink{Port: port, device: cfg.Device}, nil
}

func (l *serialLink) String() string {
	return "serial:" + l.device
}
