// Package ptz defines the camera control surface shared by the HTTP,
// WebSocket and message-bus front ends.
package ptz

import (
	"context"
	"fmt"

	"visca-bridge/internal/protocol"
	"visca-bridge/internal/visca"
)

// Controller defines the interface the control surfaces (HTTP, WebSocket,
// message bus) use to drive the cameras
type Controller interface {
	// Execute applies one request and writes the resulting frames
	Execute(ctx context.Context, req protocol.Request) error

	// Positions returns the stored position of every camera
	Positions(ctx context.Context) ([]visca.Position, error)

	// Cameras returns the number of addressed cameras
	Cameras() int

	// Transport names the link the frames are written to
	Transport() string
}

// Dispatch parses a named command (or bus topic) and executes every request
// it yields, in order. It stops at the first failure and returns how many
// requests were applied.
func Dispatch(ctx context.Context, ctrl Controller, name string, payload []byte) (int, error) {
	reqs, err := protocol.ParseCommand(name, payload, ctrl.Cameras())
	if err != nil {
		return 0, err
	}
	for i, req := range reqs {
		if err := ctrl.Execute(ctx, req); err != nil {
			return i, fmt.Errorf("%s: %w", protocol.CommandName(name), err)
		}
	}
	return len(reqs), nil
}
