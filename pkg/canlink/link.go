// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package canlink connects J1939 frames to a physical or virtual CAN bus.
//
// Every transport implements Link. The available transports are an
// in-memory loopback, an SLCAN adapter on a serial port, a WebSocket bridge
// carrying SocketCAN frames, and a native SocketCAN interface on Linux.
package canlink

import (
	"context"
	"errors"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
)

// ErrClosed is returned by operations on a closed link
var ErrClosed = errors.New("canlink: link closed")

// Link sends and receives J1939 frames
type Link interface {
	// Send transmits one frame, blocking until it is accepted or ctx is done
	Send(ctx context.Context, frame j1939.Frame) error

	// Receive waits for the next frame. Received frames carry a timestamp.
	Receive(ctx context.Context) (j1939.Frame, error)

	Close() error
}

// NewFilteredLink wraps inner so that Receive only returns frames accepted by filter
func NewFilteredLink(inner Link, filter j1939.FrameFilter) Link {
	if filter == nil {
		return inner
	}
	return &filteredLink{Link: inner, filter: filter}
}

type filteredLink struct {
	Link
	filter j1939.FrameFilter
}

func (l *filteredLink) Receive(ctx context.Context) (j1939.Frame, error) {
	for {
		f, err := l.Link.Receive(ctx)
		if err != nil || l.filter(f) {
			return f, err
		}
	}
}
