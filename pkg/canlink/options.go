// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package canlink

import (
	"context"
	"fmt"
	"sync"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
)

const defaultQueueSize = 256

type options struct {
	queueSize  int
	onError    func(error)
	bitrate    int
	listenOnly bool
}

// Option configures a stream or SocketCAN link
type Option func(*options)

// WithQueueSize sets how many received frames are buffered before the reader
// stops pulling from the transport
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithErrorHandler registers a callback for frames that could not be decoded.
// Such frames are skipped by Receive.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithBitrate makes an SLCAN link configure the adapter's bus speed before opening
func WithBitrate(bitrate int) Option {
	return func(o *options) {
		o.bitrate = bitrate
	}
}

// WithListenOnly opens an SLCAN adapter in listen-only mode
func WithListenOnly() Option {
	return func(o *options) {
		o.listenOnly = true
	}
}

func newOptions(opts []Option) options {
	o := options{queueSize: defaultQueueSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) reportError(err error) {
	if o.onError != nil {
		o.onError(err)
	}
}

// receiver hands frames from a background read loop to Receive
type receiver struct {
	frames    chan j1939.Frame
	done      chan struct{}
	closeOnce sync.Once
	err       error
}

func newReceiver(size int) *receiver {
	return &receiver{
		frames: make(chan j1939.Frame, size),
		done:   make(chan struct{}),
	}
}

// publish queues a frame, returning false once the link is closed
func (r *receiver) publish(f j1939.Frame) bool {
	select {
	case r.frames <- f:
		return true
	case <-r.done:
		return false
	}
}

// finish ends the read loop with its terminal error
func (r *receiver) finish(err error) {
	r.err = err
	close(r.frames)
}

// shutdown stops publishing. Returns true on the first call.
func (r *receiver) shutdown() bool {
	first := false
	r.closeOnce.Do(func() {
		first = true
		close(r.done)
	})
	return first
}

func (r *receiver) closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *receiver) receive(ctx context.Context) (j1939.Frame, error) {
	select {
	case f, ok := <-r.frames:
		if ok {
			return f, nil
		}
		if r.closed() || r.err == nil {
			return j1939.Frame{}, ErrClosed
		}
		return j1939.Frame{}, fmt.Errorf("canlink: read: %w", r.err)
	case <-r.done:
		return j1939.Frame{}, ErrClosed
	case <-ctx.Done():
		return j1939.Frame{}, ctx.Err()
	}
}
