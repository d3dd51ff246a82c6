// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package canlink

import (
	"context"
	"sync"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
)

// loopbackQueue is the per-endpoint receive buffer
const loopbackQueue = 64

// Loopback is an in-memory bus. Frames sent by one endpoint are delivered
// to every other endpoint opened on the same bus.
type Loopback struct {
	mu        sync.RWMutex
	closed    bool
	endpoints map[*loopEndpoint]struct{}
}

// NewLoopback creates an empty bus
func NewLoopback() *Loopback {
	return &Loopback{endpoints: make(map[*loopEndpoint]struct{})}
}

// Open attaches a new endpoint to the bus
func (b *Loopback) Open() Link {
	ep := &loopEndpoint{
		bus:  b,
		ch:   make(chan j1939.Frame, loopbackQueue),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		ep.dead = true
		close(ep.done)
		return ep
	}
	b.endpoints[ep] = struct{}{}
	return ep
}

// Close detaches and closes every endpoint
func (b *Loopback) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for ep := range b.endpoints {
		ep.shutdown()
	}
	b.endpoints = nil
	return nil
}

type loopEndpoint struct {
	bus  *Loopback
	ch   chan j1939.Frame
	mu   sync.Mutex
	dead bool
	done chan struct{}
}

// Send delivers the frame to every other endpoint. A full receiver blocks
// the sender until it drains, closes, or ctx is done.
func (e *loopEndpoint) Send(ctx context.Context, frame j1939.Frame) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}

	e.bus.mu.RLock()
	if e.bus.closed {
		e.bus.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]*loopEndpoint, 0, len(e.bus.endpoints))
	for ep := range e.bus.endpoints {
		if ep != e {
			targets = append(targets, ep)
		}
	}
	e.bus.mu.RUnlock()

	frame = frame.WithTimestamp(time.Now())
	for _, t := range targets {
		if err := t.deliver(ctx, frame); err != nil {
			return err
		}
	}
	return nil
}

// deliver queues a frame unless the endpoint has gone away
func (e *loopEndpoint) deliver(ctx context.Context, frame j1939.Frame) error {
	select {
	case e.ch <- frame:
		return nil
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *loopEndpoint) Receive(ctx context.Context) (j1939.Frame, error) {
	select {
	case f := <-e.ch:
		return f, nil
	case <-e.done:
		return j1939.Frame{}, ErrClosed
	case <-ctx.Done():
		return j1939.Frame{}, ctx.Err()
	}
}

func (e *loopEndpoint) Close() error {
	e.bus.mu.Lock()
	defer e.bus.mu.Unlock()
	e.shutdown()
	if e.bus.endpoints != nil {
		delete(e.bus.endpoints, e)
	}
	return nil
}

// shutdown marks the endpoint dead. Caller holds the bus lock.
func (e *loopEndpoint) shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead {
		return
	}
	e.dead = true
	close(e.done)
}
