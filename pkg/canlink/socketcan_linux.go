// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build linux

package canlink

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"go.einride.tech/can/pkg/socketcan"
)

// SocketCANLink is a native Linux CAN interface such as can0 or vcan0
type SocketCANLink struct {
	conn net.Conn
	tx   *socketcan.Transmitter
	opts options
	rx   *receiver
}

// DialSocketCAN opens a raw CAN socket bound to iface
func DialSocketCAN(ctx context.Context, iface string, opts ...Option) (Link, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("canlink: dial %s: %w", iface, err)
	}
	l := &SocketCANLink{
		conn: conn,
		tx:   socketcan.NewTransmitter(conn),
		opts: newOptions(opts),
	}
	l.rx = newReceiver(l.opts.queueSize)
	go l.readLoop(socketcan.NewReceiver(conn))
	return l, nil
}

func (l *SocketCANLink) readLoop(recv *socketcan.Receiver) {
	for recv.Receive() {
		if recv.HasErrorFrame() {
			l.opts.reportError(fmt.Errorf("%w: %v", ErrErrorFrame, recv.ErrorFrame()))
			continue
		}
		f, err := FromCAN(recv.Frame())
		if err != nil {
			l.opts.reportError(err)
			continue
		}
		if !l.rx.publish(f.WithTimestamp(time.Now())) {
			l.rx.finish(nil)
			return
		}
	}
	l.rx.finish(recv.Err())
}

func (l *SocketCANLink) Send(ctx context.Context, frame j1939.Frame) error {
	if l.rx.closed() {
		return ErrClosed
	}
	return l.tx.TransmitFrame(ctx, ToCAN(frame))
}

func (l *SocketCANLink) Receive(ctx context.Context) (j1939.Frame, error) {
	return l.rx.receive(ctx)
}

func (l *SocketCANLink) Close() error {
	if !l.rx.shutdown() {
		return nil
	}
	return l.conn.Close()
}
