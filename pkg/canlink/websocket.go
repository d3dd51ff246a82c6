// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package canlink

import (
	"context"
	"sync"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/gorilla/websocket"
)

// WebSocketLink exchanges SocketCAN frames over binary WebSocket messages.
// A received message may carry several 16-byte frames back to back.
type WebSocketLink struct {
	conn    *websocket.Conn
	opts    options
	rx      *receiver
	writeMu sync.Mutex
}

// NewWebSocketLink starts reading from an established connection
func NewWebSocketLink(conn *websocket.Conn, opts ...Option) *WebSocketLink {
	l := &WebSocketLink{conn: conn, opts: newOptions(opts)}
	l.rx = newReceiver(l.opts.queueSize)
	go l.readLoop()
	return l
}

func (l *WebSocketLink) readLoop() {
	for {
		messageType, data, err := l.conn.ReadMessage()
		if err != nil {
			l.rx.finish(err)
			return
		}

		// Non-binary messages carry no frames
		if messageType != websocket.BinaryMessage {
			continue
		}

		now := time.Now()
		for len(data) > 0 {
			f, err := UnmarshalFrame(data)
			if len(data) < SocketCANFrameSize {
				l.opts.reportError(err)
				break
			}
			data = data[SocketCANFrameSize:]
			if err != nil {
				l.opts.reportError(err)
				continue
			}
			if !l.rx.publish(f.WithTimestamp(now)) {
				l.rx.finish(nil)
				return
			}
		}
	}
}

// Send writes one frame as a binary message. The context deadline, if any,
// becomes the write deadline.
func (l *WebSocketLink) Send(ctx context.Context, frame j1939.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.rx.closed() {
		return ErrClosed
	}
	buf := MarshalFrame(frame)

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	deadline, _ := ctx.Deadline()
	if err := l.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return l.conn.WriteMessage(websocket.BinaryMessage, buf[:])
}

func (l *WebSocketLink) Receive(ctx context.Context) (j1939.Frame, error) {
	return l.rx.receive(ctx)
}

// Close sends a close message and closes the connection
func (l *WebSocketLink) Close() error {
	if !l.rx.shutdown() {
		return nil
	}
	l.writeMu.Lock()
	l.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	l.writeMu.Unlock()
	return l.conn.Close()
}
