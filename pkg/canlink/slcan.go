// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package canlink

import (
	"context"
	"io"
	"sync"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/Thermoquad/j1939stat/pkg/slcan"
)

// SLCANLink speaks the Lawicel ASCII protocol over a serial port or any
// other byte stream
type SLCANLink struct {
	rwc     io.ReadWriteCloser
	opts    options
	rx      *receiver
	writeMu sync.Mutex
}

// NewSLCANLink opens the adapter channel on rwc and starts reading. With
// WithBitrate the channel is closed, set to the bitrate and reopened.
func NewSLCANLink(rwc io.ReadWriteCloser, opts ...Option) (*SLCANLink, error) {
	l := &SLCANLink{rwc: rwc, opts: newOptions(opts)}
	l.rx = newReceiver(l.opts.queueSize)

	if err := l.setup(); err != nil {
		rwc.Close()
		return nil, err
	}

	go l.readLoop()
	return l, nil
}

func (l *SLCANLink) setup() error {
	var cmds [][]byte
	if l.opts.bitrate > 0 {
		bitrate, err := slcan.BitrateCommand(l.opts.bitrate)
		if err != nil {
			return err
		}
		cmds = append(cmds, slcan.CloseCommand(), bitrate)
	}
	if l.opts.listenOnly {
		cmds = append(cmds, slcan.ListenOnlyCommand())
	} else {
		cmds = append(cmds, slcan.OpenCommand())
	}
	for _, cmd := range cmds {
		if _, err := l.rwc.Write(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (l *SLCANLink) readLoop() {
	decoder := slcan.NewDecoder()
	buf := make([]byte, 256)
	for {
		n, err := l.rwc.Read(buf)
		for i := 0; i < n; i++ {
			f, derr := decoder.DecodeByte(buf[i])
			if derr != nil {
				l.opts.reportError(derr)
				continue
			}
			if f != nil && !l.rx.publish(*f) {
				l.rx.finish(nil)
				return
			}
		}
		if err != nil {
			l.rx.finish(err)
			return
		}
	}
}

// Send writes one transmit line
func (l *SLCANLink) Send(ctx context.Context, frame j1939.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.rx.closed() {
		return ErrClosed
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_, err := l.rwc.Write(slcan.EncodeFrame(frame))
	return err
}

func (l *SLCANLink) Receive(ctx context.Context) (j1939.Frame, error) {
	return l.rx.receive(ctx)
}

// Close closes the adapter channel and the underlying stream
func (l *SLCANLink) Close() error {
	if !l.rx.shutdown() {
		return nil
	}
	l.writeMu.Lock()
	l.rwc.Write(slcan.CloseCommand())
	l.writeMu.Unlock()
	return l.rwc.Close()
}
