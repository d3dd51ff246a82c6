// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package canlink

import (
	"context"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/rs/zerolog"
)

// LogOption selects which operations a logged link records
type LogOption uint8

const (
	LogNone  LogOption = 0
	LogRead  LogOption = 1 << 0
	LogWrite LogOption = 1 << 1
	LogAll             = LogRead | LogWrite
)

// NewLoggedLink wraps inner and logs the selected operations at the given
// level. Frames rejected by filter are passed through without logging; a nil
// filter logs everything.
func NewLoggedLink(inner Link, logger zerolog.Logger, level zerolog.Level, opts LogOption, filter j1939.FrameFilter) Link {
	return &loggedLink{
		inner:  inner,
		logger: logger.With().Str("component", "canlink").Logger(),
		level:  level,
		opts:   opts,
		filter: filter,
	}
}

type loggedLink struct {
	inner  Link
	logger zerolog.Logger
	level  zerolog.Level
	opts   LogOption
	filter j1939.FrameFilter
}

func (l *loggedLink) wants(f j1939.Frame) bool {
	return l.filter == nil || l.filter(f)
}

func (l *loggedLink) event(msg string, f j1939.Frame) {
	id := f.ID()
	l.logger.WithLevel(l.level).
		Str("id", CandumpString(f)).
		Str("pgn", j1939.FormatPGN(id.PGN())).
		Uint8("sa", id.SourceAddress()).
		Int("len", f.Len()).
		Hex("data", f.PDU()).
		Msg(msg)
}

func (l *loggedLink) Send(ctx context.Context, frame j1939.Frame) error {
	logged := l.opts&LogWrite != 0 && l.wants(frame)
	if logged {
		l.event("send", frame)
	}
	err := l.inner.Send(ctx, frame)
	if logged && err != nil {
		l.logger.Error().Err(err).Uint32("id", frame.ID().Raw()).Msg("send failed")
	}
	return err
}

func (l *loggedLink) Receive(ctx context.Context) (j1939.Frame, error) {
	f, err := l.inner.Receive(ctx)
	if l.opts&LogRead == 0 {
		return f, err
	}
	if err != nil {
		if ctx.Err() == nil {
			l.logger.Error().Err(err).Msg("receive failed")
		}
		return f, err
	}
	if l.wants(f) {
		l.event("receive", f)
	}
	return f, nil
}

// Close closes the inner link without logging
func (l *loggedLink) Close() error {
	return l.inner.Close()
}
