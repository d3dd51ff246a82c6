// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/canlink"
	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/Thermoquad/j1939stat/pkg/slcan"
)

// frameEvent is one step of link analysis: a validated frame, a completed
// transport message, or an error
type frameEvent struct {
	frame            *j1939.Frame
	decodeErr        error
	validationErrors []j1939.ValidationError
	message          *j1939.Message
	expired          []uint8
}

// countsAsDecodeError reports whether a skipped frame indicates line noise
// or adapter trouble, as opposed to valid non-J1939 traffic
func countsAsDecodeError(err error) bool {
	return errors.Is(err, j1939.ErrMalformed) ||
		errors.Is(err, slcan.ErrAdapter) ||
		errors.Is(err, canlink.ErrErrorFrame)
}

// openWatchedLink opens the configured link and returns a channel of
// analysis events. The channel closes when the link fails or ctx ends.
func openWatchedLink(ctx context.Context) (canlink.Link, <-chan frameEvent, string, error) {
	events := make(chan frameEvent, 100)

	link, connInfo, err := OpenLink(ctx, func(err error) {
		if !countsAsDecodeError(err) {
			return
		}
		select {
		case events <- frameEvent{decodeErr: err}:
		default:
			logger.Warn().Err(err).Msg("event queue full, dropping link error")
		}
	})
	if err != nil {
		return nil, nil, "", err
	}

	go func() {
		defer close(events)
		watchLink(ctx, link, events)
	}()
	return link, events, connInfo, nil
}

// watchLink validates every received frame, reassembles BAM transfers and
// reports stale sessions
func watchLink(ctx context.Context, link canlink.Link, events chan<- frameEvent) {
	reassembler := j1939.NewReassembler(cfg.SessionTimeout, logger)

	send := func(ev frameEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		frame, err := link.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, canlink.ErrClosed) {
				logger.Error().Err(err).Msg("receive failed")
			}
			return
		}
		now := time.Now()

		if expired := reassembler.Expire(now); len(expired) > 0 {
			if !send(frameEvent{expired: expired}) {
				return
			}
		}

		ev := frameEvent{frame: &frame, validationErrors: j1939.ValidateFrame(frame)}
		msg, err := reassembler.Feed(frame, now)
		if err != nil {
			ev.validationErrors = append(ev.validationErrors, j1939.TransportValidationError(err))
		}
		ev.message = msg
		if !send(ev) {
			return
		}
	}
}
