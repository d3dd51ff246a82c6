// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSessionTimeout is the T1 timeout between BAM data packets
const DefaultSessionTimeout = 750 * time.Millisecond

// Message is a payload reassembled from a broadcast transport session.
// A session completes once the highest packet fills the declared length, so
// packets that never arrived are not detected and read as 0xFF.
type Message struct {
	Source    uint8
	PGN       PGN
	Data      []byte
	Timestamp time.Time
}

type session struct {
	transport *BroadcastTransport
	opened    time.Time
	updated   time.Time
}

// Reassembler keeps one broadcast transport per source address. DataTransfer
// frames carry no PGN, so a sender has at most one open session.
// A Reassembler is not safe for concurrent use.
type Reassembler struct {
	sessions map[uint8]*session
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewReassembler creates a session table. Sessions idle longer than timeout
// are dropped by Expire. A timeout of zero uses DefaultSessionTimeout.
func NewReassembler(timeout time.Duration, logger zerolog.Logger) *Reassembler {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &Reassembler{
		sessions: make(map[uint8]*session),
		timeout:  timeout,
		logger:   logger.With().Str("component", "reassembler").Logger(),
	}
}

// Feed processes one frame. Non-transport frames are ignored. A completed
// message is returned once its last packet arrives.
func (r *Reassembler) Feed(frame Frame, now time.Time) (*Message, error) {
	sa := frame.ID().SourceAddress()

	switch frame.ID().PGN() {
	case PGNTransportProtocolConnectionManagement:
		s, ok := r.sessions[sa]
		if !ok {
			s = &session{transport: NewBroadcastTransport(sa, 0)}
		}
		if err := s.transport.FromFrame(frame); err != nil {
			return nil, err
		}
		if ok {
			r.logger.Debug().Uint8("sa", sa).Msg("session restarted by new announce")
		}
		s.opened = now
		s.updated = now
		r.sessions[sa] = s

		r.logger.Debug().
			Uint8("sa", sa).
			Str("pgn", s.transport.PGN().String()).
			Int("length", s.transport.DeclaredLength()).
			Int("packets", s.transport.PacketCount()).
			Msg("session opened")
		return r.complete(sa, s, now), nil

	case PGNTransportProtocolDataTransfer:
		s, ok := r.sessions[sa]
		if !ok {
			return nil, &ProtocolError{PGN: PGNTransportProtocolDataTransfer, Reason: "data transfer without announce"}
		}
		if err := s.transport.FromFrame(frame); err != nil {
			return nil, err
		}
		s.updated = now
		return r.complete(sa, s, now), nil

	default:
		return nil, nil
	}
}

func (r *Reassembler) complete(sa uint8, s *session, now time.Time) *Message {
	if !s.transport.IsComplete() {
		return nil
	}
	delete(r.sessions, sa)

	msg := &Message{
		Source:    sa,
		PGN:       s.transport.PGN(),
		Data:      append([]byte(nil), s.transport.Data()...),
		Timestamp: now,
	}
	r.logger.Debug().
		Uint8("sa", sa).
		Str("pgn", msg.PGN.String()).
		Int("length", len(msg.Data)).
		Dur("elapsed", now.Sub(s.opened)).
		Msg("session complete")
	return msg
}

// Expire drops sessions idle for longer than the timeout and returns their
// source addresses in ascending order
func (r *Reassembler) Expire(now time.Time) []uint8 {
	var expired []uint8
	for sa, s := range r.sessions {
		if now.Sub(s.updated) > r.timeout {
			expired = append(expired, sa)
			delete(r.sessions, sa)
			r.logger.Warn().
				Uint8("sa", sa).
				Str("pgn", s.transport.PGN().String()).
				Int("received", s.transport.Len()).
				Int("length", s.transport.DeclaredLength()).
				Msg("session timed out")
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i] < expired[j] })
	return expired
}

// Active returns the number of open sessions
func (r *Reassembler) Active() int {
	return len(r.sessions)
}

// Progress returns received and declared byte counts for an open session
func (r *Reassembler) Progress(sa uint8) (received, length int, ok bool) {
	s, ok := r.sessions[sa]
	if !ok {
		return 0, 0, false
	}
	return s.transport.Len(), s.transport.DeclaredLength(), true
}
