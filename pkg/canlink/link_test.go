// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package canlink

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"
)

func shortContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 50*time.Millisecond)
}

func TestLoopback(t *testing.T) {
	Convey("Given a loopback bus with two endpoints", t, func() {
		bus := NewLoopback()
		a := bus.Open()
		b := bus.Open()
		ctx := context.Background()

		Convey("A frame sent by one endpoint reaches the other", func() {
			sent := frameOf(0x18EA2010, 0x00, 0xEE, 0x00)
			So(a.Send(ctx, sent), ShouldBeNil)

			got, err := b.Receive(ctx)
			So(err, ShouldBeNil)
			So(got.ID(), ShouldResemble, sent.ID())
			So(got.PDU(), ShouldResemble, sent.PDU())
			So(got.Timestamp().IsZero(), ShouldBeFalse)

			Convey("The sender does not hear itself", func() {
				rctx, cancel := shortContext()
				defer cancel()
				_, err := a.Receive(rctx)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})

		Convey("A full receiver blocks the sender until the context ends", func() {
			for i := 0; i < loopbackQueue; i++ {
				So(a.Send(ctx, frameOf(0x18FEF7EA)), ShouldBeNil)
			}
			sctx, cancel := shortContext()
			defer cancel()
			So(errors.Is(a.Send(sctx, frameOf(0x18FEF7EA)), context.DeadlineExceeded), ShouldBeTrue)
		})

		Convey("Closed endpoints report ErrClosed", func() {
			So(b.Close(), ShouldBeNil)
			_, err := b.Receive(ctx)
			So(err, ShouldEqual, ErrClosed)
			So(b.Send(ctx, frameOf(0x18FEF7EA)), ShouldEqual, ErrClosed)

			// Sending to a bus with no other endpoints succeeds
			So(a.Send(ctx, frameOf(0x18FEF7EA)), ShouldBeNil)
		})

		Convey("Closing the bus closes every endpoint", func() {
			So(bus.Close(), ShouldBeNil)
			So(bus.Close(), ShouldBeNil)
			_, err := a.Receive(ctx)
			So(err, ShouldEqual, ErrClosed)
			So(b.Send(ctx, frameOf(0x18FEF7EA)), ShouldEqual, ErrClosed)

			late := bus.Open()
			_, err = late.Receive(ctx)
			So(err, ShouldEqual, ErrClosed)
		})
	})
}

func TestFilteredLink(t *testing.T) {
	Convey("A filtered link skips frames the filter rejects", t, func() {
		bus := NewLoopback()
		tx := bus.Open()
		rx := NewFilteredLink(bus.Open(), j1939.ByPGN(j1939.PGNRequest))
		ctx := context.Background()

		So(tx.Send(ctx, frameOf(0x18FEF7EA, 1, 2)), ShouldBeNil)
		So(tx.Send(ctx, frameOf(0x18EA2010, 0x00, 0xEE, 0x00)), ShouldBeNil)

		got, err := rx.Receive(ctx)
		So(err, ShouldBeNil)
		So(got.ID().PGN(), ShouldEqual, j1939.PGNRequest)
	})

	Convey("A nil filter returns the inner link", t, func() {
		inner := NewLoopback().Open()
		So(NewFilteredLink(inner, nil), ShouldEqual, inner)
	})
}

func TestLoggedLink(t *testing.T) {
	Convey("Given a logged link over a loopback bus", t, func() {
		var buf bytes.Buffer
		logger := zerolog.New(&buf)
		bus := NewLoopback()
		peer := bus.Open()
		ctx := context.Background()

		Convey("Sends and receives are logged", func() {
			l := NewLoggedLink(bus.Open(), logger, zerolog.InfoLevel, LogAll, nil)
			So(l.Send(ctx, frameOf(0x18EA2010, 0x00, 0xEE, 0x00)), ShouldBeNil)
			So(peer.Send(ctx, frameOf(0x18FEF7EA, 0xAB)), ShouldBeNil)
			_, err := l.Receive(ctx)
			So(err, ShouldBeNil)

			out := buf.String()
			So(out, ShouldContainSubstring, `"message":"send"`)
			So(out, ShouldContainSubstring, `"pgn":"RQST"`)
			So(out, ShouldContainSubstring, `"message":"receive"`)
			So(out, ShouldContainSubstring, `"data":"ab"`)
			So(out, ShouldContainSubstring, `"component":"canlink"`)
		})

		Convey("Only selected operations are logged", func() {
			l := NewLoggedLink(bus.Open(), logger, zerolog.InfoLevel, LogRead, nil)
			So(l.Send(ctx, frameOf(0x18EA2010, 0x00, 0xEE, 0x00)), ShouldBeNil)
			So(buf.Len(), ShouldEqual, 0)
		})

		Convey("Filtered frames are not logged", func() {
			l := NewLoggedLink(bus.Open(), logger, zerolog.InfoLevel, LogAll, j1939.BySource(0x00))
			So(l.Send(ctx, frameOf(0x18EA2010, 0x00, 0xEE, 0x00)), ShouldBeNil)
			So(buf.Len(), ShouldEqual, 0)
		})

		Convey("Receive errors are logged", func() {
			l := NewLoggedLink(bus.Open(), logger, zerolog.InfoLevel, LogAll, nil)
			So(l.Close(), ShouldBeNil)
			_, err := l.Receive(ctx)
			So(err, ShouldEqual, ErrClosed)
			So(buf.String(), ShouldContainSubstring, `"message":"receive failed"`)
		})
	})
}
