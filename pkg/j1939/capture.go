// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// CaptureVersion is written in every capture header
const CaptureVersion = 1

// CaptureHeader is the first item of a capture stream
type CaptureHeader struct {
	Version int    `cbor:"0,keyasint"`
	Created int64  `cbor:"1,keyasint"` // Unix nanoseconds
	Source  string `cbor:"2,keyasint,omitempty"`
}

// CaptureRecord is one captured frame
type CaptureRecord struct {
	Timestamp int64  `cbor:"0,keyasint"` // Unix nanoseconds
	ID        uint32 `cbor:"1,keyasint"`
	Data      []byte `cbor:"2,keyasint"`
}

// CaptureWriter writes a header followed by a sequence of CBOR records
type CaptureWriter struct {
	enc *cbor.Encoder
}

// NewCaptureWriter writes the capture header to w
func NewCaptureWriter(w io.Writer, source string) (*CaptureWriter, error) {
	enc := cbor.NewEncoder(w)
	header := CaptureHeader{Version: CaptureVersion, Created: time.Now().UnixNano(), Source: source}
	if err := enc.Encode(header); err != nil {
		return nil, fmt.Errorf("failed to write capture header: %w", err)
	}
	return &CaptureWriter{enc: enc}, nil
}

// Write appends a frame. Frames without a timestamp are stamped with the current time.
func (c *CaptureWriter) Write(f Frame) error {
	ts := f.Timestamp()
	if ts.IsZero() {
		ts = time.Now()
	}
	record := CaptureRecord{Timestamp: ts.UnixNano(), ID: f.ID().Raw(), Data: f.PDU()}
	if err := c.enc.Encode(record); err != nil {
		return fmt.Errorf("failed to write capture record: %w", err)
	}
	return nil
}

// CaptureReader reads frames written by CaptureWriter
type CaptureReader struct {
	dec    *cbor.Decoder
	header CaptureHeader
}

// NewCaptureReader reads and checks the capture header
func NewCaptureReader(r io.Reader) (*CaptureReader, error) {
	dec := cbor.NewDecoder(r)
	var header CaptureHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}
	if header.Version != CaptureVersion {
		return nil, fmt.Errorf("unsupported capture version %d: %w", header.Version, ErrMalformed)
	}
	return &CaptureReader{dec: dec, header: header}, nil
}

// Header returns the capture header
func (c *CaptureReader) Header() CaptureHeader {
	return c.header
}

// Read returns the next frame, or io.EOF at the end of the capture
func (c *CaptureReader) Read() (Frame, error) {
	var record CaptureRecord
	if err := c.dec.Decode(&record); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("failed to read capture record: %w", err)
	}
	f, err := ParseFrame(NewID(record.ID), record.Data)
	if err != nil {
		return Frame{}, err
	}
	return f.WithTimestamp(time.Unix(0, record.Timestamp)), nil
}
