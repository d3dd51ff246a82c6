// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks frame statistics and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames       uint64
	ValidFrames       uint64
	DecodeErrors      uint64
	TransportErrors   uint64
	MalformedFrames   uint64
	LengthMismatches  uint64
	InvalidCounts     uint64
	InvalidAddresses  uint64
	AnomalousValues   uint64
	ErrorIndicators   uint64
	ReservedBits      uint64
	TransportMessages uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update updates statistics based on a frame and its errors.
// Pass a nil frame with a non-nil decodeErr for link or transport failures.
func (s *Statistics) Update(frame *Frame, decodeErr error, validationErrors []ValidationError) {
	s.TotalFrames++
	s.LastUpdateTime = time.Now()

	if decodeErr != nil {
		if errors.Is(decodeErr, ErrProtocolViolation) {
			s.TransportErrors++
		} else {
			s.DecodeErrors++
		}
		return
	}

	if len(validationErrors) == 0 {
		s.ValidFrames++
		return
	}

	for _, err := range validationErrors {
		switch err.Type {
		case AnomalyLengthMismatch:
			s.LengthMismatches++
			s.MalformedFrames++
		case AnomalyInvalidCount:
			s.InvalidCounts++
			s.MalformedFrames++
		case AnomalyInvalidAddress:
			s.InvalidAddresses++
			s.MalformedFrames++
		case AnomalyReservedBits:
			s.ReservedBits++
			s.MalformedFrames++
		case AnomalyInvalidValue:
			s.AnomalousValues++
		case AnomalyErrorIndicator:
			s.ErrorIndicators++
			s.AnomalousValues++
		case AnomalyTransportError:
			s.TransportErrors++
		case AnomalyDecodeError:
			s.DecodeErrors++
		}
	}
}

// RecordMessage counts a completed transport message
func (s *Statistics) RecordMessage() {
	s.TransportMessages++
}

// TotalErrors returns the sum of all error counters
func (s *Statistics) TotalErrors() uint64 {
	return s.DecodeErrors + s.TransportErrors + s.MalformedFrames + s.AnomalousValues
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.TotalErrors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	percent := func(n uint64) float64 {
		if s.TotalFrames == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:     %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:     %8d (%.1f%%)\n", s.ValidFrames, percent(s.ValidFrames))

	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:    %8d (%.1f%%)\n", s.DecodeErrors, percent(s.DecodeErrors))
	}
	if s.TransportErrors > 0 {
		result += fmt.Sprintf("Transport Errors: %8d (%.1f%%)\n", s.TransportErrors, percent(s.TransportErrors))
	}
	if s.MalformedFrames > 0 {
		result += fmt.Sprintf("Malformed Frames: %8d (%.1f%%)\n", s.MalformedFrames, percent(s.MalformedFrames))
		if s.LengthMismatches > 0 {
			result += fmt.Sprintf("  Length Mismatch:  %5d\n", s.LengthMismatches)
		}
		if s.InvalidCounts > 0 {
			result += fmt.Sprintf("  Invalid Counts:   %5d\n", s.InvalidCounts)
		}
		if s.InvalidAddresses > 0 {
			result += fmt.Sprintf("  Invalid Address:  %5d\n", s.InvalidAddresses)
		}
		if s.ReservedBits > 0 {
			result += fmt.Sprintf("  Reserved Bits:    %5d\n", s.ReservedBits)
		}
	}
	if s.AnomalousValues > 0 {
		result += fmt.Sprintf("Anomalous Values: %8d (%.1f%%)\n", s.AnomalousValues, percent(s.AnomalousValues))
		if s.ErrorIndicators > 0 {
			result += fmt.Sprintf("  Error Indicators: %5d\n", s.ErrorIndicators)
		}
	}
	if s.TransportMessages > 0 {
		result += fmt.Sprintf("BAM Messages:     %8d\n", s.TransportMessages)
	}

	result += fmt.Sprintf("Frame Rate:       %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:       %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
