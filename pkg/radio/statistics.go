// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import (
	"fmt"
	"time"
)

// Statistics tracks link traffic and fault counters
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Traffic
	FramesReceived uint64
	FramesSent     uint64
	ChunksSent     uint64
	BytesReceived  uint64
	BytesSent      uint64
	EmptyReads     uint64

	// Faults
	JunkFaults    uint64
	DecodeFaults  uint64
	GateTimeouts  uint64
	Resets        uint64
	ResetFailures uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec, both directions
	FaultRate float64 // faults/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Faults returns the total number of link faults
func (s *Statistics) Faults() uint64 {
	return s.JunkFaults + s.DecodeFaults + s.GateTimeouts
}

func (s *Statistics) touch() {
	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates frame and fault rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.FramesReceived+s.FramesSent) / elapsed
		s.FaultRate = float64(s.Faults()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Link Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Frames Received: %8d (%d bytes)\n", s.FramesReceived, s.BytesReceived)
	result += fmt.Sprintf("Frames Sent:     %8d (%d chunks, %d bytes)\n", s.FramesSent, s.ChunksSent, s.BytesSent)
	result += fmt.Sprintf("Empty Reads:     %8d\n", s.EmptyReads)

	if s.Faults() > 0 {
		result += fmt.Sprintf("Faults:          %8d\n", s.Faults())
		if s.JunkFaults > 0 {
			result += fmt.Sprintf("  Junk Markers:     %5d\n", s.JunkFaults)
		}
		if s.DecodeFaults > 0 {
			result += fmt.Sprintf("  Decode Errors:    %5d\n", s.DecodeFaults)
		}
		if s.GateTimeouts > 0 {
			result += fmt.Sprintf("  Busy Timeouts:    %5d\n", s.GateTimeouts)
		}
	}
	if s.Resets > 0 || s.ResetFailures > 0 {
		result += fmt.Sprintf("Resets:          %8d (%d failed)\n", s.Resets, s.ResetFailures)
	}

	result += fmt.Sprintf("Frame Rate:      %8.2f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Fault Rate:      %8.2f faults/sec\n", s.FaultRate)
	result += "=====================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
