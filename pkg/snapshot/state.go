package snapshot

import "github.com/apache/arrow-go/v18/arrow"

// MarkerChannel is the capability an operator uses to interleave
// snapshot markers with data. Fault tolerance off selects the Disabled
// variant at construction time, so operator code never branches on a
// nil channel.
//
// The channel itself is excluded from capture/restore; the recovery
// mechanism rebuilds it when the pipeline restarts.
type MarkerChannel interface {
	// AbsorbMarker inspects an input batch. If it is a marker, the
	// marker is queued for forwarding and true is returned; the batch
	// must not be buffered as data. Data batches return false.
	AbsorbMarker(rec arrow.Record) bool

	// HasPendingMarker reports whether a marker is queued. Operators
	// must not report completion while this is true.
	HasPendingMarker() bool

	// NextMarker dequeues the oldest pending marker, transferring one
	// reference to the caller, or returns nil.
	NextMarker() arrow.Record

	// Close releases any queued markers. Idempotent.
	Close() error
}

type disabled struct{}

func (disabled) AbsorbMarker(arrow.Record) bool { return false }
func (disabled) HasPendingMarker() bool         { return false }
func (disabled) NextMarker() arrow.Record       { return nil }
func (disabled) Close() error                   { return nil }

// Disabled returns the no-op marker channel used when fault tolerance
// is off for this execution.
func Disabled() MarkerChannel {
	return disabled{}
}

// SingleInputState is the marker channel for operators with a single
// input source: markers are forwarded in the order they arrived,
// strictly ahead of any data buffered after them.
//
// Not safe for concurrent use; the driver calls protocol methods
// sequentially.
type SingleInputState struct {
	pending []arrow.Record
	closed  bool
}

// NewSingleInputState creates a marker channel for a single-input operator.
func NewSingleInputState() *SingleInputState {
	return &SingleInputState{}
}

func (s *SingleInputState) AbsorbMarker(rec arrow.Record) bool {
	if !IsMarker(rec) {
		return false
	}
	rec.Retain()
	s.pending = append(s.pending, rec)
	return true
}

func (s *SingleInputState) HasPendingMarker() bool {
	return len(s.pending) > 0
}

func (s *SingleInputState) NextMarker() arrow.Record {
	if len(s.pending) == 0 {
		return nil
	}
	rec := s.pending[0]
	s.pending = s.pending[1:]
	return rec
}

func (s *SingleInputState) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for _, rec := range s.pending {
		rec.Release()
	}
	s.pending = nil
	return nil
}
