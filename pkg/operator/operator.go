// Package operator defines the pull-based protocol that every pipeline stage implements.
package operator

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ashokkumars001/hetu-core/pkg/serde"
)

// Operator is the core interface for a pipeline stage. A single driver
// goroutine calls the protocol methods strictly sequentially:
//
//	for !op.IsFinished() {
//	    if op.NeedsInput()  -> op.AddInput(batch)
//	    else                -> op.GetOutput()
//	}
//
// Implementations MUST Retain any input batch they hold beyond the
// AddInput call; the caller releases its own reference after AddInput
// returns. GetOutput transfers one reference to the caller, which MUST
// Release the returned batch.
type Operator interface {
	// Context returns the operator's execution context.
	Context() *Context

	// NeedsInput reports whether the operator can accept another batch.
	// The driver must not call AddInput when this is false.
	NeedsInput() bool

	// AddInput offers a batch to the operator. Snapshot marker batches
	// are absorbed transparently and never count as data.
	AddInput(batch arrow.Record) error

	// GetOutput returns the next output batch, or nil if none is
	// available yet. Pending snapshot markers are returned ahead of data.
	GetOutput() (arrow.Record, error)

	// Finish tells the operator no more input will arrive.
	Finish()

	// IsFinished reports whether the operator has emitted everything,
	// including any pending snapshot markers.
	IsFinished() bool

	// PollMarker returns the next pending snapshot marker, or nil.
	// Used by the driver on shutdown paths that bypass GetOutput.
	PollMarker() arrow.Record

	// Close releases operator resources. Idempotent.
	Close() error
}

// Restorable is implemented by operators that participate in
// checkpoint/restore. Capture and Restore must never run concurrently
// with the driver protocol calls on the same instance; the recovery
// mechanism suspends the driver around them.
type Restorable interface {
	// Capture snapshots the operator state without mutating it.
	Capture(codec *serde.PagesCodec) (any, error)

	// Restore replaces the live state with a previously captured one,
	// discarding whatever was buffered.
	Restore(state any, codec *serde.PagesCodec) error
}

// Factory creates operator instances bound to a pipeline position.
type Factory interface {
	// Create builds a fresh operator bound to a per-instance context
	// derived from driverCtx. Fails once NoMoreOperators was called.
	Create(driverCtx *DriverContext) (Operator, error)

	// NoMoreOperators marks the factory closed. Idempotent.
	NoMoreOperators()

	// Duplicate returns a factory with the same binding parameters and
	// an independent closed state, for replicated pipeline lanes.
	Duplicate() Factory
}

// Source produces batches for the head of a pipeline. Sources run in
// their own goroutine and push batches to the output channel, closing
// it when the input is exhausted.
type Source interface {
	Open(ctx *Context) error
	Run(ctx *Context, out chan<- arrow.Record) error
	Close() error
}

// Sink consumes batches emitted by the tail of a pipeline.
type Sink interface {
	Open(ctx *Context) error
	WriteBatch(batch arrow.Record) error
	Close() error
}
