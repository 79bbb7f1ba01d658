// Package driver runs pipeline stages against the pull-based operator
// protocol: one goroutine per driver feeds batches from a source
// channel through a chain of operators and drains outputs into a sink.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ashokkumars001/hetu-core/pkg/metrics"
	"github.com/ashokkumars001/hetu-core/pkg/operator"
	"github.com/ashokkumars001/hetu-core/pkg/snapshot"
)

// Driver advances a chain of operators. All protocol calls happen on
// the goroutine that calls Run; capture/restore against the same
// operators must happen only while Run is suspended between steps.
type Driver struct {
	ops    []operator.Operator
	source <-chan arrow.Record
	sink   operator.Sink
	logger *slog.Logger

	sourceDone bool
}

// NewDriver creates a driver over an operator chain.
func NewDriver(ops []operator.Operator, source <-chan arrow.Record, sink operator.Sink, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{ops: ops, source: source, sink: sink, logger: logger}
}

// Run drives the chain until every operator reports finished or an
// error aborts the pipeline. Protocol violations and subquery failures
// surface as returned errors, never swallowed.
func (d *Driver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.allFinished() {
			return nil
		}

		moved, err := d.step(ctx)
		if err != nil {
			d.logger.Error("pipeline aborted", "error", err)
			return err
		}
		if moved {
			continue
		}

		// Nothing movable: block until the source produces or closes.
		if d.sourceDone || !d.ops[0].NeedsInput() {
			return operator.NewInternalError("driver made no progress")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-d.source:
			if err := d.feed(rec, ok); err != nil {
				d.logger.Error("pipeline aborted", "error", err)
				return err
			}
		}
	}
}

// step makes one non-blocking pass over the chain. Reports whether any
// batch moved.
func (d *Driver) step(ctx context.Context) (bool, error) {
	moved := false

	first := d.ops[0]
	if !d.sourceDone && first.NeedsInput() {
		select {
		case rec, ok := <-d.source:
			if err := d.feed(rec, ok); err != nil {
				return false, err
			}
			moved = true
		default:
		}
	}

	// Move outputs down the chain. An operator is polled only while it
	// still owes output and its downstream can accept it.
	for i := 0; i+1 < len(d.ops); i++ {
		cur, next := d.ops[i], d.ops[i+1]
		if !cur.IsFinished() && next.NeedsInput() {
			out, err := cur.GetOutput()
			if err != nil {
				return false, err
			}
			if out != nil {
				err := next.AddInput(out)
				out.Release()
				if err != nil {
					return false, err
				}
				moved = true
			}
		}
		if cur.IsFinished() {
			next.Finish()
		}
	}

	last := d.ops[len(d.ops)-1]
	if !last.IsFinished() {
		out, err := last.GetOutput()
		if err != nil {
			return false, err
		}
		if out != nil {
			err := d.emit(last, out)
			out.Release()
			if err != nil {
				return false, err
			}
			moved = true
		}
	}

	return moved, nil
}

// feed delivers one source read to the head of the chain. ok=false
// means the source channel closed.
func (d *Driver) feed(rec arrow.Record, ok bool) error {
	first := d.ops[0]
	if !ok {
		d.sourceDone = true
		first.Finish()
		return nil
	}
	err := first.AddInput(rec)
	rec.Release()
	if err != nil {
		return fmt.Errorf("add input to operator %d: %w", first.Context().OperatorID, err)
	}
	return nil
}

// emit hands one output batch to the sink.
func (d *Driver) emit(last operator.Operator, out arrow.Record) error {
	opCtx := last.Context()
	opID := strconv.Itoa(opCtx.OperatorID)
	start := time.Now()
	if err := d.sink.WriteBatch(out); err != nil {
		metrics.Errors.WithLabelValues(opID, opCtx.OperatorType).Inc()
		return fmt.Errorf("write to sink: %w", err)
	}
	metrics.BatchLatency.WithLabelValues(opID, opCtx.OperatorType).Observe(time.Since(start).Seconds())
	if snapshot.IsMarker(out) {
		metrics.MarkersForwarded.WithLabelValues(opID, opCtx.OperatorType).Inc()
		return nil
	}
	metrics.BatchesProcessed.WithLabelValues(opID, opCtx.OperatorType).Inc()
	metrics.RowsProcessed.WithLabelValues(opID, opCtx.OperatorType).Add(float64(out.NumRows()))
	return nil
}

func (d *Driver) allFinished() bool {
	for _, op := range d.ops {
		if !op.IsFinished() {
			return false
		}
	}
	return true
}

// Operators exposes the chain for the snapshot coordinator. Callers
// must not touch the operators while Run is executing a step.
func (d *Driver) Operators() []operator.Operator {
	return d.ops
}
