package operator

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Metrics tracks basic operator-level counters.
type Metrics struct {
	BatchesProcessed atomic.Int64
	RowsProcessed    atomic.Int64
	MarkersForwarded atomic.Int64
	Errors           atomic.Int64
}

// ContextState is the persisted form of an operator context, captured
// alongside operator state in a snapshot.
type ContextState struct {
	BatchesProcessed int64
	RowsProcessed    int64
	MarkersForwarded int64
	Errors           int64
}

// Context provides the execution environment for one operator instance.
type Context struct {
	// Go context for cancellation and shutdown.
	Ctx context.Context

	// Logger scoped to this operator.
	Logger *slog.Logger

	// Metrics for this operator instance.
	Metrics *Metrics

	// Alloc is the Arrow memory allocator to use for output batches.
	Alloc memory.Allocator

	// OperatorID identifies this operator within its pipeline.
	OperatorID int

	// PlanNodeID ties the operator back to the query plan node it implements.
	PlanNodeID string

	// OperatorType is the human-readable operator name.
	OperatorType string

	snapshotEnabled bool
}

// SnapshotEnabled reports whether fault tolerance is on for this execution.
func (c *Context) SnapshotEnabled() bool {
	return c.snapshotEnabled
}

// Capture snapshots the context's counter state.
func (c *Context) Capture() ContextState {
	return ContextState{
		BatchesProcessed: c.Metrics.BatchesProcessed.Load(),
		RowsProcessed:    c.Metrics.RowsProcessed.Load(),
		MarkersForwarded: c.Metrics.MarkersForwarded.Load(),
		Errors:           c.Metrics.Errors.Load(),
	}
}

// Restore replaces the context's counter state with a captured one.
func (c *Context) Restore(state ContextState) {
	c.Metrics.BatchesProcessed.Store(state.BatchesProcessed)
	c.Metrics.RowsProcessed.Store(state.RowsProcessed)
	c.Metrics.MarkersForwarded.Store(state.MarkersForwarded)
	c.Metrics.Errors.Store(state.Errors)
}

// Done returns the context's Done channel for shutdown signaling.
func (c *Context) Done() <-chan struct{} {
	return c.Ctx.Done()
}

// DriverContext carries the per-driver environment from which operator
// contexts are derived.
type DriverContext struct {
	// Ctx is the driver's Go context.
	Ctx context.Context

	// Alloc is the Arrow allocator shared by the driver's operators.
	Alloc memory.Allocator

	// Logger scoped to this driver.
	Logger *slog.Logger

	// PipelineName identifies the pipeline this driver executes.
	PipelineName string

	// DriverID is the index of this driver among parallel lanes.
	DriverID int

	// SnapshotEnabled turns on marker forwarding and capture/restore.
	SnapshotEnabled bool
}

// NewDriverContext creates a driver context with defaults.
func NewDriverContext(ctx context.Context, alloc memory.Allocator, pipelineName string, driverID int) *DriverContext {
	return &DriverContext{
		Ctx:          ctx,
		Alloc:        alloc,
		Logger:       slog.Default().With("pipeline", pipelineName, "driver", driverID),
		PipelineName: pipelineName,
		DriverID:     driverID,
	}
}

// AddOperatorContext derives a fresh per-instance operator context.
// Each factory Create call goes through here, so parallel instances
// never share mutable state.
func (d *DriverContext) AddOperatorContext(operatorID int, planNodeID, operatorType string) *Context {
	return &Context{
		Ctx:             d.Ctx,
		Logger:          d.Logger.With("operator", operatorID, "planNode", planNodeID, "type", operatorType),
		Metrics:         &Metrics{},
		Alloc:           d.Alloc,
		OperatorID:      operatorID,
		PlanNodeID:      planNodeID,
		OperatorType:    operatorType,
		snapshotEnabled: d.SnapshotEnabled,
	}
}
