// Package operators implements the pipeline stages of the runtime.
package operators

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ashokkumars001/hetu-core/pkg/batch"
	"github.com/ashokkumars001/hetu-core/pkg/operator"
	"github.com/ashokkumars001/hetu-core/pkg/serde"
	"github.com/ashokkumars001/hetu-core/pkg/snapshot"
)

// EnforceSingleRow guards a scalar subquery: across its entire input it
// accepts at most one row, fails the query on the second, and emits a
// single null row if no input ever arrived. Snapshot markers pass
// through transparently, always ahead of data.
type EnforceSingleRow struct {
	opCtx     *operator.Context
	snapshots snapshot.MarkerChannel

	finishing bool
	page      arrow.Record
	closed    bool
}

// EnforceSingleRowFactory builds EnforceSingleRow instances bound to a
// pipeline position.
type EnforceSingleRowFactory struct {
	operatorID int
	planNodeID string
	closed     bool
}

// NewEnforceSingleRowFactory creates a factory for the given operator
// id and plan node.
func NewEnforceSingleRowFactory(operatorID int, planNodeID string) *EnforceSingleRowFactory {
	return &EnforceSingleRowFactory{operatorID: operatorID, planNodeID: planNodeID}
}

// Create builds a fresh operator instance. Fails once NoMoreOperators
// has been called.
func (f *EnforceSingleRowFactory) Create(driverCtx *operator.DriverContext) (operator.Operator, error) {
	if f.closed {
		return nil, operator.NewProtocolViolation("factory is already closed")
	}
	opCtx := driverCtx.AddOperatorContext(f.operatorID, f.planNodeID, "EnforceSingleRow")
	markers := snapshot.Disabled()
	if opCtx.SnapshotEnabled() {
		markers = snapshot.NewSingleInputState()
	}
	return &EnforceSingleRow{opCtx: opCtx, snapshots: markers}, nil
}

// NoMoreOperators marks the factory closed. Idempotent.
func (f *EnforceSingleRowFactory) NoMoreOperators() {
	f.closed = true
}

// Duplicate returns a factory with the same binding and an independent
// closed state.
func (f *EnforceSingleRowFactory) Duplicate() operator.Factory {
	return NewEnforceSingleRowFactory(f.operatorID, f.planNodeID)
}

// Context returns the operator's execution context.
func (o *EnforceSingleRow) Context() *operator.Context {
	return o.opCtx
}

// NeedsInput reports whether the operator accepts more input.
func (o *EnforceSingleRow) NeedsInput() bool {
	return !o.finishing
}

// AddInput offers a batch. Markers are absorbed, empty batches are
// ignored, and any row beyond the first fails the query.
func (o *EnforceSingleRow) AddInput(page arrow.Record) error {
	if page == nil {
		return operator.NewProtocolViolation("page is nil")
	}
	if !o.NeedsInput() {
		return operator.NewProtocolViolation("operator did not expect any more data")
	}

	if o.snapshots.AbsorbMarker(page) {
		return nil
	}

	if page.NumRows() == 0 {
		return nil
	}
	if o.page != nil || page.NumRows() > 1 {
		o.opCtx.Metrics.Errors.Add(1)
		return operator.NewSubqueryMultipleRowsError()
	}
	page.Retain()
	o.page = page
	o.opCtx.Metrics.BatchesProcessed.Add(1)
	o.opCtx.Metrics.RowsProcessed.Add(page.NumRows())
	return nil
}

// Finish declares the input exhausted. If nothing was buffered, the
// shared single-null batch takes its place so an empty scalar subquery
// surfaces SQL NULL. Idempotent.
func (o *EnforceSingleRow) Finish() {
	if !o.finishing && o.page == nil {
		o.page = batch.SingleNullValue()
	}
	o.finishing = true
}

// IsFinished reports completion. Pending markers must drain first.
func (o *EnforceSingleRow) IsFinished() bool {
	if o.snapshots.HasPendingMarker() {
		return false
	}
	return o.finishing && o.page == nil
}

// GetOutput returns a pending marker if one exists, leaving buffered
// data untouched; otherwise the single buffered batch, exactly once,
// after Finish. The caller owns the returned record.
func (o *EnforceSingleRow) GetOutput() (arrow.Record, error) {
	if marker := o.snapshots.NextMarker(); marker != nil {
		o.opCtx.Metrics.MarkersForwarded.Add(1)
		return marker, nil
	}

	if !o.finishing {
		return nil, nil
	}
	if o.page == nil {
		// Already emitted; the single output leaves exactly once.
		return nil, nil
	}
	page := o.page
	o.page = nil
	return page, nil
}

// PollMarker returns the next pending snapshot marker, or nil.
func (o *EnforceSingleRow) PollMarker() arrow.Record {
	return o.snapshots.NextMarker()
}

// Close releases the marker channel and any still-buffered batch.
// Idempotent.
func (o *EnforceSingleRow) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	if o.page != nil {
		o.page.Release()
		o.page = nil
	}
	return o.snapshots.Close()
}

// enforceSingleRowState is the persisted operator state. The marker
// channel is deliberately excluded; the recovery mechanism rebuilds it.
type enforceSingleRowState struct {
	OpCtx     operator.ContextState
	Finishing bool
	Page      []byte // nil when no batch was buffered at capture time
}

// Capture snapshots {context state, finishing, buffered page} without
// mutating the live operator. Must only run between driver calls.
func (o *EnforceSingleRow) Capture(codec *serde.PagesCodec) (any, error) {
	state := &enforceSingleRowState{
		OpCtx:     o.opCtx.Capture(),
		Finishing: o.finishing,
	}
	if o.page != nil {
		data, err := codec.Serialize(o.page)
		if err != nil {
			return nil, operator.NewSerializationError("capture buffered page", err)
		}
		state.Page = data
	}
	return state, nil
}

// Restore replaces the live state with a captured one. Whatever was
// buffered is discarded, not merged.
func (o *EnforceSingleRow) Restore(state any, codec *serde.PagesCodec) error {
	myState, ok := state.(*enforceSingleRowState)
	if !ok {
		return operator.NewInternalError("unexpected snapshot state type %T", state)
	}
	o.opCtx.Restore(myState.OpCtx)
	o.finishing = myState.Finishing
	if o.page != nil {
		o.page.Release()
	}
	o.page = nil
	if myState.Page != nil {
		page, err := codec.Deserialize(myState.Page)
		if err != nil {
			return operator.NewSerializationError("restore buffered page", err)
		}
		o.page = page
	}
	return nil
}
