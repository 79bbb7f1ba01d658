package snapshot_test

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ashokkumars001/hetu-core/pkg/operator"
	"github.com/ashokkumars001/hetu-core/pkg/operators"
	"github.com/ashokkumars001/hetu-core/pkg/serde"
	"github.com/ashokkumars001/hetu-core/pkg/snapshot"
)

func buildOp(t *testing.T, alloc memory.Allocator, operatorID int) operator.Operator {
	t.Helper()
	driverCtx := operator.NewDriverContext(context.Background(), alloc, "test", 0)
	driverCtx.SnapshotEnabled = true
	op, err := operators.NewEnforceSingleRowFactory(operatorID, "node").Create(driverCtx)
	if err != nil {
		t.Fatal(err)
	}
	return op
}

func addRow(t *testing.T, op operator.Operator, alloc memory.Allocator, val int64) {
	t.Helper()
	bldr := array.NewInt64Builder(alloc)
	defer bldr.Release()
	bldr.Append(val)
	arr := bldr.NewArray()
	defer arr.Release()
	schema := arrow.NewSchema([]arrow.Field{{Name: "value", Type: arrow.PrimitiveTypes.Int64}}, nil)
	rec := array.NewRecord(schema, []arrow.Array{arr}, 1)
	defer rec.Release()
	if err := op.AddInput(rec); err != nil {
		t.Fatal(err)
	}
}

func TestCoordinatorCaptureRestore(t *testing.T) {
	alloc := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer alloc.AssertSize(t, 0)

	codec := serde.NewPagesCodec(alloc)
	coord := snapshot.NewCoordinator(codec)

	op := buildOp(t, alloc, 1)
	defer op.Close()
	addRow(t, op, alloc, 11)

	ops := []operator.Operator{op}
	if err := coord.Capture(5, ops); err != nil {
		t.Fatal(err)
	}

	// Drain the operator past the captured point.
	op.Finish()
	out, err := op.GetOutput()
	if err != nil {
		t.Fatal(err)
	}
	out.Release()
	if !op.IsFinished() {
		t.Fatal("operator must be drained before restore")
	}

	if err := coord.Restore(5, ops); err != nil {
		t.Fatal(err)
	}
	if op.IsFinished() || !op.NeedsInput() {
		t.Fatal("restore must rewind to the running, buffered state")
	}
	op.Finish()
	out, err = op.GetOutput()
	if err != nil {
		t.Fatal(err)
	}
	defer out.Release()
	if out.NumRows() != 1 {
		t.Fatalf("expected the captured single row, got %d rows", out.NumRows())
	}
}

func TestCoordinatorUnknownSnapshot(t *testing.T) {
	coord := snapshot.NewCoordinator(serde.NewPagesCodec(nil))
	if err := coord.Restore(99, nil); err == nil {
		t.Fatal("restoring an unknown snapshot must fail")
	}
}

func TestCoordinatorDrop(t *testing.T) {
	alloc := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer alloc.AssertSize(t, 0)

	codec := serde.NewPagesCodec(alloc)
	coord := snapshot.NewCoordinator(codec)

	op := buildOp(t, alloc, 1)
	defer op.Close()

	ops := []operator.Operator{op}
	if err := coord.Capture(1, ops); err != nil {
		t.Fatal(err)
	}
	coord.Drop(1)
	if err := coord.Restore(1, ops); err == nil {
		t.Fatal("dropped snapshot must be gone")
	}
}
