package batch

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func makeBatch(alloc memory.Allocator) arrow.Record {
	bldr := array.NewInt64Builder(alloc)
	defer bldr.Release()
	bldr.AppendValues([]int64{1, 2}, nil)
	arr := bldr.NewArray()
	defer arr.Release()
	schema := arrow.NewSchema([]arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int64}}, nil)
	return array.NewRecord(schema, []arrow.Array{arr}, 2)
}

func TestColumn(t *testing.T) {
	alloc := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer alloc.AssertSize(t, 0)

	rec := makeBatch(alloc)
	defer rec.Release()

	col, err := Column(rec, "id")
	if err != nil {
		t.Fatal(err)
	}
	if col.(*array.Int64).Value(1) != 2 {
		t.Fatal("wrong column value")
	}

	if _, err := Column(rec, "missing"); err == nil {
		t.Fatal("missing column must error")
	}
	if got := ColumnIndex(rec, "id"); got != 0 {
		t.Fatalf("expected index 0, got %d", got)
	}
	if got := ColumnIndex(rec, "missing"); got != -1 {
		t.Fatalf("expected -1, got %d", got)
	}
	if names := ColumnNames(rec); len(names) != 1 || names[0] != "id" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestSingleNullValue(t *testing.T) {
	rec := SingleNullValue()
	defer rec.Release()

	if rec.NumRows() != 1 || rec.NumCols() != 1 {
		t.Fatalf("expected a 1x1 batch, got %dx%d", rec.NumRows(), rec.NumCols())
	}
	if !rec.Column(0).IsNull(0) {
		t.Fatal("sentinel value must be null")
	}

	// Shared instance: every call hands out the same record.
	other := SingleNullValue()
	defer other.Release()
	if other != rec {
		t.Fatal("sentinel must be process-wide shared")
	}
}
