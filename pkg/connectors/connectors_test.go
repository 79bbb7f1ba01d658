package connectors

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ashokkumars001/hetu-core/pkg/operator"
	"github.com/ashokkumars001/hetu-core/pkg/snapshot"
)

func newCtx(alloc memory.Allocator) *operator.Context {
	driverCtx := operator.NewDriverContext(context.Background(), alloc, "test", 0)
	return driverCtx.AddOperatorContext(0, "source", "test")
}

func TestGeneratorMaxRows(t *testing.T) {
	alloc := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer alloc.AssertSize(t, 0)

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String},
	}, nil)

	g := NewGenerator(schema, 100000, 5)
	ctx := newCtx(alloc)
	if err := g.Open(ctx); err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	out := make(chan arrow.Record, 16)
	if err := g.Run(ctx, out); err != nil {
		t.Fatal(err)
	}

	var total int64
	var lastID int64 = -1
	for rec := range out {
		ids := rec.Column(0).(*array.Int64)
		for i := 0; i < ids.Len(); i++ {
			if ids.Value(i) != lastID+1 {
				t.Fatalf("sequence gap: %d after %d", ids.Value(i), lastID)
			}
			lastID = ids.Value(i)
		}
		total += rec.NumRows()
		rec.Release()
	}
	if total != 5 {
		t.Fatalf("expected 5 rows total, got %d", total)
	}
}

func TestGeneratorSingleRow(t *testing.T) {
	alloc := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer alloc.AssertSize(t, 0)

	schema := arrow.NewSchema([]arrow.Field{{Name: "value", Type: arrow.PrimitiveTypes.Int64}}, nil)

	g := NewGenerator(schema, 1000, 1)
	ctx := newCtx(alloc)
	if err := g.Open(ctx); err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	out := make(chan arrow.Record, 1)
	if err := g.Run(ctx, out); err != nil {
		t.Fatal(err)
	}

	rec, ok := <-out
	if !ok {
		t.Fatal("expected one batch")
	}
	if rec.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", rec.NumRows())
	}
	rec.Release()
	if _, ok := <-out; ok {
		t.Fatal("expected channel closed after maxRows")
	}
}

func TestConsolePrintsBatch(t *testing.T) {
	alloc := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer alloc.AssertSize(t, 0)

	bldr := array.NewInt64Builder(alloc)
	bldr.AppendValues([]int64{7, 8}, []bool{true, false})
	arr := bldr.NewArray()
	bldr.Release()
	schema := arrow.NewSchema([]arrow.Field{{Name: "amount", Type: arrow.PrimitiveTypes.Int64, Nullable: true}}, nil)
	rec := array.NewRecord(schema, []arrow.Array{arr}, 2)
	arr.Release()
	defer rec.Release()

	c := NewConsole(10)
	var buf bytes.Buffer
	c.SetWriter(&buf)
	if err := c.Open(nil); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.WriteBatch(rec); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "amount") {
		t.Fatalf("missing header: %q", out)
	}
	if !strings.Contains(out, "7") || !strings.Contains(out, "NULL") {
		t.Fatalf("missing values: %q", out)
	}
}

func TestConsoleSkipsMarkers(t *testing.T) {
	c := NewConsole(10)
	var buf bytes.Buffer
	c.SetWriter(&buf)

	marker := snapshot.NewMarker(1)
	defer marker.Release()
	if err := c.WriteBatch(marker); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("markers must not be printed, got %q", buf.String())
	}
	if c.MarkersSeen() != 1 {
		t.Fatalf("expected 1 marker seen, got %d", c.MarkersSeen())
	}
}

func TestConsoleTruncatesLongBatches(t *testing.T) {
	alloc := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer alloc.AssertSize(t, 0)

	bldr := array.NewInt64Builder(alloc)
	bldr.AppendValues([]int64{1, 2, 3, 4}, nil)
	arr := bldr.NewArray()
	bldr.Release()
	schema := arrow.NewSchema([]arrow.Field{{Name: "x", Type: arrow.PrimitiveTypes.Int64}}, nil)
	rec := array.NewRecord(schema, []arrow.Array{arr}, 4)
	arr.Release()
	defer rec.Release()

	c := NewConsole(2)
	var buf bytes.Buffer
	c.SetWriter(&buf)
	if err := c.WriteBatch(rec); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "2 more rows") {
		t.Fatalf("expected truncation notice, got %q", buf.String())
	}
}
