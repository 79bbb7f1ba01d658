package snapshot

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func makeDataBatch(alloc memory.Allocator, vals []int64) arrow.Record {
	bldr := array.NewInt64Builder(alloc)
	defer bldr.Release()
	bldr.AppendValues(vals, nil)
	arr := bldr.NewArray()
	defer arr.Release()
	schema := arrow.NewSchema([]arrow.Field{{Name: "x", Type: arrow.PrimitiveTypes.Int64}}, nil)
	return array.NewRecord(schema, []arrow.Array{arr}, int64(len(vals)))
}

func TestMarkerRoundTrip(t *testing.T) {
	marker := NewMarker(42)
	defer marker.Release()

	if !IsMarker(marker) {
		t.Fatal("marker must be recognized as marker")
	}
	if marker.NumRows() != 0 || marker.NumCols() != 0 {
		t.Fatalf("marker must carry no data, got %dx%d", marker.NumRows(), marker.NumCols())
	}
	id, ok := MarkerID(marker)
	if !ok || id != 42 {
		t.Fatalf("expected marker id 42, got %d (%v)", id, ok)
	}
}

func TestDataBatchIsNotMarker(t *testing.T) {
	alloc := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer alloc.AssertSize(t, 0)

	rec := makeDataBatch(alloc, []int64{1})
	defer rec.Release()

	if IsMarker(rec) {
		t.Fatal("data batch must not be a marker")
	}
	if _, ok := MarkerID(rec); ok {
		t.Fatal("data batch must have no marker id")
	}
}

func TestSingleInputStateOrdering(t *testing.T) {
	alloc := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer alloc.AssertSize(t, 0)

	s := NewSingleInputState()
	defer s.Close()

	data := makeDataBatch(alloc, []int64{1})
	defer data.Release()
	if s.AbsorbMarker(data) {
		t.Fatal("data batch must not be absorbed")
	}

	for _, id := range []int64{1, 2, 3} {
		m := NewMarker(id)
		if !s.AbsorbMarker(m) {
			t.Fatalf("marker %d must be absorbed", id)
		}
		m.Release()
	}

	if !s.HasPendingMarker() {
		t.Fatal("markers must be pending")
	}
	for _, want := range []int64{1, 2, 3} {
		m := s.NextMarker()
		if m == nil {
			t.Fatalf("expected marker %d", want)
		}
		id, _ := MarkerID(m)
		if id != want {
			t.Fatalf("markers must drain in arrival order: expected %d, got %d", want, id)
		}
		m.Release()
	}
	if s.HasPendingMarker() || s.NextMarker() != nil {
		t.Fatal("queue must be empty")
	}
}

func TestSingleInputStateCloseReleasesPending(t *testing.T) {
	s := NewSingleInputState()

	m := NewMarker(1)
	s.AbsorbMarker(m)
	m.Release()

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close must be idempotent: %v", err)
	}
	if s.HasPendingMarker() {
		t.Fatal("closed state must hold no markers")
	}
}

func TestDisabledChannel(t *testing.T) {
	s := Disabled()

	m := NewMarker(1)
	defer m.Release()
	if s.AbsorbMarker(m) {
		t.Fatal("disabled channel must not absorb markers")
	}
	if s.HasPendingMarker() || s.NextMarker() != nil {
		t.Fatal("disabled channel must never hold markers")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}
