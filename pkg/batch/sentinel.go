package batch

import (
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// singleNullValue is built once and shared by every operator in the
// process. It is never mutated; emitting it hands out retained
// references to the same record.
var singleNullValue = sync.OnceValue(func() arrow.Record {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "value", Type: arrow.Null, Nullable: true},
	}, nil)
	arr := array.NewNull(1)
	defer arr.Release()
	return array.NewRecord(schema, []arrow.Array{arr}, 1)
})

// SingleNullValue returns the shared one-row, one-column batch whose
// only value is a logical null. A scalar subquery over an empty input
// emits this instead of producing nothing. The caller owns the
// returned reference and must Release it.
func SingleNullValue() arrow.Record {
	rec := singleNullValue()
	rec.Retain()
	return rec
}
