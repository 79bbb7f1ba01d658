// Package connectors implements source and sink endpoints for the runtime.
package connectors

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ashokkumars001/hetu-core/pkg/operator"
)

const defaultBatchSize = 1024

// Generator produces synthetic Arrow RecordBatches at a configurable rate.
type Generator struct {
	schema        *arrow.Schema
	rowsPerSecond int64
	maxRows       int64
	alloc         memory.Allocator
}

// NewGenerator creates a Generator source emitting batches matching
// schema. maxRows of 0 means unbounded.
func NewGenerator(schema *arrow.Schema, rowsPerSecond, maxRows int64) *Generator {
	return &Generator{
		schema:        schema,
		rowsPerSecond: rowsPerSecond,
		maxRows:       maxRows,
	}
}

func (g *Generator) Open(ctx *operator.Context) error {
	g.alloc = ctx.Alloc
	return nil
}

func (g *Generator) Run(ctx *operator.Context, out chan<- arrow.Record) error {
	defer close(out)

	rps := g.rowsPerSecond
	if rps <= 0 {
		rps = 1000
	}

	batchSize := int64(defaultBatchSize)
	if batchSize > rps {
		batchSize = rps
	}
	if g.maxRows > 0 && batchSize > g.maxRows {
		batchSize = g.maxRows
	}

	interval := time.Duration(float64(time.Second) * float64(batchSize) / float64(rps))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var totalEmitted int64
	var seq int64

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rows := batchSize
			if g.maxRows > 0 {
				left := g.maxRows - totalEmitted
				if left <= 0 {
					return nil
				}
				if rows > left {
					rows = left
				}
			}

			rec := g.generateBatch(seq, int(rows))
			select {
			case out <- rec:
				totalEmitted += rows
				seq += rows
				ctx.Metrics.BatchesProcessed.Add(1)
				ctx.Metrics.RowsProcessed.Add(rows)
			case <-ctx.Done():
				rec.Release()
				return nil
			}

			if g.maxRows > 0 && totalEmitted >= g.maxRows {
				return nil
			}
		}
	}
}

func (g *Generator) Close() error { return nil }

func (g *Generator) generateBatch(startSeq int64, numRows int) arrow.Record {
	builders := make([]array.Builder, g.schema.NumFields())
	for i := 0; i < g.schema.NumFields(); i++ {
		builders[i] = array.NewBuilder(g.alloc, g.schema.Field(i).Type)
	}

	now := time.Now().UnixMilli()

	for row := 0; row < numRows; row++ {
		seq := startSeq + int64(row)
		for i := 0; i < g.schema.NumFields(); i++ {
			f := g.schema.Field(i)
			switch f.Type.ID() {
			case arrow.INT64:
				builders[i].(*array.Int64Builder).Append(seq)
			case arrow.INT32:
				builders[i].(*array.Int32Builder).Append(int32(seq))
			case arrow.FLOAT64:
				builders[i].(*array.Float64Builder).Append(float64(seq) * 1.1)
			case arrow.STRING:
				builders[i].(*array.StringBuilder).Append(fmt.Sprintf("%s_%d", f.Name, seq))
			case arrow.BOOL:
				builders[i].(*array.BooleanBuilder).Append(seq%2 == 0)
			case arrow.TIMESTAMP:
				builders[i].(*array.TimestampBuilder).Append(arrow.Timestamp(now + seq))
			default:
				builders[i].AppendNull()
			}
		}
	}

	arrays := make([]arrow.Array, len(builders))
	for i, b := range builders {
		arrays[i] = b.NewArray()
		b.Release()
	}

	rec := array.NewRecord(g.schema, arrays, int64(numRows))
	for _, a := range arrays {
		a.Release()
	}
	return rec
}
