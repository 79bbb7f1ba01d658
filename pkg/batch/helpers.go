// Package batch provides convenience functions for working with the
// Arrow RecordBatches flowing through the pipeline.
package batch

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Column returns the named column from a batch, or an error if not found.
func Column(rec arrow.Record, name string) (arrow.Array, error) {
	schema := rec.Schema()
	indices := schema.FieldIndices(name)
	if len(indices) == 0 {
		return nil, fmt.Errorf("column %q not found in schema", name)
	}
	return rec.Column(indices[0]), nil
}

// ColumnIndex returns the index of a named column, or -1 if not found.
func ColumnIndex(rec arrow.Record, name string) int {
	indices := rec.Schema().FieldIndices(name)
	if len(indices) == 0 {
		return -1
	}
	return indices[0]
}

// ColumnNames returns the list of column names in a batch's schema.
func ColumnNames(rec arrow.Record) []string {
	schema := rec.Schema()
	names := make([]string, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		names[i] = schema.Field(i).Name
	}
	return names
}
