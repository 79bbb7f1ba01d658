package connectors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ashokkumars001/hetu-core/pkg/operator"
	"github.com/ashokkumars001/hetu-core/pkg/snapshot"
)

// Console prints Arrow RecordBatches to stdout as formatted tables.
// Snapshot markers are counted but not printed.
type Console struct {
	maxRows int32
	writer  io.Writer
	rows    int64
	markers int64
}

// NewConsole creates a Console sink printing at most maxRows rows per
// batch (0 = unlimited).
func NewConsole(maxRows int32) *Console {
	return &Console{maxRows: maxRows, writer: os.Stdout}
}

// SetWriter overrides the output writer (default: os.Stdout).
func (c *Console) SetWriter(w io.Writer) { c.writer = w }

func (c *Console) Open(_ *operator.Context) error { return nil }

func (c *Console) WriteBatch(rec arrow.Record) error {
	if snapshot.IsMarker(rec) {
		c.markers++
		return nil
	}

	schema := rec.Schema()
	numCols := schema.NumFields()
	numRows := int(rec.NumRows())

	if c.maxRows > 0 && numRows > int(c.maxRows) {
		numRows = int(c.maxRows)
	}

	widths := make([]int, numCols)
	for i := 0; i < numCols; i++ {
		widths[i] = len(schema.Field(i).Name)
	}
	for row := 0; row < numRows; row++ {
		for col := 0; col < numCols; col++ {
			val := formatValue(rec.Column(col), row)
			if len(val) > widths[col] {
				widths[col] = len(val)
			}
		}
	}

	c.printHeader(schema, widths)
	c.printSeparator(widths)
	for row := 0; row < numRows; row++ {
		c.printDataRow(rec, widths, row)
	}

	if int(rec.NumRows()) > numRows {
		fmt.Fprintf(c.writer, "... (%d more rows)\n", int(rec.NumRows())-numRows)
	}
	fmt.Fprintln(c.writer)

	c.rows += rec.NumRows()
	return nil
}

func (c *Console) Close() error { return nil }

// MarkersSeen reports how many snapshot markers reached this sink.
func (c *Console) MarkersSeen() int64 { return c.markers }

func (c *Console) printHeader(schema *arrow.Schema, widths []int) {
	var sb strings.Builder
	sb.WriteString("| ")
	for i := 0; i < schema.NumFields(); i++ {
		if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(padRight(schema.Field(i).Name, widths[i]))
	}
	sb.WriteString(" |")
	fmt.Fprintln(c.writer, sb.String())
}

func (c *Console) printSeparator(widths []int) {
	var sb strings.Builder
	sb.WriteString("|-")
	for i, w := range widths {
		if i > 0 {
			sb.WriteString("-|-")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("-|")
	fmt.Fprintln(c.writer, sb.String())
}

func (c *Console) printDataRow(rec arrow.Record, widths []int, row int) {
	var sb strings.Builder
	sb.WriteString("| ")
	for col := 0; col < int(rec.NumCols()); col++ {
		if col > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(padRight(formatValue(rec.Column(col), row), widths[col]))
	}
	sb.WriteString(" |")
	fmt.Fprintln(c.writer, sb.String())
}

func formatValue(arr arrow.Array, row int) string {
	if arr.IsNull(row) {
		return "NULL"
	}
	switch a := arr.(type) {
	case *array.Int64:
		return fmt.Sprintf("%d", a.Value(row))
	case *array.Int32:
		return fmt.Sprintf("%d", a.Value(row))
	case *array.Float64:
		return fmt.Sprintf("%.4f", a.Value(row))
	case *array.Float32:
		return fmt.Sprintf("%.4f", a.Value(row))
	case *array.String:
		return a.Value(row)
	case *array.Boolean:
		if a.Value(row) {
			return "true"
		}
		return "false"
	default:
		return "?"
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
