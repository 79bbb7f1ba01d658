// Package serde implements the page codec used to persist batches in
// operator snapshots, on top of Arrow IPC streams.
package serde

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// PagesCodec serializes record batches to self-describing byte slices
// and back. Schema metadata survives the round trip.
type PagesCodec struct {
	alloc memory.Allocator
}

// NewPagesCodec creates a codec that allocates deserialized batches
// from alloc.
func NewPagesCodec(alloc memory.Allocator) *PagesCodec {
	if alloc == nil {
		alloc = memory.DefaultAllocator
	}
	return &PagesCodec{alloc: alloc}
}

// Serialize encodes a single batch as an Arrow IPC stream.
func (c *PagesCodec) Serialize(batch arrow.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf,
		ipc.WithSchema(batch.Schema()),
		ipc.WithAllocator(c.alloc),
	)
	if err := w.Write(batch); err != nil {
		w.Close()
		return nil, fmt.Errorf("serialize batch: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close batch writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Deserialize decodes a batch previously produced by Serialize. The
// caller owns the returned record and must Release it.
func (c *PagesCodec) Deserialize(data []byte) (arrow.Record, error) {
	r, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(c.alloc))
	if err != nil {
		return nil, fmt.Errorf("open batch reader: %w", err)
	}
	defer r.Release()
	if !r.Next() {
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("deserialize batch: %w", err)
		}
		return nil, fmt.Errorf("deserialize batch: stream contains no batch")
	}
	rec := r.Record()
	rec.Retain()
	return rec, nil
}
