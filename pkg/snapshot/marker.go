// Package snapshot implements the marker plumbing and the
// capture/restore coordination used for pipeline fault tolerance.
package snapshot

import (
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// markerIDKey is the schema metadata key that distinguishes snapshot
// marker batches from data batches.
const markerIDKey = "hetu.snapshot_id"

// NewMarker builds a marker batch for the given snapshot id. Markers
// carry no columns and no rows; the id travels in schema metadata so
// markers flow through the same channels and codecs as data batches.
func NewMarker(snapshotID int64) arrow.Record {
	md := arrow.NewMetadata([]string{markerIDKey}, []string{strconv.FormatInt(snapshotID, 10)})
	schema := arrow.NewSchema(nil, &md)
	return array.NewRecord(schema, nil, 0)
}

// IsMarker reports whether a batch is a snapshot marker.
func IsMarker(rec arrow.Record) bool {
	return rec.Schema().Metadata().FindKey(markerIDKey) >= 0
}

// MarkerID extracts the snapshot id from a marker batch. The second
// return is false for data batches.
func MarkerID(rec arrow.Record) (int64, bool) {
	md := rec.Schema().Metadata()
	i := md.FindKey(markerIDKey)
	if i < 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(md.Values()[i], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
