package snapshot

import (
	"fmt"
	"sync"

	"github.com/ashokkumars001/hetu-core/pkg/metrics"
	"github.com/ashokkumars001/hetu-core/pkg/operator"
	"github.com/ashokkumars001/hetu-core/pkg/serde"
)

// Coordinator captures and restores the state of a pipeline's
// restorable operators. It holds captured states in memory keyed by
// snapshot id; persisting them durably is the surrounding recovery
// system's concern.
//
// Precondition: the driver owning the operators must be suspended for
// the duration of Capture and Restore. The coordinator does not lock
// against concurrent protocol calls; the operators' hot path stays
// lock-free because exclusivity is guaranteed externally.
type Coordinator struct {
	codec *serde.PagesCodec

	mu        sync.Mutex
	snapshots map[int64]map[int]any
}

// NewCoordinator creates a coordinator that serializes buffered
// batches with codec.
func NewCoordinator(codec *serde.PagesCodec) *Coordinator {
	return &Coordinator{
		codec:     codec,
		snapshots: make(map[int64]map[int]any),
	}
}

// Capture snapshots every restorable operator under the given id.
// Operators that do not implement Restorable are skipped.
func (c *Coordinator) Capture(snapshotID int64, ops []operator.Operator) error {
	states := make(map[int]any)
	for _, op := range ops {
		r, ok := op.(operator.Restorable)
		if !ok {
			continue
		}
		state, err := r.Capture(c.codec)
		if err != nil {
			return fmt.Errorf("capture operator %d: %w", op.Context().OperatorID, err)
		}
		states[op.Context().OperatorID] = state
	}
	c.mu.Lock()
	c.snapshots[snapshotID] = states
	c.mu.Unlock()
	metrics.SnapshotsCaptured.Inc()
	return nil
}

// Restore rewinds every restorable operator to the state captured
// under the given id.
func (c *Coordinator) Restore(snapshotID int64, ops []operator.Operator) error {
	c.mu.Lock()
	states, ok := c.snapshots[snapshotID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("no snapshot with id %d", snapshotID)
	}
	for _, op := range ops {
		r, rok := op.(operator.Restorable)
		if !rok {
			continue
		}
		state, sok := states[op.Context().OperatorID]
		if !sok {
			return fmt.Errorf("snapshot %d has no state for operator %d", snapshotID, op.Context().OperatorID)
		}
		if err := r.Restore(state, c.codec); err != nil {
			return fmt.Errorf("restore operator %d: %w", op.Context().OperatorID, err)
		}
	}
	metrics.SnapshotsRestored.Inc()
	return nil
}

// Drop discards a captured snapshot.
func (c *Coordinator) Drop(snapshotID int64) {
	c.mu.Lock()
	delete(c.snapshots, snapshotID)
	c.mu.Unlock()
}
