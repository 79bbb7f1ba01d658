package driver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ashokkumars001/hetu-core/pkg/operator"
)

const defaultChannelBuffer = 16

// Pipeline wires a source, a chain of operator factories, and a sink
// into a single runnable driver.
type Pipeline struct {
	Name            string
	Source          operator.Source
	Factories       []operator.Factory
	Sink            operator.Sink
	Alloc           memory.Allocator
	SnapshotEnabled bool

	logger *slog.Logger
	cancel context.CancelFunc
}

// Run creates the operators, starts the source, and drives the chain
// to completion. Blocks until the pipeline drains, fails, or ctx is
// cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)
	defer p.cancel()

	alloc := p.Alloc
	if alloc == nil {
		alloc = memory.DefaultAllocator
	}
	p.logger = slog.Default().With("pipeline", p.Name)

	driverCtx := operator.NewDriverContext(ctx, alloc, p.Name, 0)
	driverCtx.SnapshotEnabled = p.SnapshotEnabled

	ops := make([]operator.Operator, len(p.Factories))
	for i, factory := range p.Factories {
		op, err := factory.Create(driverCtx)
		if err != nil {
			return fmt.Errorf("create operator %d: %w", i, err)
		}
		factory.NoMoreOperators()
		ops[i] = op
	}
	defer func() {
		for _, op := range ops {
			if err := op.Close(); err != nil {
				p.logger.Error("operator close failed", "operator", op.Context().OperatorID, "error", err)
			}
		}
	}()

	srcCtx := driverCtx.AddOperatorContext(0, "source", "Source")
	if err := p.Source.Open(srcCtx); err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer p.Source.Close()

	sinkCtx := driverCtx.AddOperatorContext(len(ops)+1, "sink", "Sink")
	if err := p.Sink.Open(sinkCtx); err != nil {
		return fmt.Errorf("open sink: %w", err)
	}
	defer p.Sink.Close()

	srcCh := make(chan arrow.Record, defaultChannelBuffer)
	var wg sync.WaitGroup
	srcErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		srcErr <- p.Source.Run(srcCtx, srcCh)
	}()

	d := NewDriver(ops, srcCh, p.Sink, p.logger)
	runErr := d.Run(ctx)

	// Unblock the source if the driver bailed early and drain its
	// channel so the goroutine can exit.
	p.cancel()
	go func() {
		for rec := range srcCh {
			rec.Release()
		}
	}()
	wg.Wait()

	if runErr != nil {
		return runErr
	}
	if err := <-srcErr; err != nil {
		return fmt.Errorf("source failed: %w", err)
	}
	return nil
}

// Stop triggers a graceful shutdown of a running pipeline.
func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}
