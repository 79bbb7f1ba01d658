// Command hetu-runtime runs a demo scalar-subquery pipeline:
// generator -> enforce-single-row -> console.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ashokkumars001/hetu-core/pkg/connectors"
	"github.com/ashokkumars001/hetu-core/pkg/driver"
	"github.com/ashokkumars001/hetu-core/pkg/metrics"
	"github.com/ashokkumars001/hetu-core/pkg/operator"
	"github.com/ashokkumars001/hetu-core/pkg/operators"
)

func main() {
	var (
		rows        = flag.Int64("rows", 1, "number of rows the generator emits (>1 demonstrates the cardinality failure)")
		snapshots   = flag.Bool("snapshots", false, "enable snapshot marker forwarding")
		metricsAddr = flag.String("metrics-addr", "", "address to serve Prometheus metrics on (empty = disabled)")
	)
	flag.Parse()

	if *metricsAddr != "" {
		metrics.ServeMetrics(*metricsAddr)
		slog.Info("serving metrics", "addr", *metricsAddr)
	}

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "value", Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	p := &driver.Pipeline{
		Name:            "scalar-subquery-demo",
		Source:          connectors.NewGenerator(schema, 1000, *rows),
		Factories:       []operator.Factory{operators.NewEnforceSingleRowFactory(1, "demo")},
		Sink:            connectors.NewConsole(100),
		Alloc:           memory.DefaultAllocator,
		SnapshotEnabled: *snapshots,
	}

	err := driver.RunWithGracefulShutdown(context.Background(), p, 30*time.Second)
	if err != nil {
		var execErr *operator.ExecError
		if errors.As(err, &execErr) && execErr.Code == operator.CodeSubqueryMultipleRows {
			slog.Error("query failed", "code", execErr.Code.String(), "error", execErr.Message)
			os.Exit(1)
		}
		slog.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}
