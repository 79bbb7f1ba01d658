package connectors

import (
	"encoding/json"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/ashokkumars001/hetu-core/pkg/operator"
)

// KafkaConfig holds connection settings shared by the kafka endpoints.
type KafkaConfig struct {
	Topic            string
	BootstrapServers string
	ConsumerGroup    string
	StartupMode      string // "earliest" or "latest"
}

// KafkaSource consumes JSON records from a Kafka topic and batches
// them into Arrow RecordBatches matching the given schema.
type KafkaSource struct {
	cfg    KafkaConfig
	schema *arrow.Schema
	alloc  memory.Allocator
}

// NewKafkaSource creates a Kafka source connector.
func NewKafkaSource(cfg KafkaConfig, schema *arrow.Schema) *KafkaSource {
	return &KafkaSource{cfg: cfg, schema: schema}
}

func (k *KafkaSource) Open(ctx *operator.Context) error {
	k.alloc = ctx.Alloc
	return nil
}

func (k *KafkaSource) Run(ctx *operator.Context, out chan<- arrow.Record) error {
	defer close(out)

	opts := []kgo.Opt{
		kgo.SeedBrokers(k.cfg.BootstrapServers),
		kgo.ConsumeTopics(k.cfg.Topic),
	}
	if k.cfg.ConsumerGroup != "" {
		opts = append(opts, kgo.ConsumerGroup(k.cfg.ConsumerGroup))
	}
	switch k.cfg.StartupMode {
	case "latest", "latest-offset":
		opts = append(opts, kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()))
	default:
		opts = append(opts, kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return fmt.Errorf("kafka source: create client: %w", err)
	}
	defer client.Close()

	var buffer []map[string]any

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fetches := client.PollFetches(ctx.Ctx)
		if errs := fetches.Errors(); len(errs) > 0 {
			for _, e := range errs {
				ctx.Logger.Error("kafka fetch error", "topic", e.Topic, "partition", e.Partition, "error", e.Err)
			}
			continue
		}

		fetches.EachRecord(func(rec *kgo.Record) {
			var row map[string]any
			if err := json.Unmarshal(rec.Value, &row); err != nil {
				ctx.Logger.Error("kafka json decode error", "error", err)
				return
			}
			buffer = append(buffer, row)
		})

		for len(buffer) >= defaultBatchSize {
			chunk := buffer[:defaultBatchSize]
			buffer = buffer[defaultBatchSize:]

			rec, err := jsonRowsToRecord(k.alloc, k.schema, chunk)
			if err != nil {
				ctx.Logger.Error("kafka build batch error", "error", err)
				continue
			}

			select {
			case out <- rec:
				ctx.Metrics.BatchesProcessed.Add(1)
				ctx.Metrics.RowsProcessed.Add(rec.NumRows())
			case <-ctx.Done():
				rec.Release()
				return nil
			}
		}
	}
}

func (k *KafkaSource) Close() error { return nil }

// jsonRowsToRecord converts JSON row maps to an Arrow RecordBatch.
func jsonRowsToRecord(alloc memory.Allocator, schema *arrow.Schema, rows []map[string]any) (arrow.Record, error) {
	numCols := schema.NumFields()
	builders := make([]array.Builder, numCols)
	for i := 0; i < numCols; i++ {
		builders[i] = array.NewBuilder(alloc, schema.Field(i).Type)
	}
	defer func() {
		for _, b := range builders {
			b.Release()
		}
	}()

	for _, row := range rows {
		for i := 0; i < numCols; i++ {
			f := schema.Field(i)
			val, exists := row[f.Name]
			if !exists || val == nil {
				builders[i].AppendNull()
				continue
			}
			appendJSONValue(builders[i], val)
		}
	}

	arrays := make([]arrow.Array, numCols)
	for i, b := range builders {
		arrays[i] = b.NewArray()
	}

	rec := array.NewRecord(schema, arrays, int64(len(rows)))
	for _, a := range arrays {
		a.Release()
	}
	return rec, nil
}

func appendJSONValue(bldr array.Builder, val any) {
	switch b := bldr.(type) {
	case *array.Int64Builder:
		switch v := val.(type) {
		case float64:
			b.Append(int64(v))
		case json.Number:
			n, _ := v.Int64()
			b.Append(n)
		default:
			b.AppendNull()
		}
	case *array.Float64Builder:
		switch v := val.(type) {
		case float64:
			b.Append(v)
		case json.Number:
			n, _ := v.Float64()
			b.Append(n)
		default:
			b.AppendNull()
		}
	case *array.StringBuilder:
		if s, ok := val.(string); ok {
			b.Append(s)
		} else {
			b.Append(fmt.Sprintf("%v", val))
		}
	case *array.BooleanBuilder:
		if v, ok := val.(bool); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	default:
		bldr.AppendNull()
	}
}
