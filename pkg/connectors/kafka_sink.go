package connectors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/ashokkumars001/hetu-core/pkg/operator"
	"github.com/ashokkumars001/hetu-core/pkg/snapshot"
)

// KafkaSink serializes Arrow RecordBatches as JSON rows and produces
// them to a Kafka topic. Snapshot markers are dropped; they delimit
// checkpoints inside the pipeline and carry no data.
type KafkaSink struct {
	cfg    KafkaConfig
	keyBy  []string
	client *kgo.Client
}

// NewKafkaSink creates a Kafka sink connector. keyBy names the columns
// composing the partition key, if any.
func NewKafkaSink(cfg KafkaConfig, keyBy []string) *KafkaSink {
	return &KafkaSink{cfg: cfg, keyBy: keyBy}
}

func (k *KafkaSink) Open(_ *operator.Context) error {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(k.cfg.BootstrapServers),
		kgo.DefaultProduceTopic(k.cfg.Topic),
	)
	if err != nil {
		return fmt.Errorf("kafka sink: create client: %w", err)
	}
	k.client = client
	return nil
}

func (k *KafkaSink) WriteBatch(batch arrow.Record) error {
	if snapshot.IsMarker(batch) {
		return nil
	}

	numRows := int(batch.NumRows())
	schema := batch.Schema()

	for row := 0; row < numRows; row++ {
		record := make(map[string]any, schema.NumFields())
		for col := 0; col < schema.NumFields(); col++ {
			f := schema.Field(col)
			arr := batch.Column(col)
			if arr.IsNull(row) {
				record[f.Name] = nil
			} else {
				record[f.Name] = formatValue(arr, row)
			}
		}

		value, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("kafka sink: marshal row %d: %w", row, err)
		}

		rec := &kgo.Record{Value: value}

		if len(k.keyBy) > 0 {
			keyParts := make(map[string]any, len(k.keyBy))
			for _, keyCol := range k.keyBy {
				if v, ok := record[keyCol]; ok {
					keyParts[keyCol] = v
				}
			}
			keyBytes, _ := json.Marshal(keyParts)
			rec.Key = keyBytes
		}

		k.client.Produce(context.Background(), rec, nil)
	}

	if err := k.client.Flush(context.Background()); err != nil {
		return fmt.Errorf("kafka sink: flush: %w", err)
	}
	return nil
}

func (k *KafkaSink) Close() error {
	if k.client != nil {
		k.client.Close()
	}
	return nil
}
