// Package ingest drives document ingestion from a Kafka topic into an
// index.Engine, decoupling document production from the engine's
// single-threaded insert path.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/gitpan/OurNet-FuzzyIndex/index"
)

// Document is the wire shape of one ingest-topic message: a caller
// doc_key and the raw content to parse and index.
type Document struct {
	DocKey  string `json:"doc_key"`
	Content []byte `json:"content"`
}

// InsertRecorder is the subset of index.Engine's Insert path the
// consumer drives; a narrow interface so tests can supply a fake.
type InsertRecorder interface {
	Insert(docKey string, data []byte) (uint32, error)
}

var _ InsertRecorder = (*index.Engine)(nil)

// Consumer reads Document messages off a Kafka topic and inserts each
// into an engine, one at a time, matching the engine's single-threaded
// insert contract (spec §5).
type Consumer struct {
	reader   *kafka.Reader
	engine   InsertRecorder
	onInsert func(docID uint32, doc Document)
	onError  func(err error)
}

// Config configures a Consumer's underlying kafka.Reader.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// New constructs a Consumer reading from cfg's topic and inserting into
// engine. onInsert and onError may be nil.
func New(cfg Config, engine InsertRecorder, onInsert func(uint32, Document), onError func(error)) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	return &Consumer{reader: reader, engine: engine, onInsert: onInsert, onError: onError}
}

// Run reads messages until ctx is canceled or the reader returns a fatal
// error. Malformed messages are reported via onError and skipped rather
// than aborting the loop.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("ingest: read message: %w", err)
		}

		var doc Document
		if err := json.Unmarshal(msg.Value, &doc); err != nil {
			c.reportError(fmt.Errorf("ingest: decode message at offset %d: %w", msg.Offset, err))
			continue
		}

		id, err := c.engine.Insert(doc.DocKey, doc.Content)
		if err != nil {
			c.reportError(fmt.Errorf("ingest: insert %q: %w", doc.DocKey, err))
			continue
		}
		if c.onInsert != nil {
			c.onInsert(id, doc)
		}
	}
}

func (c *Consumer) reportError(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}

// Close releases the underlying Kafka reader.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("ingest: close reader: %w", err)
	}
	return nil
}
