package feed

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
)

type RecordHandler func(ctx context.Context, rec Record) error

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader}
}

func (c *Consumer) Consume(ctx context.Context, handler RecordHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("[Feed] Error reading message: %v", err)
				continue
			}

			var rec Record
			if err := json.Unmarshal(msg.Value, &rec); err != nil {
				log.Printf("[Feed] Skipping malformed record for key %s: %v", msg.Key, err)
				continue
			}

			if err := handler(ctx, rec); err != nil {
				log.Printf("[Feed] Error handling record for %s: %v", rec.Path, err)
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
