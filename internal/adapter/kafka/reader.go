// Package kafka consumes property-update notifications from the dashboard
// backend, feeding the cache warmer.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/plazaview/property-geocode-service/internal/domain"
)

// Reader consumes the property-updates topic.
// It implements warmer.Source.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a consumer-group reader for the given topic.
func NewReader(brokers []string, topic, groupID string, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	return &Reader{reader: r, logger: logger}
}

// Extract blocks for the next well-formed property update. Malformed
// messages are committed and skipped so one poison pill cannot wedge the
// consumer group.
func (r *Reader) Extract(ctx context.Context) (domain.PropertyUpdate, error) {
	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			return domain.PropertyUpdate{}, fmt.Errorf("fetch message: %w", err)
		}

		update, err := mapMessageToUpdate(msg)
		if err != nil {
			r.logger.Warn("skipping malformed property update",
				"error", err,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
			if err := r.reader.CommitMessages(ctx, msg); err != nil {
				return domain.PropertyUpdate{}, fmt.Errorf("commit malformed message: %w", err)
			}
			continue
		}

		update.Commit = func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		}
		return update, nil
	}
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// updateMessage is the wire form published by the backend on record changes.
type updateMessage struct {
	ID     int64  `json:"id"`
	Action string `json:"action"` // "created", "updated", "deleted"
}

func mapMessageToUpdate(msg kafkago.Message) (domain.PropertyUpdate, error) {
	var um updateMessage
	if err := json.Unmarshal(msg.Value, &um); err != nil {
		return domain.PropertyUpdate{}, fmt.Errorf("decode property update: %w", err)
	}
	if um.ID <= 0 {
		return domain.PropertyUpdate{}, fmt.Errorf("property update without id: %s", msg.Value)
	}
	return domain.PropertyUpdate{PropertyID: um.ID, Action: um.Action}, nil
}
