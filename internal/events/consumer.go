package events

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

const readRetryDelay = time.Second

type Handler func(ctx context.Context, key, value []byte) error

func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
}

// Consume blocks until ctx is cancelled or the reader is closed. Handler errors are logged
// and the message is committed anyway; the indexer it feeds is rebuildable.
func Consume(ctx context.Context, reader *kafka.Reader, handler Handler) {
	l := logging.FromContext(ctx).With("consumer", reader.Config().Topic)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				l.Info("consumer_stopped")
				return
			}
			l.Error("consume_read_error", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			l.Error("consume_handle_error", "offset", msg.Offset, "error", err)
		}
	}
}
