package service

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// publish never fails the caller: the change it describes is already committed.
func publish(ctx context.Context, pub events.Publisher, topic, key string, event any) {
	if pub == nil {
		return
	}
	if err := pub.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("publish_error", "topic", topic, "key", key, "error", err)
	}
}
