package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"marketplace/models"
)

// Sink persists notifications so users can list them later.
type Sink interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Dispatcher stores every notification and publishes it to a Redis stream
// for downstream consumers. Failures are logged and never returned: a
// lifecycle transition that already committed must not fail on delivery.
type Dispatcher struct {
	sink   Sink
	redis  *redis.Client
	stream string
	maxLen int64
	log    *zap.Logger
}

// NewDispatcher creates a dispatcher. A nil client disables publishing.
func NewDispatcher(sink Sink, client *redis.Client, stream string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sink:   sink,
		redis:  client,
		stream: stream,
		maxLen: 10000,
		log:    logger,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, n models.Notification) {
	if err := d.sink.CreateNotification(ctx, &n); err != nil {
		d.log.Error("failed to store notification",
			zap.String("user_id", n.UserID),
			zap.String("type", n.Type),
			zap.Error(err))
		return
	}
	if d.redis == nil || d.stream == "" {
		return
	}
	if _, err := d.publish(ctx, n); err != nil {
		d.log.Warn("failed to publish notification",
			zap.String("stream", d.stream),
			zap.String("notification_id", n.ID),
			zap.Error(err))
	}
}

func (d *Dispatcher) publish(ctx context.Context, n models.Notification) (string, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("marshal notification: %w", err)
	}
	return d.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: d.stream,
		MaxLen: d.maxLen,
		Values: map[string]interface{}{
			"user_id": n.UserID,
			"type":    n.Type,
			"data":    string(data),
		},
	}).Result()
}
