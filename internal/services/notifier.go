package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"realtime/internal/models"
	"realtime/internal/utils"
)

const notificationChannel = "realtime:notifications"

// Notifier bridges entity-scoped notifications between service instances over
// redis pub/sub. Sibling services (board CRUD, sprint scheduler) publish on
// the same channel; every realtime instance fans received events out to its
// local rooms, so viewers are reached no matter which instance they are
// connected to.
type Notifier struct {
	rdb        *redis.Client
	log        *utils.Logger
	instanceID string
}

func NewNotifier(redisAddr string, log *utils.Logger) *Notifier {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	return &Notifier{
		rdb:        rdb,
		log:        log,
		instanceID: uuid.New().String(),
	}
}

// GetInstanceID returns the unique ID tagged onto events this instance
// publishes.
func (n *Notifier) GetInstanceID() string {
	return n.instanceID
}

// Publish sends a notification event to every subscribed instance, this one
// included. Local delivery also happens through the subscription so all
// instances take the same path.
func (n *Notifier) Publish(ctx context.Context, event models.NotificationEvent) error {
	event.InstanceID = n.instanceID
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	return n.rdb.Publish(ctx, notificationChannel, data).Err()
}

// Subscribe consumes notification events until ctx is cancelled, invoking
// deliver for each decoded event.
func (n *Notifier) Subscribe(ctx context.Context, deliver func(models.NotificationEvent)) {
	pubsub := n.rdb.Subscribe(ctx, notificationChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	n.log.Info("subscribed to notification events", "instance", n.instanceID)

	for {
		select {
		case <-ctx.Done():
			n.log.Info("stopping notification subscriber", "instance", n.instanceID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event models.NotificationEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				n.log.Error("failed to unmarshal notification event", "error", err.Error())
				continue
			}
			deliver(event)
		}
	}
}

// Close releases the redis client.
func (n *Notifier) Close() error {
	return n.rdb.Close()
}
