package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// Redis channel prefix for per-user realtime delivery
	RedisNotifyChannelPrefix = "notify:user:"

	// Redis list prefix for push messages drained by the mobile gateway
	RedisPushQueueKey = "notify:push"

	notifierTimeout = 5 * time.Second
)

// Notifier delivers computed notices to users. Delivery is best-effort and
// runs after the state-mutating transaction committed; failures are logged by
// the caller and never roll anything back.
type Notifier interface {
	// Send publishes one point-to-point notice.
	Send(ctx context.Context, userID uuid.UUID, action string, payload any) error
	// SendGroup publishes the same notice to every user in the set.
	SendGroup(ctx context.Context, userIDs []uuid.UUID, action string, payload any) error
	// Push enqueues a background/offline delivery for the user.
	Push(ctx context.Context, userID uuid.UUID, message string) error
}

// NotifyMessage is the wire shape published on the per-user channel.
type NotifyMessage struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
	SentAt  string `json:"sent_at"`
}

type redisNotifier struct {
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewRedisNotifier(redisClient *redis.Client, log *logrus.Logger) Notifier {
	return &redisNotifier{
		redisClient: redisClient,
		log:         log,
	}
}

func (n *redisNotifier) Send(ctx context.Context, userID uuid.UUID, action string, payload any) error {
	ctx, cancel := context.WithTimeout(ctx, notifierTimeout)
	defer cancel()

	body, err := json.Marshal(NotifyMessage{
		Action:  action,
		Payload: payload,
		SentAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal notify message: %w", err)
	}

	channel := RedisNotifyChannelPrefix + userID.String()
	if err := n.redisClient.Publish(ctx, channel, body).Err(); err != nil {
		n.log.Warnf("Failed to publish notice %s to %s: %+v", action, userID, err)
		return fmt.Errorf("publish to %s: %w", channel, err)
	}

	return nil
}

func (n *redisNotifier) SendGroup(ctx context.Context, userIDs []uuid.UUID, action string, payload any) error {
	if len(userIDs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, notifierTimeout)
	defer cancel()

	body, err := json.Marshal(NotifyMessage{
		Action:  action,
		Payload: payload,
		SentAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal notify message: %w", err)
	}

	pipe := n.redisClient.Pipeline()
	for _, userID := range userIDs {
		pipe.Publish(ctx, RedisNotifyChannelPrefix+userID.String(), body)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		n.log.Warnf("Failed to publish group notice %s to %d users: %+v", action, len(userIDs), err)
		return fmt.Errorf("publish group notice: %w", err)
	}

	return nil
}

func (n *redisNotifier) Push(ctx context.Context, userID uuid.UUID, message string) error {
	ctx, cancel := context.WithTimeout(ctx, notifierTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{
		"user_id": userID.String(),
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	if err := n.redisClient.RPush(ctx, RedisPushQueueKey, body).Err(); err != nil {
		n.log.Warnf("Failed to enqueue push for %s: %+v", userID, err)
		return fmt.Errorf("enqueue push: %w", err)
	}

	return nil
}
