package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// Redis set holding the currently connected admin user ids
	RedisOnlineAdminsKey = "presence:admins"

	presenceTimeout = 5 * time.Second
)

// OnlinePresence tracks which clinic admins hold a live connection. The
// matcher's online-only stage consults it; the websocket gateway marks
// connect/disconnect.
type OnlinePresence interface {
	MarkOnline(ctx context.Context, userID uuid.UUID) error
	MarkOffline(ctx context.Context, userID uuid.UUID) error
	// OnlineAdmins returns the connected admin set.
	OnlineAdmins(ctx context.Context) (map[uuid.UUID]struct{}, error)
}

type redisPresence struct {
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewRedisPresence(redisClient *redis.Client, log *logrus.Logger) OnlinePresence {
	return &redisPresence{
		redisClient: redisClient,
		log:         log,
	}
}

func (p *redisPresence) MarkOnline(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, presenceTimeout)
	defer cancel()

	if err := p.redisClient.SAdd(ctx, RedisOnlineAdminsKey, userID.String()).Err(); err != nil {
		p.log.Warnf("Failed to mark %s online: %+v", userID, err)
		return fmt.Errorf("mark online: %w", err)
	}
	return nil
}

func (p *redisPresence) MarkOffline(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, presenceTimeout)
	defer cancel()

	if err := p.redisClient.SRem(ctx, RedisOnlineAdminsKey, userID.String()).Err(); err != nil {
		p.log.Warnf("Failed to mark %s offline: %+v", userID, err)
		return fmt.Errorf("mark offline: %w", err)
	}
	return nil
}

func (p *redisPresence) OnlineAdmins(ctx context.Context) (map[uuid.UUID]struct{}, error) {
	ctx, cancel := context.WithTimeout(ctx, presenceTimeout)
	defer cancel()

	members, err := p.redisClient.SMembers(ctx, RedisOnlineAdminsKey).Result()
	if err != nil {
		p.log.Warnf("Failed to read online admins: %+v", err)
		return nil, fmt.Errorf("read online admins: %w", err)
	}

	online := make(map[uuid.UUID]struct{}, len(members))
	for _, member := range members {
		id, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		online[id] = struct{}{}
	}
	return online, nil
}
