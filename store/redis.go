package store

import (
	"context"
	"time"

	"dentabot/dialog"
	"dentabot/provider"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "dentabot:slots:"

const (
	fieldTime     = "time"
	fieldLocation = "location"
)

// Redis shares slots between bot replicas. Each conversation is a hash that
// expires after ttl without writes.
type Redis struct {
	logger *zap.Logger
	ttl    time.Duration
	client *redis.Client
}

func NewRedisClient(cfg provider.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

func NewRedis(logger *zap.Logger, client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		logger: logger,
		ttl:    ttl,
		client: client,
	}
}

func key(conversationId string) string {
	return keyPrefix + conversationId
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping")
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, conversationId string) (dialog.ConversationSlots, error) {
	values, err := r.client.HGetAll(ctx, key(conversationId)).Result()
	if err != nil {
		return dialog.ConversationSlots{}, errors.Wrap(err, "redis hgetall")
	}
	return dialog.ConversationSlots{
		RequestedTime:     values[fieldTime],
		RequestedLocation: values[fieldLocation],
	}, nil
}

func (r *Redis) Set(ctx context.Context, conversationId string, slots dialog.ConversationSlots) error {
	k := key(conversationId)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, fieldTime, slots.RequestedTime, fieldLocation, slots.RequestedLocation)
		pipe.Expire(ctx, k, r.ttl)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "redis set slots")
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, conversationId string) error {
	if err := r.client.Del(ctx, key(conversationId)).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
