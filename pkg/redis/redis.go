package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// IRedis gates the microphone across instances: a capture lock is held for
// the lifetime of one recording session, and the last reply per session is
// cached briefly so a reconnecting client can re-fetch it.
type IRedis interface {
	AcquireCaptureLock(ctx context.Context, clientID, sessionID string, ttl time.Duration) (bool, error)
	ReleaseCaptureLock(ctx context.Context, clientID, sessionID string) error
	CacheReply(ctx context.Context, sessionID string, payload string, ttl time.Duration) error
	GetCachedReply(ctx context.Context, sessionID string) (string, error)
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func captureLockKey(clientID string) string {
	return "voice:capture_lock:" + clientID
}

func replyKey(sessionID string) string {
	return "voice:last_reply:" + sessionID
}

func (r *redisClient) AcquireCaptureLock(ctx context.Context, clientID, sessionID string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, captureLockKey(clientID), sessionID, ttl).Result()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error acquiring capture lock for client %s: %v", clientID, err))
		return false, err
	}
	return ok, nil
}

func (r *redisClient) ReleaseCaptureLock(ctx context.Context, clientID, sessionID string) error {
	val, err := r.client.Get(ctx, captureLockKey(clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	// Only the session that acquired the lock may release it.
	if val != sessionID {
		return nil
	}

	return r.client.Del(ctx, captureLockKey(clientID)).Err()
}

func (r *redisClient) CacheReply(ctx context.Context, sessionID string, payload string, ttl time.Duration) error {
	err := r.client.Set(ctx, replyKey(sessionID), payload, ttl).Err()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error caching reply for session %s: %v", sessionID, err))
	}
	return err
}

func (r *redisClient) GetCachedReply(ctx context.Context, sessionID string) (string, error) {
	val, err := r.client.Get(ctx, replyKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", err
	}
	if err != nil {
		logrus.Error(fmt.Sprintf("Error getting cached reply for session %s: %v", sessionID, err))
		return "", err
	}
	return val, nil
}
