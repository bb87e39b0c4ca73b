// Package redisstore keeps a read-side copy of presence in Redis so
// active-user queries skip the room's sqlite unit on the hot path. The
// storage units stay authoritative; a cold or unreachable cache just means
// a store read.
package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shardchat/shardchat/internal/room"
)

type Store struct {
	client *redis.Client
	window time.Duration
}

func New(addr, password string, db int, window time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	return &Store{client: client, window: window}, nil
}

// Key pattern:
// presence:room:{room_id}   ZSET<username, score=last_seen unix ms>
func presenceKey(roomID string) string {
	return fmt.Sprintf("presence:room:%s", roomID)
}

func (s *Store) Touch(ctx context.Context, roomID, username string, ts time.Time) error {
	key := presenceKey(roomID)
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(ts.UnixMilli()), Member: username})
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%d", ts.Add(-s.window).UnixMilli()))
	pipe.Expire(ctx, key, 2*s.window)
	_, err := pipe.Exec(ctx)
	return err
}

// Active reads the window from the sorted set. ok=false when the key is
// empty: the cache may simply be cold, so the caller falls back to the unit.
func (s *Store) Active(ctx context.Context, roomID string, windowStart time.Time) ([]room.Presence, bool, error) {
	entries, err := s.client.ZRevRangeByScoreWithScores(ctx, presenceKey(roomID), &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(windowStart.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, false, err
	}
	if len(entries) == 0 {
		return nil, false, nil
	}

	rows := make([]room.Presence, 0, len(entries))
	for _, e := range entries {
		username, _ := e.Member.(string)
		rows = append(rows, room.Presence{
			Username: username,
			RoomID:   roomID,
			LastSeen: time.UnixMilli(int64(e.Score)).UTC(),
		})
	}
	return rows, true, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
