package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisQueueKey   = "dukaan:queue:jobs"
	redisDelayedKey = "dukaan:queue:delayed"

	popTimeout  = 5 * time.Second
	promoteTick = time.Second
)

// RedisDriver backs the queue with Redis so jobs survive process restarts
// and can be consumed by dedicated worker processes (dukaan queue:work).
// Immediate jobs ride a list (LPUSH/BRPOP); delayed jobs sit in a sorted
// set scored by their due time.
type RedisDriver struct {
	rdb *redis.Client
	ctx context.Context
}

// NewRedisDriver wraps the shared *redis.Client from pkg/cache and starts
// the delayed-job promoter.
func NewRedisDriver(rdb *redis.Client) *RedisDriver {
	d := &RedisDriver{rdb: rdb, ctx: context.Background()}
	go d.promoteLoop()
	return d
}

func (d *RedisDriver) Push(payload []byte) error {
	if err := d.rdb.LPush(d.ctx, redisQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("queue/redis: push: %w", err)
	}
	return nil
}

// Pop blocks up to popTimeout. A nil, nil return means no job was ready.
func (d *RedisDriver) Pop(ctx context.Context) ([]byte, error) {
	result, err := d.rdb.BRPop(ctx, popTimeout, redisQueueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("queue/redis: pop: %w", err)
	}
	// BRPop returns [key, value].
	if len(result) < 2 {
		return nil, nil
	}
	return []byte(result[1]), nil
}

// PushDelayed parks the payload in the delayed set until its due time.
func (d *RedisDriver) PushDelayed(payload []byte, delay time.Duration) error {
	due := float64(time.Now().Add(delay).Unix())
	err := d.rdb.ZAdd(d.ctx, redisDelayedKey, redis.Z{Score: due, Member: string(payload)}).Err()
	if err != nil {
		return fmt.Errorf("queue/redis: push delayed: %w", err)
	}
	return nil
}

// promoteLoop moves due delayed jobs onto the main list once per tick.
func (d *RedisDriver) promoteLoop() {
	ticker := time.NewTicker(promoteTick)
	defer ticker.Stop()
	for range ticker.C {
		due, err := d.rdb.ZRangeByScore(d.ctx, redisDelayedKey, &redis.ZRangeBy{
			Min: "-inf",
			Max: strconv.FormatInt(time.Now().Unix(), 10),
		}).Result()
		if err != nil || len(due) == 0 {
			continue
		}
		pipe := d.rdb.Pipeline()
		for _, payload := range due {
			pipe.ZRem(d.ctx, redisDelayedKey, payload)
			pipe.LPush(d.ctx, redisQueueKey, []byte(payload))
		}
		pipe.Exec(d.ctx) //nolint:errcheck
	}
}
