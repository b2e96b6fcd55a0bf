// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for game action logs.
const DefaultQueueName = "rummy_actions"

// ActionRecord holds the minimal info needed by the historian to archive one action.
type ActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	RoomCode      string                 `json:"room_code"`
	ActionIndex   int                    `json:"action_index"`
	ActorID       uuid.UUID              `json:"actor_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// Connect opens a Redis client and checks it with a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// ActionQueue is a Redis list of action records. The game server pushes, the
// historian pops.
type ActionQueue struct {
	rdb  redis.Cmdable
	name string
}

// NewActionQueue wraps a Redis client. An empty name uses DefaultQueueName.
func NewActionQueue(rdb redis.Cmdable, name string) *ActionQueue {
	if name == "" {
		name = DefaultQueueName
	}
	return &ActionQueue{rdb: rdb, name: name}
}

// Name returns the Redis key of the queue.
func (q *ActionQueue) Name() string { return q.name }

// Publish serializes the record to JSON and pushes it to the tail of the queue.
func (q *ActionQueue) Publish(ctx context.Context, record ActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.name, err)
	}
	return nil
}

// Pop blocks up to timeout for the next record. It returns (nil, nil) when the
// queue stayed empty.
func (q *ActionQueue) Pop(ctx context.Context, timeout time.Duration) (*ActionRecord, error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPop %s: %w", q.name, err)
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return nil, nil
	}
	var record ActionRecord
	if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
		return nil, fmt.Errorf("invalid action record: %w", err)
	}
	return &record, nil
}
