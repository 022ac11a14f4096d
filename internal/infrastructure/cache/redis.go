// Package cache stores task records in Redis for read-through lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/St1cky1/todo-service/internal/entity"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

type TaskCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewTaskCache connects to Redis and pings it before returning.
func NewTaskCache(ctx context.Context, cfg Config) (*TaskCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}

	return &TaskCache{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}, nil
}

// generationTTL outlives any task TTL; an expired counter only makes
// pending fills miss.
const generationTTL = 24 * time.Hour

func (c *TaskCache) key(id int64) string {
	return c.prefix + "task:" + strconv.FormatInt(id, 10)
}

func (c *TaskCache) genKey(id int64) string {
	return c.prefix + "task:" + strconv.FormatInt(id, 10) + ":gen"
}

// Get returns (nil, false, nil) on a cache miss.
func (c *TaskCache) Get(ctx context.Context, id int64) (*entity.Task, bool, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get task %d: %w", id, err)
	}

	var task entity.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, false, fmt.Errorf("cache decode task %d: %w", id, err)
	}
	return &task, true, nil
}

// Generation returns the invalidation counter of a task; 0 when unset.
func (c *TaskCache) Generation(ctx context.Context, id int64) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache get generation %d: %w", id, err)
	}
	return gen, nil
}

// SetIfGeneration stores task only while its generation still equals gen.
// The generation key is WATCHed, so an invalidation that lands between the
// check and the write aborts the transaction.
func (c *TaskCache) SetIfGeneration(ctx context.Context, task *entity.Task, gen int64) (bool, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return false, fmt.Errorf("cache encode task %d: %w", task.ID, err)
	}

	genKey := c.genKey(task.ID)
	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != gen {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(task.ID), data, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache set task %d: %w", task.ID, err)
	}
	return stored, nil
}

// Delete drops the cached record and bumps its generation in one
// transaction.
func (c *TaskCache) Delete(ctx context.Context, id int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(id))
		pipe.Expire(ctx, c.genKey(id), generationTTL)
		pipe.Del(ctx, c.key(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache delete task %d: %w", id, err)
	}
	return nil
}

func (c *TaskCache) Close() error {
	return c.client.Close()
}
