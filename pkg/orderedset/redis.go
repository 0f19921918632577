// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package orderedset

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisClient adapts go-redis/v9's synchronous API to Client's async
// callback contract by dispatching each command on its own goroutine.
// This keeps the pipeline's serialization point (§5) free while the
// network round trip is in flight.
type RedisClient struct {
	rdb *redis.Client
}

func NewRedisClient(rdb *redis.Client) *RedisClient {
	return &RedisClient{rdb: rdb}
}

func (c *RedisClient) ZRangeByLex(ctx context.Context, index string, lo, hi []byte, limit int64, cb Callback) {
	go func() {
		res, err := c.rdb.ZRangeByLex(ctx, index, &redis.ZRangeBy{
			Min:   string(lo),
			Max:   string(hi),
			Count: limit,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				cb(Reply{Type: ReplyNil}, nil)
				return
			}
			cb(Reply{}, err)
			return
		}
		cb(Reply{Type: ReplyArray, Array: res}, nil)
	}()
}

func (c *RedisClient) ZAdd(ctx context.Context, index string, member []byte, cb Callback) {
	go func() {
		n, err := c.rdb.ZAdd(ctx, index, redis.Z{Score: 0, Member: string(member)}).Result()
		if err != nil {
			cb(Reply{}, err)
			return
		}
		cb(Reply{Type: ReplyInteger, Int: n}, nil)
	}()
}

func (c *RedisClient) ZRemRangeByLex(ctx context.Context, index string, lo, hi []byte, cb Callback) {
	go func() {
		n, err := c.rdb.ZRemRangeByLex(ctx, index, string(lo), string(hi)).Result()
		if err != nil {
			cb(Reply{}, err)
			return
		}
		cb(Reply{Type: ReplyInteger, Int: n}, nil)
	}()
}
