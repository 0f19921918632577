// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package orderedset

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *RedisClient {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisClient(rdb)
}

func await[T any](t *testing.T, fn func(cb func(T))) T {
	t.Helper()
	ch := make(chan T, 1)
	fn(func(v T) { ch <- v })
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
		var zero T
		return zero
	}
}

func TestZAddThenZRangeByLex(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	reply := await[Reply](t, func(cb func(Reply)) {
		c.ZAdd(ctx, "idx", []byte("obj-1\x00v1"), func(r Reply, err error) {
			require.NoError(t, err)
			cb(r)
		})
	})
	require.Equal(t, ReplyInteger, reply.Type)
	require.Equal(t, int64(1), reply.Int)

	reply = await[Reply](t, func(cb func(Reply)) {
		c.ZRangeByLex(ctx, "idx", []byte("[obj-1"), []byte("(obj-1\xff"), 1, func(r Reply, err error) {
			require.NoError(t, err)
			cb(r)
		})
	})
	require.Equal(t, ReplyArray, reply.Type)
	require.Equal(t, []string{"obj-1\x00v1"}, reply.Array)
}

func TestZRemRangeByLex(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	await[Reply](t, func(cb func(Reply)) {
		c.ZAdd(ctx, "idx", []byte("k\x00old"), func(r Reply, err error) { cb(r) })
	})

	reply := await[Reply](t, func(cb func(Reply)) {
		c.ZRemRangeByLex(ctx, "idx", []byte("[k"), []byte("(k\xff"), func(r Reply, err error) {
			require.NoError(t, err)
			cb(r)
		})
	})
	require.Equal(t, ReplyInteger, reply.Type)
	require.Equal(t, int64(1), reply.Int)
}

func TestZRangeByLexEmptyIsEmptyArray(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	reply := await[Reply](t, func(cb func(Reply)) {
		c.ZRangeByLex(ctx, "missing", []byte("[k"), []byte("(k\xff"), 1, func(r Reply, err error) {
			require.NoError(t, err)
			cb(r)
		})
	})
	require.Equal(t, ReplyArray, reply.Type)
	require.Empty(t, reply.Array)
}
