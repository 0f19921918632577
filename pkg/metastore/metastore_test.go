// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/LeeDigitalWorks/zapfs/pkg/kvs"
	"github.com/LeeDigitalWorks/zapfs/pkg/orderedset"
	"github.com/LeeDigitalWorks/zapfs/pkg/storage/index"
)

func newTestShim(t *testing.T) *kvs.Shim {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return kvs.New(orderedset.NewRedisClient(rdb))
}

func await(t *testing.T, fn func(done func())) {
	t.Helper()
	ch := make(chan struct{}, 1)
	fn(func() { ch <- struct{}{} })
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
}

func TestBucketStoreLoadMissing(t *testing.T) {
	ctx := context.Background()
	s := NewBucketStore(newTestShim(t))

	await(t, func(done func()) {
		s.Load(ctx, "no-such-bucket", func(b *Bucket) {
			require.Equal(t, StateMissing, b.State())
			done()
		}, func(err error) { t.Fatalf("unexpected failure: %v", err) })
	})
}

func TestBucketStoreSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	s := NewBucketStore(newTestShim(t))

	b := &Bucket{Name: "my-bucket", Region: "us-east-1"}
	await(t, func(done func()) {
		s.Save(ctx, b, func() {
			require.Equal(t, StateSaved, b.State())
			done()
		}, func(err error) { t.Fatalf("unexpected failure: %v", err) })
	})

	await(t, func(done func()) {
		s.Load(ctx, "my-bucket", func(loaded *Bucket) {
			require.Equal(t, StatePresent, loaded.State())
			require.Equal(t, "us-east-1", loaded.Region)
			done()
		}, func(err error) { t.Fatalf("unexpected failure: %v", err) })
	})
}

func TestBucketStoreCacheServesWithoutStore(t *testing.T) {
	ctx := context.Background()
	shim := newTestShim(t)
	cache, err := index.NewMemoryIndexer[string, Bucket]()
	require.NoError(t, err)
	s := NewBucketStoreWithCache(shim, cache)

	b := &Bucket{Name: "cached-bucket", Region: "eu-west-1"}
	await(t, func(done func()) {
		s.Save(ctx, b, func() { done() }, func(err error) { t.Fatalf("unexpected failure: %v", err) })
	})

	// Prime the cache via a load, then delete straight from the ordered-set
	// store so only a cache hit can satisfy a second load.
	await(t, func(done func()) {
		s.Load(ctx, "cached-bucket", func(*Bucket) { done() }, func(err error) { t.Fatalf("unexpected failure: %v", err) })
	})
	await(t, func(done func()) {
		shim.Delete(ctx, bucketIndex, [][]byte{[]byte("cached-bucket")}, func(_ []kvs.DeleteResult, code kvs.ResultCode) {
			require.Equal(t, kvs.CodeOK, code)
			done()
		})
	})

	await(t, func(done func()) {
		s.Load(ctx, "cached-bucket", func(loaded *Bucket) {
			require.Equal(t, StatePresent, loaded.State())
			require.Equal(t, "eu-west-1", loaded.Region)
			done()
		}, func(err error) { t.Fatalf("unexpected failure: %v", err) })
	})
}

func TestMultipartStoreMissingUpload(t *testing.T) {
	ctx := context.Background()
	s := NewMultipartStore(newTestShim(t))

	await(t, func(done func()) {
		s.Load(ctx, "no-such-upload", func(u *MultipartUpload) {
			require.Equal(t, StateMissing, u.State())
			done()
		}, func(err error) { t.Fatalf("unexpected failure: %v", err) })
	})
}

func TestMultipartStoreSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	s := NewMultipartStore(newTestShim(t))

	u := &MultipartUpload{UploadID: "upload-1", Object: "obj.bin", Bucket: "b"}
	await(t, func(done func()) {
		s.Save(ctx, u, func() { done() }, func(err error) { t.Fatalf("unexpected failure: %v", err) })
	})

	await(t, func(done func()) {
		s.Load(ctx, "upload-1", func(loaded *MultipartUpload) {
			require.Equal(t, StatePresent, loaded.State())
			require.Equal(t, "obj.bin", loaded.Object)
			done()
		}, func(err error) { t.Fatalf("unexpected failure: %v", err) })
	})
}

func TestPartStoreSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	s := NewPartStore(newTestShim(t))

	p := &Part{
		UploadID:      "upload-1",
		PartNumber:    1,
		ContentLength: 1024,
		ContentMD5:    "deadbeef",
		UserMeta:      map[string]string{"x-amz-meta-foo": "bar"},
	}
	await(t, func(done func()) {
		s.Save(ctx, p, func() { done() }, func(err error) { t.Fatalf("unexpected failure: %v", err) })
	})

	await(t, func(done func()) {
		s.Load(ctx, "upload-1", 1, func(loaded *Part) {
			require.Equal(t, StatePresent, loaded.State())
			require.Equal(t, int64(1024), loaded.ContentLength)
			require.Equal(t, "bar", loaded.UserMeta["x-amz-meta-foo"])
			done()
		}, func(err error) { t.Fatalf("unexpected failure: %v", err) })
	})
}

func TestPartStoreMissingPart(t *testing.T) {
	ctx := context.Background()
	s := NewPartStore(newTestShim(t))

	await(t, func(done func()) {
		s.Load(ctx, "upload-1", 1, func(p *Part) {
			require.Equal(t, StateMissing, p.State())
			done()
		}, func(err error) { t.Fatalf("unexpected failure: %v", err) })
	})
}
