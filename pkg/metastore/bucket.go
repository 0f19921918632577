// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"context"

	"github.com/LeeDigitalWorks/zapfs/pkg/kvs"
	"github.com/LeeDigitalWorks/zapfs/pkg/storage/index"
)

// Bucket is (name) → does the bucket exist, plus the fields a part upload
// needs to know about it. Loaded read-only by the pipeline.
type Bucket struct {
	Name   string
	Region string

	state State
}

func (b *Bucket) State() State { return b.state }

// BucketStore loads Bucket records, optionally consulting a local
// read-through cache before the ordered-set store — bucket metadata is
// read on every part upload but changes rarely.
type BucketStore struct {
	shim  *kvs.Shim
	cache index.Indexer[string, Bucket]
}

// NewBucketStore builds a store with no cache; every Load hits the
// ordered-set store.
func NewBucketStore(shim *kvs.Shim) *BucketStore {
	return &BucketStore{shim: shim}
}

// NewBucketStoreWithCache builds a store backed by cache as a read-through
// layer in front of the ordered-set store, invalidated on every Save.
func NewBucketStoreWithCache(shim *kvs.Shim, cache index.Indexer[string, Bucket]) *BucketStore {
	return &BucketStore{shim: shim, cache: cache}
}

// Load fetches bucket metadata by name. onSuccess receives the Bucket in
// state present or missing; onFailure receives a transport/decode error.
func (s *BucketStore) Load(ctx context.Context, name string, onSuccess func(*Bucket), onFailure func(error)) {
	if s.cache != nil {
		if cached, err := s.cache.Get(name); err == nil {
			onSuccess(&cached)
			return
		}
	}

	read1(ctx, s.shim, bucketIndex, []byte(name), func(value []byte, found bool, err error) {
		if err != nil {
			onFailure(err)
			return
		}
		if !found {
			onSuccess(&Bucket{Name: name, state: StateMissing})
			return
		}
		var b Bucket
		if err := decode(value, &b); err != nil {
			onFailure(err)
			return
		}
		b.Name = name
		b.state = StatePresent
		if s.cache != nil {
			_ = s.cache.Put(name, b)
		}
		onSuccess(&b)
	})
}

// Save persists bucket metadata and invalidates any cached entry for it.
func (s *BucketStore) Save(ctx context.Context, b *Bucket, onSuccess func(), onFailure func(error)) {
	value, err := encode(*b)
	if err != nil {
		onFailure(err)
		return
	}
	if s.cache != nil {
		_ = s.cache.Delete(b.Name)
	}
	write1(ctx, s.shim, bucketIndex, []byte(b.Name), value, func(err error) {
		if err != nil {
			b.state = StateFailed
			onFailure(err)
			return
		}
		b.state = StateSaved
		onSuccess()
	})
}
