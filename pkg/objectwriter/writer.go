// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package objectwriter presents a streaming write interface over a
// types.BackendStorage, buffering the pipeline's incoming payloads into
// positional writes and tracking a running content-MD5.
package objectwriter

import (
	"context"
	"hash"
	"sync"

	"github.com/LeeDigitalWorks/zapfs/pkg/types"
	"github.com/LeeDigitalWorks/zapfs/pkg/utils"
)

type State int

const (
	StateIdle State = iota
	StateWriting
	StateSaved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWriting:
		return "writing"
	case StateSaved:
		return "saved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Adapter is constructed with a backend, object key, and starting offset.
// WriteContent issues one payload-bounded write at the current offset,
// advancing it by the bytes accepted, and invokes exactly one callback.
type Adapter struct {
	mu      sync.Mutex
	backend types.BackendStorage
	key     string
	offset  int64
	md5     hash.Hash
	state   State
}

// New constructs a writer adapter at the given offset. The offset is
// nonzero for parts other than part 1, where the pipeline has already
// computed it from the first part's length.
func New(backend types.BackendStorage, key string, offset int64) *Adapter {
	return &Adapter{
		backend: backend,
		key:     key,
		offset:  offset,
		md5:     utils.Md5PoolGetHasher(),
		state:   StateIdle,
	}
}

// WriteContent writes buffer at the adapter's current offset. Exactly one
// of onSuccess or onFailure is invoked, never both, never neither.
func (a *Adapter) WriteContent(ctx context.Context, buffer []byte, onSuccess func(), onFailure func(error)) {
	a.mu.Lock()
	a.state = StateWriting
	offset := a.offset
	a.mu.Unlock()

	go func() {
		err := a.backend.WriteAt(ctx, a.key, offset, buffer)

		a.mu.Lock()
		if err != nil {
			a.state = StateFailed
			a.mu.Unlock()
			onFailure(err)
			return
		}
		a.md5.Write(buffer)
		a.offset = offset + int64(len(buffer))
		a.mu.Unlock()
		onSuccess()
	}()
}

// Finalize commits the written bytes as a complete object.
func (a *Adapter) Finalize(ctx context.Context) error {
	if err := a.backend.Finalize(ctx, a.key); err != nil {
		a.mu.Lock()
		a.state = StateFailed
		a.mu.Unlock()
		return err
	}
	a.mu.Lock()
	a.state = StateSaved
	a.mu.Unlock()
	return nil
}

// Abort discards whatever bytes were written, per the rollback-on-partial-
// failure decision: a failed or otherwise unresolved writer's bytes are not
// left dangling.
func (a *Adapter) Abort(ctx context.Context) error {
	return a.backend.Abort(ctx, a.key)
}

// GetContentMD5 returns the running MD5 over all bytes accepted so far.
func (a *Adapter) GetContentMD5() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.md5.Sum(nil)
}

func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Release returns pooled resources. Call once the adapter is no longer
// needed, after Finalize or Abort.
func (a *Adapter) Release() {
	utils.Md5PoolPutHasher(a.md5)
}
