// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package metastore implements the Bucket, MultipartUpload and Part
// metadata collaborators the action pipeline loads and saves against.
// Records round-trip through pkg/kvs, gob-encoded, one collaborator per
// kvs.Index.
package metastore

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/LeeDigitalWorks/zapfs/pkg/kvs"
)

// State mirrors the collaborator lifecycle named in the spec: a record is
// empty until Load is called, transitions through loading, and lands on
// present or missing; Save moves a present record to saved or failed.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StatePresent
	StateSaved
	StateMissing
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StatePresent:
		return "present"
	case StateSaved:
		return "saved"
	case StateMissing:
		return "missing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("metastore: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("metastore: decode: %w", err)
	}
	return nil
}

// bucketIndex, multipartIndex and partIndex give each collaborator its own
// ordered-set keyspace so that, e.g., a bucket name and an upload id never
// collide even if their byte representations coincide.
var (
	bucketIndex    = kvs.Index{0x10}
	multipartIndex = kvs.Index{0x11}
	partIndex      = kvs.Index{0x12}
)

func read1(ctx context.Context, shim *kvs.Shim, index kvs.Index, key []byte, cb func(value []byte, found bool, err error)) {
	shim.Read(ctx, index, [][]byte{key}, func(results []kvs.ReadResult, batchCode kvs.ResultCode) {
		if len(results) == 0 {
			cb(nil, false, nil)
			return
		}
		switch results[0].Code {
		case kvs.CodeOK:
			cb(results[0].Value, true, nil)
		case kvs.CodeNotFound:
			cb(nil, false, nil)
		default:
			cb(nil, false, fmt.Errorf("metastore: read failed with code %d", results[0].Code))
		}
	})
}

func write1(ctx context.Context, shim *kvs.Shim, index kvs.Index, key, value []byte, cb func(err error)) {
	shim.Write(ctx, index, []kvs.KV{{Key: key, Value: value}}, func(results []kvs.WriteResult, batchCode kvs.ResultCode) {
		if batchCode != kvs.CodeOK || len(results) == 0 || results[0].Code != kvs.CodeOK {
			cb(fmt.Errorf("metastore: write failed with batch code %d", batchCode))
			return
		}
		cb(nil)
	})
}
