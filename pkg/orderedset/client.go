// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package orderedset defines the minimal async command interface the KVS
// shim drives, and a github.com/redis/go-redis/v9 binding of it.
package orderedset

import "context"

type ReplyType int

const (
	ReplyNil ReplyType = iota
	ReplyString
	ReplyStatus
	ReplyInteger
	ReplyArray
	ReplyError
)

// Reply is the discriminated reply model the shim expects back from
// Client. Array carries an ordered sequence of member strings, as
// returned by ZRANGEBYLEX.
type Reply struct {
	Type  ReplyType
	Str   string
	Int   int64
	Array []string
}

// Callback receives exactly one reply per issued command. If the
// receiving context has been torn down, implementations must return
// without touching caller state — Client implementations never call back
// on a torn-down callback, but callbacks themselves must tolerate a nil
// receiver on their captured privdata.
type Callback func(reply Reply, err error)

// Client issues the three ordered-set command shapes the core requires.
// Implementations dispatch asynchronously and invoke cb exactly once.
type Client interface {
	ZRangeByLex(ctx context.Context, index string, lo, hi []byte, limit int64, cb Callback)
	ZAdd(ctx context.Context, index string, member []byte, cb Callback)
	ZRemRangeByLex(ctx context.Context, index string, lo, hi []byte, cb Callback)
}
