// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package kvs

import (
	"context"

	"github.com/LeeDigitalWorks/zapfs/pkg/logger"
	"github.com/LeeDigitalWorks/zapfs/pkg/orderedset"
)

// ResultCode is a per-slot or batch-level outcome, distinct from the wire
// error taxonomy in orderedset — a not-found is not an error here.
type ResultCode int

const (
	CodeOK ResultCode = iota
	CodeNotFound
	CodeError
	CodeTimeout
	CodeProtocolViolation
)

// Shim implements the four KVS operations over an ordered-set Client.
type Shim struct {
	client orderedset.Client
}

func New(client orderedset.Client) *Shim {
	return &Shim{client: client}
}

// ReadResult is one key's outcome from Read.
type ReadResult struct {
	Code  ResultCode
	Value []byte
}

// Read performs a point lookup for each of keys, invoking cb exactly once
// with a per-key result slice and a batch-level code (not-found unless at
// least one key succeeded).
func (s *Shim) Read(ctx context.Context, index Index, keys [][]byte, cb func(results []ReadResult, batchCode ResultCode)) {
	n := len(keys)
	if n == 0 {
		cb(nil, CodeNotFound)
		return
	}

	results := make([]ReadResult, n)
	anySuccess := make([]bool, n)

	fo := newFanout(n, func(hadError bool) {
		batchCode := CodeOK
		success := false
		for _, ok := range anySuccess {
			if ok {
				success = true
				break
			}
		}
		if hadError {
			batchCode = CodeTimeout
		} else if !success {
			batchCode = CodeNotFound
		}
		cb(results, batchCode)
	})

	ik := index.storeKey()
	for i, key := range keys {
		i := i
		lo, hi := borderExact(key)
		s.client.ZRangeByLex(ctx, ik, lo, hi, 1, func(reply orderedset.Reply, err error) {
			switch {
			case err != nil:
				results[i] = ReadResult{Code: CodeTimeout}
				fo.reply(true)
			case reply.Type == orderedset.ReplyNil:
				results[i] = ReadResult{Code: CodeNotFound}
				fo.reply(false)
			case reply.Type == orderedset.ReplyArray:
				switch len(reply.Array) {
				case 0:
					results[i] = ReadResult{Code: CodeNotFound}
					fo.reply(false)
				case 1:
					_, val, ok := SplitMember([]byte(reply.Array[0]))
					if !ok {
						results[i] = ReadResult{Code: CodeError}
						fo.reply(true)
						return
					}
					results[i] = ReadResult{Code: CodeOK, Value: val}
					anySuccess[i] = true
					fo.reply(false)
				default:
					logger.Ctx(ctx).Warn().Str("index", ik).Msg("kv-read: point-read array reply with more than one element")
					results[i] = ReadResult{Code: CodeProtocolViolation}
					fo.reply(true)
				}
			case reply.Type == orderedset.ReplyString:
				_, val, ok := SplitMember([]byte(reply.Str))
				if !ok {
					results[i] = ReadResult{Code: CodeError}
					fo.reply(true)
					return
				}
				results[i] = ReadResult{Code: CodeOK, Value: val}
				anySuccess[i] = true
				fo.reply(false)
			default:
				results[i] = ReadResult{Code: CodeError}
				fo.reply(true)
			}
		})
	}
}

// NextResult is one (key, value) pair returned by Next.
type NextResult struct {
	Key   []byte
	Value []byte
}

// Next performs an ordered range scan starting strictly after start (or
// from the beginning if start is empty), returning up to n pairs.
func (s *Shim) Next(ctx context.Context, index Index, start []byte, n int, cb func(results []NextResult, code ResultCode)) {
	var lo, hi []byte
	limit := int64(n)
	skip := start
	if len(start) == 0 {
		lo, hi = borderAll()
	} else {
		lo, hi = borderAfter(start)
		limit = int64(n) + 1
	}

	s.client.ZRangeByLex(ctx, index.storeKey(), lo, hi, limit, func(reply orderedset.Reply, err error) {
		var (
			results []NextResult
			code    = CodeOK
		)

		switch {
		case err != nil:
			code = CodeTimeout
		case reply.Type == orderedset.ReplyNil:
			code = CodeNotFound
		case reply.Type != orderedset.ReplyArray:
			code = CodeError
		default:
			members := reply.Array
			if len(skip) > 0 && len(members) > 0 {
				if k, _, ok := SplitMember([]byte(members[0])); ok && string(k) == string(skip) {
					members = members[1:]
				}
			}
			if len(members) > n {
				members = members[:n]
			}
			for _, m := range members {
				k, v, ok := SplitMember([]byte(m))
				if !ok {
					continue
				}
				results = append(results, NextResult{Key: k, Value: v})
			}
			if len(results) == 0 {
				code = CodeNotFound
			}
		}

		cb(results, code)
	})
}

// WriteResult is one key's outcome from Write.
type WriteResult struct {
	Code ResultCode
}

// Write stores each (key, value) pair, first deleting any prior member
// for that key to enforce at-most-one-value-per-key.
func (s *Shim) Write(ctx context.Context, index Index, pairs []KV, cb func(results []WriteResult, batchCode ResultCode)) {
	n := len(pairs)
	if n == 0 {
		cb(nil, CodeOK)
		return
	}

	results := make([]WriteResult, n)
	ik := index.storeKey()

	fo := newFanout(n, func(hadError bool) {
		batchCode := CodeOK
		if hadError {
			batchCode = CodeTimeout
		}
		cb(results, batchCode)
	})

	for i, kv := range pairs {
		i, kv := i, kv
		lo, hi := borderExact(kv.Key)

		// Delete any prior member for this key; no privdata, not counted in
		// the fanout. The add is issued only after the delete's reply arrives.
		deleted := make(chan struct{})
		s.client.ZRemRangeByLex(ctx, ik, lo, hi, func(reply orderedset.Reply, err error) {
			if err != nil {
				logger.Ctx(ctx).Warn().Err(err).Str("index", ik).Msg("kv-write: prior-member delete failed")
			}
			close(deleted)
		})

		member := EncodeMember(kv.Key, kv.Value)
		onAdd := func(reply orderedset.Reply, err error) {
			var (
				code     ResultCode
				hadError bool
			)
			switch {
			case err != nil:
				code, hadError = CodeTimeout, true
			case reply.Type == orderedset.ReplyStatus:
				code = CodeOK
			case reply.Type == orderedset.ReplyInteger:
				if reply.Int > 0 {
					code = CodeOK
				} else {
					code = CodeNotFound
				}
			case reply.Type == orderedset.ReplyNil:
				code = CodeNotFound
			default:
				code, hadError = CodeError, true
			}
			results[i] = WriteResult{Code: code}
			fo.reply(hadError)
		}
		go func() {
			<-deleted
			s.client.ZAdd(ctx, ik, member, onAdd)
		}()
	}
}

// DeleteResult is one key's outcome from Delete.
type DeleteResult struct {
	Code ResultCode
}

// Delete removes every member for each of keys.
func (s *Shim) Delete(ctx context.Context, index Index, keys [][]byte, cb func(results []DeleteResult, batchCode ResultCode)) {
	n := len(keys)
	if n == 0 {
		cb(nil, CodeOK)
		return
	}

	results := make([]DeleteResult, n)
	ik := index.storeKey()

	fo := newFanout(n, func(hadError bool) {
		batchCode := CodeOK
		if hadError {
			batchCode = CodeTimeout
		}
		cb(results, batchCode)
	})

	for i, key := range keys {
		i := i
		lo, hi := borderExact(key)
		s.client.ZRemRangeByLex(ctx, ik, lo, hi, func(reply orderedset.Reply, err error) {
			var (
				code     ResultCode
				hadError bool
			)
			switch {
			case err != nil:
				code, hadError = CodeTimeout, true
			case reply.Type == orderedset.ReplyInteger:
				if reply.Int > 0 {
					code = CodeOK
				} else {
					code = CodeNotFound
				}
			case reply.Type == orderedset.ReplyNil:
				code = CodeNotFound
			default:
				code, hadError = CodeError, true
			}
			results[i] = DeleteResult{Code: code}
			fo.reply(hadError)
		})
	}
}
