// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package kvs emulates a secondary-index key-value store on top of an
// ordered-set store (github.com/redis/go-redis/v9 sorted sets), providing
// point lookup, range scan, write and delete over lexicographically
// ordered, per-index keyspaces.
package kvs

import (
	"bytes"
	"encoding/hex"
)

// Index is a 128-bit identifier for one logical secondary index, realized
// as one ordered-set key in the backing store.
type Index [16]byte

func (i Index) storeKey() string {
	return hex.EncodeToString(i[:])
}

// KV is one logical key/value pair as seen by callers of Write.
//
// Precondition: Key must not contain a 0x00 byte and must be valid UTF-8 —
// the sentinel 0xFF border below is only safe as an inclusive upper bound
// when keys are constrained to UTF-8. The metadata layer above the shim is
// responsible for enforcing this; the shim assumes it.
type KV struct {
	Key   []byte
	Value []byte
}

// EncodeMember builds the single ordered-set member bytes for one logical
// (key, value) pair: key || 0x00 || value.
func EncodeMember(key, value []byte) []byte {
	m := make([]byte, 0, len(key)+1+len(value))
	m = append(m, key...)
	m = append(m, 0x00)
	m = append(m, value...)
	return m
}

// SplitMember splits a member at its first 0x00 byte, recovering the
// (key, value) pair EncodeMember produced. ok is false if no separator is
// present, which indicates a corrupt or foreign member.
func SplitMember(member []byte) (key, value []byte, ok bool) {
	idx := bytes.IndexByte(member, 0x00)
	if idx < 0 {
		return nil, nil, false
	}
	return member[:idx], member[idx+1:], true
}

// borderExact builds the lex-range [lo, hi) that matches exactly the
// members sharing the given key: "[key" .. "(key" + 0xFF.
func borderExact(key []byte) (lo, hi []byte) {
	lo = make([]byte, 0, len(key)+1)
	lo = append(lo, '[')
	lo = append(lo, key...)

	hi = make([]byte, 0, len(key)+2)
	hi = append(hi, '(')
	hi = append(hi, key...)
	hi = append(hi, 0xFF)
	return lo, hi
}

// borderAfter builds the lex-range (lo, +inf] matching every member whose
// key sorts strictly after the given key.
func borderAfter(key []byte) (lo, hi []byte) {
	lo = make([]byte, 0, len(key)+1)
	lo = append(lo, '(')
	lo = append(lo, key...)
	return lo, []byte("+")
}

// borderAll builds the lex-range covering every member in the index.
func borderAll() (lo, hi []byte) {
	return []byte("-"), []byte("+")
}
