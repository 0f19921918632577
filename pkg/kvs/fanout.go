// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package kvs

import "sync"

// fanout tracks one batched asynchronous op: async_ops_cnt commands issued,
// replies_cnt received so far, and whether any reply errored. onFinal
// runs exactly once, the instant replies_cnt reaches async_ops_cnt.
//
// The C original chains a "previous context" pointer here for restoration
// at finalize. In Go the equivalent is simply lexical: the caller that
// constructs a fanout already owns the closure it wants control returned
// to, and onFinal is that closure — there is nothing to restore.
type fanout struct {
	mu       sync.Mutex
	total    int
	replies  int
	hadError bool
	onFinal  func(hadError bool)
}

func newFanout(total int, onFinal func(hadError bool)) *fanout {
	return &fanout{total: total, onFinal: onFinal}
}

// reply records one command's completion. If this is the last outstanding
// reply, onFinal fires synchronously on the calling goroutine.
func (f *fanout) reply(errored bool) {
	f.mu.Lock()
	f.replies++
	if errored {
		f.hadError = true
	}
	done := f.replies == f.total
	hadError := f.hadError
	f.mu.Unlock()

	if done && f.onFinal != nil {
		f.onFinal(hadError)
	}
}
