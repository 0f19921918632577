// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"fmt"

	"context"

	"github.com/LeeDigitalWorks/zapfs/pkg/kvs"
)

// Part is a Part Descriptor: (upload-id, part-number, content-length,
// content-md5, user-defined attributes). Invariant: ContentMD5 is the MD5
// of the concatenated, post-dechunk payload bytes. Created after write
// completion; persisted via Save.
type Part struct {
	UploadID      string
	PartNumber    int
	ContentLength int64
	ContentMD5    string
	UserMeta      map[string]string

	state State
}

func (p *Part) State() State { return p.state }

func partKey(uploadID string, partNumber int) []byte {
	return []byte(fmt.Sprintf("%s:%010d", uploadID, partNumber))
}

type PartStore struct {
	shim *kvs.Shim
}

func NewPartStore(shim *kvs.Shim) *PartStore {
	return &PartStore{shim: shim}
}

// Load fetches one part's descriptor, e.g. part 1's for offset computation.
func (s *PartStore) Load(ctx context.Context, uploadID string, partNumber int, onSuccess func(*Part), onFailure func(error)) {
	read1(ctx, s.shim, partIndex, partKey(uploadID, partNumber), func(value []byte, found bool, err error) {
		if err != nil {
			onFailure(err)
			return
		}
		if !found {
			onSuccess(&Part{UploadID: uploadID, PartNumber: partNumber, state: StateMissing})
			return
		}
		var p Part
		if err := decode(value, &p); err != nil {
			onFailure(err)
			return
		}
		p.UploadID = uploadID
		p.PartNumber = partNumber
		p.state = StatePresent
		onSuccess(&p)
	})
}

// Save persists a part descriptor after a successful write.
func (s *PartStore) Save(ctx context.Context, p *Part, onSuccess func(), onFailure func(error)) {
	value, err := encode(*p)
	if err != nil {
		onFailure(err)
		return
	}
	write1(ctx, s.shim, partIndex, partKey(p.UploadID, p.PartNumber), value, func(err error) {
		if err != nil {
			p.state = StateFailed
			onFailure(err)
			return
		}
		p.state = StateSaved
		onSuccess()
	})
}
