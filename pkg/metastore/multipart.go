// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"context"
	"fmt"

	"github.com/LeeDigitalWorks/zapfs/pkg/kvs"
)

// MultipartUpload is (upload-id, object name, bucket). Loaded read-only by
// the pipeline; state missing means the client referenced a non-existent
// or aborted upload.
type MultipartUpload struct {
	UploadID string
	Object   string
	Bucket   string

	state State
}

func (u *MultipartUpload) State() State { return u.state }

type MultipartStore struct {
	shim *kvs.Shim
}

func NewMultipartStore(shim *kvs.Shim) *MultipartStore {
	return &MultipartStore{shim: shim}
}

func (s *MultipartStore) Load(ctx context.Context, uploadID string, onSuccess func(*MultipartUpload), onFailure func(error)) {
	read1(ctx, s.shim, multipartIndex, []byte(uploadID), func(value []byte, found bool, err error) {
		if err != nil {
			onFailure(err)
			return
		}
		if !found {
			onSuccess(&MultipartUpload{UploadID: uploadID, state: StateMissing})
			return
		}
		var u MultipartUpload
		if err := decode(value, &u); err != nil {
			onFailure(err)
			return
		}
		u.UploadID = uploadID
		u.state = StatePresent
		onSuccess(&u)
	})
}

func (s *MultipartStore) Save(ctx context.Context, u *MultipartUpload, onSuccess func(), onFailure func(error)) {
	if u.UploadID == "" {
		onFailure(fmt.Errorf("metastore: multipart upload missing upload id"))
		return
	}
	value, err := encode(*u)
	if err != nil {
		onFailure(err)
		return
	}
	write1(ctx, s.shim, multipartIndex, []byte(u.UploadID), value, func(err error) {
		if err != nil {
			u.state = StateFailed
			onFailure(err)
			return
		}
		u.state = StateSaved
		onSuccess()
	})
}
