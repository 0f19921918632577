// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/LeeDigitalWorks/zapfs/pkg/chunkauth"
	"github.com/LeeDigitalWorks/zapfs/pkg/logger"
	"github.com/LeeDigitalWorks/zapfs/pkg/metastore"
	"github.com/LeeDigitalWorks/zapfs/pkg/objectwriter"
	"github.com/LeeDigitalWorks/zapfs/pkg/pipeline"
	"github.com/LeeDigitalWorks/zapfs/pkg/s3api/s3err"
	"github.com/LeeDigitalWorks/zapfs/pkg/types"
	"github.com/google/uuid"
)

// Stores bundles the three metadata collaborators the uploader loads and
// saves against.
type Stores struct {
	Buckets   *metastore.BucketStore
	Multipart *metastore.MultipartStore
	Parts     *metastore.PartStore
}

// Config carries the collaborators one PartUploader is wired against.
type Config struct {
	Stores         *Stores
	Backend        types.BackendStorage
	FlushThreshold int // clovis-write-payload-size
	ChunkAuth      *chunkauth.Coordinator

	// OnDone, if set, fires after the response has been written and the
	// pipeline has self-destructed. The HTTP layer dispatches Run and
	// returns asynchronously, so it needs this to know when it is safe
	// to let the request's ResponseWriter go out of scope.
	OnDone func()
}

// PartUploader is one pipeline instance handling a single
// PUT /{bucket}/{object}?uploadId=...&partNumber=... request.
type PartUploader struct {
	req    *Request
	stores *Stores
	backend types.BackendStorage
	flushThreshold int
	coordinator *chunkauth.Coordinator

	p *pipeline.Pipeline

	bucket        *metastore.Bucket
	multipartMeta *metastore.MultipartUpload
	firstPart     *metastore.Part
	partMeta      *metastore.Part
	writer        *objectwriter.Adapter

	declaredLength int64

	mu              sync.Mutex
	writeInProgress bool
	writeCompleted  bool
	authInProgress  bool
	authCompleted   bool
	authFailed      bool
	writeFailed     bool

	finalize sync.Once
	onDone   func()
}

// New builds the task sequence for one part upload, conditional on
// req.Chunked and req.PartNumber, per the Multipart Part Uploader.
func New(req *Request, cfg Config) *PartUploader {
	u := &PartUploader{
		req:            req,
		stores:         cfg.Stores,
		backend:        cfg.Backend,
		flushThreshold: cfg.FlushThreshold,
		coordinator:    cfg.ChunkAuth,
		onDone:         cfg.OnDone,
		p:              pipeline.New(),
	}

	if req.Chunked {
		u.p.AddTask(u.startChunkAuthentication)
	}
	u.p.AddTask(u.fetchBucketInfo)
	u.p.AddTask(u.fetchMultipartMetadata)
	if req.PartNumber != 1 {
		u.p.AddTask(u.fetchFirstPartInfo)
	}
	u.p.AddTask(u.computePartOffset)
	u.p.AddTask(u.initiateDataStreaming)
	u.p.AddTask(u.saveMetadata)
	u.p.AddTask(u.sendResponseToClient)

	return u
}

// Run starts the pipeline.
func (u *PartUploader) Run() {
	u.p.Run()
}

func (u *PartUploader) ctx() context.Context {
	return context.Background()
}

// 1. start-chunk-authentication
func (u *PartUploader) startChunkAuthentication(ctx *pipeline.TaskCtx) {
	u.coordinator.InitCycle(
		func() { u.onAuthSuccess(ctx) },
		func(err error) { u.onAuthFailure(ctx, err) },
	)
	ctx.Next()
}

// 2. fetch-bucket-info
func (u *PartUploader) fetchBucketInfo(ctx *pipeline.TaskCtx) {
	if !u.req.Body.IsFrozen() {
		u.req.Body.Pause()
	}
	u.stores.Buckets.Load(u.ctx(), u.req.Bucket, func(b *metastore.Bucket) {
		u.bucket = b
		if b.State() == metastore.StateMissing {
			u.req.Body.Resume()
			ctx.Terminate(func() { u.respond(ctx) })
			return
		}
		ctx.Next()
	}, func(err error) {
		logger.Ctx(u.ctx()).Error().Err(err).Msg("fetch-bucket-info failed")
		u.req.Body.Resume()
		ctx.Terminate(func() { u.respond(ctx) })
	})
}

// 3. fetch-multipart-metadata
func (u *PartUploader) fetchMultipartMetadata(ctx *pipeline.TaskCtx) {
	u.stores.Multipart.Load(u.ctx(), u.req.UploadID, func(m *metastore.MultipartUpload) {
		u.multipartMeta = m
		if m.State() == metastore.StateMissing {
			ctx.Terminate(func() { u.respond(ctx) })
			return
		}
		ctx.Next()
	}, func(err error) {
		logger.Ctx(u.ctx()).Error().Err(err).Msg("fetch-multipart-metadata failed")
		ctx.Terminate(func() { u.respond(ctx) })
	})
}

// 4. fetch-firstpart-info (only if part_number != 1)
func (u *PartUploader) fetchFirstPartInfo(ctx *pipeline.TaskCtx) {
	u.req.Body.Pause()
	u.stores.Parts.Load(u.ctx(), u.req.UploadID, 1, func(p *metastore.Part) {
		u.firstPart = p
		if p.State() == metastore.StateMissing {
			ctx.Terminate(func() { u.respond(ctx) })
			return
		}
		ctx.Next()
	}, func(err error) {
		logger.Ctx(u.ctx()).Error().Err(err).Msg("fetch-firstpart-info failed")
		ctx.Terminate(func() { u.respond(ctx) })
	})
}

// 5. compute-part-offset
func (u *PartUploader) computePartOffset(ctx *pipeline.TaskCtx) {
	var offset int64
	if u.req.PartNumber != 1 {
		offset = int64(u.req.PartNumber-1) * u.firstPart.ContentLength
	}
	key := objectKey(u.req.Bucket, u.req.Object, u.req.UploadID, u.req.PartNumber)
	u.writer = objectwriter.New(u.backend, key, offset)
	ctx.Next()
}

func objectKey(bucket, object, uploadID string, partNumber int) string {
	return fmt.Sprintf("%s/%s/%s/part-%d", bucket, object, uploadID, partNumber)
}

// 6. initiate-data-streaming
func (u *PartUploader) initiateDataStreaming(ctx *pipeline.TaskCtx) {
	u.declaredLength = u.req.ContentLength
	u.req.Body.Resume()

	if u.declaredLength == 0 {
		ctx.Next()
		return
	}

	if u.req.Body.IsFrozen() {
		u.writeObject(ctx)
		return
	}

	u.req.Body.SetDataAvailableListener(u.flushThreshold, func() {
		u.writeObject(ctx)
	})
}

// writeObject drains whatever the body has ready and issues one bounded
// write, forwarding chunk details to the auth coordinator along the way.
func (u *PartUploader) writeObject(ctx *pipeline.TaskCtx) {
	var buffer []byte

	if u.req.Chunked {
		details := u.req.Body.DrainChunkDetails()
		for _, d := range details {
			u.mu.Lock()
			u.authInProgress = true
			u.mu.Unlock()
			if d.Size() > 0 {
				u.coordinator.AddChecksumForChunk(d.Signature, d.Payload)
				buffer = append(buffer, d.Payload...)
			} else {
				u.coordinator.AddLastChecksumForChunk(d.Signature)
			}
		}
	} else {
		buffer = u.req.Body.DrainReady()
	}

	u.mu.Lock()
	u.writeInProgress = true
	u.mu.Unlock()

	if len(buffer) == 0 && !u.req.Body.IsFrozen() {
		u.mu.Lock()
		u.writeInProgress = false
		u.mu.Unlock()
		return
	}

	frozen := u.req.Body.IsFrozen()
	if frozen {
		u.writer.WriteContent(u.ctx(), buffer,
			func() { u.onWriteSuccess(ctx) },
			func(err error) { u.onWriteFailure(ctx, err) },
		)
		return
	}

	u.req.Body.Pause()
	u.writer.WriteContent(u.ctx(), buffer,
		func() {
			u.req.Body.Resume()
			u.mu.Lock()
			u.writeInProgress = false
			u.mu.Unlock()
		},
		func(err error) { u.onWriteFailure(ctx, err) },
	)
}

func (u *PartUploader) onWriteSuccess(ctx *pipeline.TaskCtx) {
	u.mu.Lock()
	u.writeInProgress = false
	u.writeCompleted = true
	moreBuffered := u.req.Body.IsFrozen() == false
	authFailed := u.authFailed
	chunked := u.req.Chunked
	authCompleted := u.authCompleted
	u.mu.Unlock()

	if chunked && authFailed {
		u.finalizeOnce(func() { ctx.Terminate(func() { u.respond(ctx) }) })
		return
	}
	if moreBuffered {
		u.writeObject(ctx)
		return
	}
	if !chunked || authCompleted {
		u.finalizeOnce(func() { u.finalizeWriteAndAdvance(ctx) })
	}
}

// finalizeWriteAndAdvance seals the part's backing object (out of scope:
// completing the multipart upload as a whole, which later concatenates
// finalized part objects) before advancing to save-metadata.
func (u *PartUploader) finalizeWriteAndAdvance(ctx *pipeline.TaskCtx) {
	if err := u.writer.Finalize(u.ctx()); err != nil {
		logger.Ctx(u.ctx()).Error().Err(err).Msg("finalize part object failed")
	}
	ctx.Next()
}

func (u *PartUploader) onWriteFailure(ctx *pipeline.TaskCtx, err error) {
	logger.Ctx(u.ctx()).Error().Err(err).Msg("write-object failed")
	u.mu.Lock()
	u.writeFailed = true
	u.writeInProgress = false
	chunked := u.req.Chunked
	authInProgress := u.authInProgress
	u.mu.Unlock()

	if chunked && authInProgress {
		return
	}
	u.finalizeOnce(func() { ctx.Terminate(func() { u.respond(ctx) }) })
}

func (u *PartUploader) onAuthSuccess(ctx *pipeline.TaskCtx) {
	u.mu.Lock()
	writeCompleted := u.writeCompleted
	u.authCompleted = true
	u.authInProgress = false
	u.mu.Unlock()

	if writeCompleted {
		u.finalizeOnce(func() { u.finalizeWriteAndAdvance(ctx) })
	}
}

func (u *PartUploader) onAuthFailure(ctx *pipeline.TaskCtx, err error) {
	logger.Ctx(u.ctx()).Warn().Err(err).Msg("chunk auth failed")
	u.mu.Lock()
	u.authFailed = true
	u.authInProgress = false
	writeInProgress := u.writeInProgress
	u.mu.Unlock()

	if writeInProgress {
		return
	}
	u.finalizeOnce(func() { ctx.Terminate(func() { u.respond(ctx) }) })
}

// finalizeOnce ensures the streaming phase's single Next/Terminate call
// happens exactly once, however many of write-object-successful,
// write-object-failed, onAuthSuccess and onAuthFailure race to complete it.
func (u *PartUploader) finalizeOnce(fn func()) {
	u.finalize.Do(fn)
}

// 7. save-metadata
func (u *PartUploader) saveMetadata(ctx *pipeline.TaskCtx) {
	part := &metastore.Part{
		UploadID:      u.req.UploadID,
		PartNumber:    u.req.PartNumber,
		ContentLength: u.declaredLength,
		ContentMD5:    hex.EncodeToString(u.writer.GetContentMD5()),
		UserMeta:      u.req.UserMetadata(),
	}
	u.partMeta = part

	done := func() { ctx.Next() }
	u.stores.Parts.Save(u.ctx(), part, done, func(err error) {
		logger.Ctx(u.ctx()).Warn().Err(err).Msg("save-metadata failed, deferring to terminal classifier")
		done()
	})
}

// 8. send-response-to-s3-client — dispatched as the pipeline's terminal
// task on the success path; early-failure paths call ctx.Terminate with
// the same respond function directly instead of reaching this task.
func (u *PartUploader) sendResponseToClient(ctx *pipeline.TaskCtx) {
	ctx.Terminate(func() { u.respond(ctx) })
}

// respond implements the Terminal Response Classifier (§4.4): a genuine
// if/else-if chain in strict priority order, each branch mutually
// exclusive with those after it.
func (u *PartUploader) respond(ctx *pipeline.TaskCtx) {
	var code s3err.ErrorCode
	var retryAfter string
	var etag string

	switch {
	case u.req.Chunked && u.authFailedFlag():
		code = s3err.ErrSignatureDoesNotMatch
	case u.bucket != nil && u.bucket.State() == metastore.StateMissing:
		code = s3err.ErrNoSuchBucket
	case u.multipartMeta != nil && u.multipartMeta.State() == metastore.StateMissing:
		code = s3err.ErrNoSuchUpload
	case u.req.PartNumber != 1 && u.firstPart != nil && u.firstPart.State() == metastore.StateMissing:
		// The only reachable "part metadata missing" state in this flow is
		// the part-1 lookup fetch-firstpart-info performs for offset math.
		code = s3err.ErrServiceUnavailable
		retryAfter = "1"
	case u.writer != nil && u.writer.State() == objectwriter.StateFailed:
		code = s3err.ErrInternalError
	case u.partMeta != nil && u.partMeta.State() == metastore.StateSaved:
		code = s3err.ErrNone
		etag = hex.EncodeToString(u.writer.GetContentMD5())
	default:
		code = s3err.ErrInternalError
	}

	resource := "/" + u.req.Bucket + "/" + u.req.Object
	writeResponse(u.req.w, code, resource, etag, retryAfter)

	// Best-effort abort of a part whose bytes never reached a saved state:
	// completion/abort of the multipart upload as a whole is out of scope,
	// but leaving a dangling partial write behind is a resource leak.
	if code != s3err.ErrNone && u.writer != nil && u.writer.State() != objectwriter.StateSaved {
		if err := u.writer.Abort(u.ctx()); err != nil {
			logger.Ctx(u.ctx()).Warn().Err(err).Msg("abort of failed part write failed")
		}
	}

	u.req.Body.Resume()
	u.p.IAmDone(func() {
		if u.writer != nil {
			u.writer.Release()
		}
		if u.onDone != nil {
			u.onDone()
		}
	})
}

func (u *PartUploader) authFailedFlag() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.authFailed
}

func writeResponse(w http.ResponseWriter, code s3err.ErrorCode, resource, etag, retryAfter string) {
	if code == s3err.ErrNone {
		w.Header().Set("ETag", "\""+etag+"\"")
		w.WriteHeader(http.StatusOK)
		return
	}

	apiErr := code.ToErrorResponse(resource)
	apiErr.RequestID = uuid.NewString()
	if retryAfter != "" {
		w.Header().Set("Retry-After", retryAfter)
	}
	w.Header().Set("Content-Type", "application/xml")
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	body.WriteString("<Error>")
	body.WriteString("<Code>" + apiErr.Code + "</Code>")
	body.WriteString("<Message>" + apiErr.Message + "</Message>")
	body.WriteString("<Resource>" + apiErr.Resource + "</Resource>")
	body.WriteString("<RequestId>" + apiErr.RequestID + "</RequestId>")
	body.WriteString("</Error>")
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	w.WriteHeader(apiErr.HTTPCode)
	_, _ = w.Write(body.Bytes())
}

// ParseTrailerLinesForSignature filters the raw "name:value" trailer lines
// down to the set actually covered by the trailer signature, excluding the
// signature header itself.
func ParseTrailerLinesForSignature(lines []string) []string {
	out := lines[:0:0]
	for _, l := range lines {
		if strings.HasPrefix(l, "x-amz-trailer-signature:") {
			continue
		}
		out = append(out, l)
	}
	return out
}
