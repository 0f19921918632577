// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/LeeDigitalWorks/zapfs/pkg/chunkauth"
	"github.com/LeeDigitalWorks/zapfs/pkg/debug"
	"github.com/LeeDigitalWorks/zapfs/pkg/logger"
	"github.com/LeeDigitalWorks/zapfs/pkg/multipart"
	"github.com/LeeDigitalWorks/zapfs/pkg/s3api/s3action"
	"github.com/LeeDigitalWorks/zapfs/pkg/s3api/s3consts"
	"github.com/LeeDigitalWorks/zapfs/pkg/s3api/s3err"
	"github.com/LeeDigitalWorks/zapfs/pkg/s3api/signature"
	"github.com/LeeDigitalWorks/zapfs/pkg/types"
)

// actionRequests counts dispatched requests by S3 action name and the
// action's operation/resource classification, so a policy or rate-limit
// layer added later has real per-action data to key off of.
var actionRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "zapfs_gateway_action_requests_total",
	Help: "Number of gateway requests dispatched per S3 action.",
}, []string{"action", "operation_type", "resource_type"})

func init() {
	debug.Registry().MustRegister(actionRequests)
}

// gatewayHandler dispatches PUT /{bucket}/{object}?uploadId=&partNumber=
// requests into a fresh multipart.PartUploader pipeline instance.
type gatewayHandler struct {
	stores         *multipart.Stores
	backend        types.BackendStorage
	verifier       *signature.V4Verifier
	flushThreshold int
}

func (g *gatewayHandler) handlePutPart(w http.ResponseWriter, r *http.Request) {
	bucket := r.PathValue("bucket")
	object := r.PathValue("object")
	resource := "/" + bucket + "/" + object

	uploadID := r.URL.Query().Get("uploadId")
	partNumberStr := r.URL.Query().Get("partNumber")
	if uploadID == "" || partNumberStr == "" {
		s3err.WriteError(w, s3err.ErrInvalidRequest, resource)
		return
	}
	partNumber, err := strconv.Atoi(partNumberStr)
	if err != nil || partNumber < 1 || partNumber > s3consts.MaxPartID {
		s3err.WriteError(w, s3err.ErrInvalidPart, resource)
		return
	}

	authType := signature.GetAuthType(r)
	chunked := signature.IsChunkedPayload(r)
	trailerStream := authType == signature.AuthTypeStreamingSignedTrailer

	var coordinator *chunkauth.Coordinator
	if chunked {
		streamAuth, code := g.verifier.VerifyStreamingRequest(r)
		if code != s3err.ErrNone {
			s3err.WriteError(w, code, resource)
			return
		}
		coordinator = chunkauth.New(chunkauth.Config{
			SigningKey:    streamAuth.SigningKey,
			SeedSignature: streamAuth.SeedSignature,
			Timestamp:     streamAuth.Timestamp,
			Region:        streamAuth.Region,
			Service:       streamAuth.Service,
		})
	} else {
		if _, code := g.verifier.VerifyRequest(r); code != s3err.ErrNone {
			s3err.WriteError(w, code, resource)
			return
		}
	}

	contentLength := r.ContentLength
	if decoded := r.Header.Get(s3consts.XAmzDecodedLength); decoded != "" {
		if n, err := strconv.ParseInt(decoded, 10, 64); err == nil {
			contentLength = n
		}
	}

	action := s3action.UploadPart
	actionRequests.WithLabelValues(action.String(), action.OperationType().String(), action.ResourceType().String()).Inc()

	body := multipart.NewBody(r.Body, chunked)
	req := multipart.NewRequest(w, bucket, object, uploadID, partNumber, chunked, trailerStream, r.Header, contentLength, body)

	logger.Ctx(r.Context()).Debug().
		Str("bucket", bucket).Str("object", object).Str("upload_id", uploadID).
		Int("part_number", partNumber).Bool("chunked", chunked).
		Msg("dispatching part upload")

	// Run dispatches the pipeline's first task and returns as soon as it
	// hits its first asynchronous boundary. done is closed once the
	// terminal task writes the response and the pipeline self-destructs,
	// so the handler can hold the connection open until then instead of
	// returning to net/http (and losing the ResponseWriter) early.
	done := make(chan struct{})
	multipart.New(req, multipart.Config{
		Stores:         g.stores,
		Backend:        g.backend,
		FlushThreshold: g.flushThreshold,
		ChunkAuth:      coordinator,
		OnDone:         func() { close(done) },
	}).Run()
	<-done
}
