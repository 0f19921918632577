// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package multipart implements the multipart PUT action pipeline: the
// concrete pipeline instance that validates a part upload, computes its
// offset, streams the body under backpressure, and persists part metadata.
package multipart

import (
	"net/http"
)

// Request is the pipeline's view of one part-upload HTTP request: an
// immutable header snapshot, the chunked-vs-unchunked flag, the parsed
// query parameters the pipeline needs, and the buffered Body. Created by
// the HTTP layer; destroyed by the pipeline after response dispatch.
type Request struct {
	Bucket     string
	Object     string
	UploadID   string
	PartNumber int

	Chunked       bool
	TrailerStream bool
	Headers       http.Header
	ContentLength int64

	Body *Body

	w http.ResponseWriter
}

// NewRequest builds the pipeline's view of one part-upload HTTP request.
// body must already be wrapped in a *Body by the caller, since dechunking
// depends on whether the wire body is AWS chunked-transfer framed.
func NewRequest(w http.ResponseWriter, bucket, object, uploadID string, partNumber int, chunked, trailerStream bool, headers http.Header, contentLength int64, body *Body) *Request {
	return &Request{
		Bucket:        bucket,
		Object:        object,
		UploadID:      uploadID,
		PartNumber:    partNumber,
		Chunked:       chunked,
		TrailerStream: trailerStream,
		Headers:       headers,
		ContentLength: contentLength,
		Body:          body,
		w:             w,
	}
}

// UserMetadata extracts headers whose name contains x-amz-meta- into a
// plain map, per the Part Descriptor's user-defined attributes.
func (r *Request) UserMetadata() map[string]string {
	meta := make(map[string]string)
	for name, values := range r.Headers {
		lower := httpHeaderCanonicalLower(name)
		if len(values) == 0 {
			continue
		}
		if containsMetaPrefix(lower) {
			meta[lower] = values[0]
		}
	}
	return meta
}

func httpHeaderCanonicalLower(name string) string {
	b := []byte(name)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}

func containsMetaPrefix(lowerName string) bool {
	const needle = "x-amz-meta-"
	if len(lowerName) < len(needle) {
		return false
	}
	for i := 0; i+len(needle) <= len(lowerName); i++ {
		if lowerName[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
