// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/LeeDigitalWorks/zapfs/pkg/chunkauth"
	"github.com/LeeDigitalWorks/zapfs/pkg/kvs"
	"github.com/LeeDigitalWorks/zapfs/pkg/metastore"
	"github.com/LeeDigitalWorks/zapfs/pkg/orderedset"
	"github.com/LeeDigitalWorks/zapfs/pkg/storage/backend"
	"github.com/LeeDigitalWorks/zapfs/pkg/types"
)

func newTestStores(t *testing.T) *Stores {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	shim := kvs.New(orderedset.NewRedisClient(rdb))
	return &Stores{
		Buckets:   metastore.NewBucketStore(shim),
		Multipart: metastore.NewMultipartStore(shim),
		Parts:     metastore.NewPartStore(shim),
	}
}

func newTestBackend(t *testing.T) types.BackendStorage {
	t.Helper()
	b := backend.NewMemoryStorage()
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func seedBucketAndUpload(t *testing.T, stores *Stores, bucket, uploadID, object string) {
	t.Helper()
	ctx := context.Background()
	await(t, func(done func()) {
		stores.Buckets.Save(ctx, &metastore.Bucket{Name: bucket, Region: "us-east-1"}, done, func(err error) { t.Fatal(err) })
	})
	await(t, func(done func()) {
		stores.Multipart.Save(ctx, &metastore.MultipartUpload{UploadID: uploadID, Object: object, Bucket: bucket}, done, func(err error) { t.Fatal(err) })
	})
}

func await(t *testing.T, fn func(done func())) {
	t.Helper()
	ch := make(chan struct{}, 1)
	fn(func() { ch <- struct{}{} })
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
}

func waitForResponse(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rec.Code != 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for response")
}

func newUnchunkedRequest(bucket, object, uploadID string, partNumber int, body []byte, headers http.Header) (*Request, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	if headers == nil {
		headers = http.Header{}
	}
	r := &Request{
		Bucket:        bucket,
		Object:        object,
		UploadID:      uploadID,
		PartNumber:    partNumber,
		Chunked:       false,
		Headers:       headers,
		ContentLength: int64(len(body)),
		w:             rec,
	}
	r.Body = NewBody(strings.NewReader(string(body)), false)
	return r, rec
}

// E1: unchunked PUT part-1, length 8 bytes "ABCDEFGH", fully buffered ->
// writer writes at offset 0; part metadata saved; response 200 with the
// MD5 of "ABCDEFGH" as ETag.
func TestE1_UnchunkedPartOneHappyPath(t *testing.T) {
	stores := newTestStores(t)
	be := newTestBackend(t)
	seedBucketAndUpload(t, stores, "bucket", "upload-1", "obj.bin")

	body := []byte("ABCDEFGH")
	req, rec := newUnchunkedRequest("bucket", "obj.bin", "upload-1", 1, body, nil)

	u := New(req, Config{Stores: stores, Backend: be, FlushThreshold: 64 * 1024})
	u.Run()
	waitForResponse(t, rec)

	require.Equal(t, http.StatusOK, rec.Code)
	sum := md5Hex(body)
	require.Equal(t, `"`+sum+`"`, rec.Header().Get("ETag"))
}

func md5Hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// E2: unchunked PUT part-3, part-1 metadata reports length 1048576 ->
// offset computed as 2097152; writer instantiated at that offset.
func TestE2_OffsetComputedFromFirstPartLength(t *testing.T) {
	stores := newTestStores(t)
	be := newTestBackend(t)
	seedBucketAndUpload(t, stores, "bucket", "upload-2", "obj.bin")

	await(t, func(done func()) {
		stores.Parts.Save(context.Background(), &metastore.Part{
			UploadID: "upload-2", PartNumber: 1, ContentLength: 1048576,
		}, done, func(err error) { t.Fatal(err) })
	})

	body := []byte("part-three-bytes")
	req, rec := newUnchunkedRequest("bucket", "obj.bin", "upload-2", 3, body, nil)

	u := New(req, Config{Stores: stores, Backend: be, FlushThreshold: 64 * 1024})
	u.Run()
	waitForResponse(t, rec)

	require.Equal(t, http.StatusOK, rec.Code)

	rc, err := be.Read(context.Background(), objectKey("bucket", "obj.bin", "upload-2", 3))
	require.NoError(t, err)
	defer rc.Close()
	stored, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, int64(len(stored)), int64(2097152+len(body)))
	require.Equal(t, body, stored[2097152:])
}

// E3: part-2 arrives before part-1 metadata exists -> classifier yields
// 503 + Retry-After: 1.
func TestE3_MissingFirstPartYieldsServiceUnavailable(t *testing.T) {
	stores := newTestStores(t)
	be := newTestBackend(t)
	seedBucketAndUpload(t, stores, "bucket", "upload-3", "obj.bin")

	req, rec := newUnchunkedRequest("bucket", "obj.bin", "upload-3", 2, []byte("data"), nil)

	u := New(req, Config{Stores: stores, Backend: be, FlushThreshold: 64 * 1024})
	u.Run()
	waitForResponse(t, rec)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestMissingBucketYieldsNoSuchBucket(t *testing.T) {
	stores := newTestStores(t)
	be := newTestBackend(t)

	req, rec := newUnchunkedRequest("no-such-bucket", "obj.bin", "upload-x", 1, []byte("data"), nil)

	u := New(req, Config{Stores: stores, Backend: be, FlushThreshold: 64 * 1024})
	u.Run()
	waitForResponse(t, rec)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "NoSuchBucket"))
}

func TestMissingUploadYieldsNoSuchUpload(t *testing.T) {
	stores := newTestStores(t)
	be := newTestBackend(t)
	await(t, func(done func()) {
		stores.Buckets.Save(context.Background(), &metastore.Bucket{Name: "bucket"}, done, func(err error) { t.Fatal(err) })
	})

	req, rec := newUnchunkedRequest("bucket", "obj.bin", "no-such-upload", 1, []byte("data"), nil)

	u := New(req, Config{Stores: stores, Backend: be, FlushThreshold: 64 * 1024})
	u.Run()
	waitForResponse(t, rec)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "NoSuchUpload"))
}

const (
	chunkSecretKey = "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY"
	chunkRegion    = "us-east-1"
	chunkService   = "s3"
	chunkTimestamp = "20231215T000000Z"
	chunkDate      = "20231215"
	chunkCredScope = chunkDate + "/" + chunkRegion + "/" + chunkService + "/aws4_request"
)

func deriveSigningKey() []byte {
	kDate := hmacSHA256([]byte("AWS4"+chunkSecretKey), []byte(chunkDate))
	kRegion := hmacSHA256(kDate, []byte(chunkRegion))
	kService := hmacSHA256(kRegion, []byte(chunkService))
	return hmacSHA256(kService, []byte("aws4_request"))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func chunkSig(signingKey []byte, prevSig string, data []byte) string {
	h := sha256.New()
	h.Write(data)
	chunkHash := hex.EncodeToString(h.Sum(nil))
	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256-PAYLOAD",
		chunkTimestamp,
		chunkCredScope,
		prevSig,
		emptySHA256Hex,
		chunkHash,
	}, "\n")
	return hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))
}

const emptySHA256Hex = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func buildChunkedBody(signingKey []byte, seedSig string, chunks [][]byte) ([]byte, string) {
	var buf strings.Builder
	prevSig := seedSig
	for _, c := range chunks {
		sig := chunkSig(signingKey, prevSig, c)
		buf.WriteString(fmt.Sprintf("%x;chunk-signature=%s\r\n", len(c), sig))
		buf.Write(c)
		buf.WriteString("\r\n")
		prevSig = sig
	}
	finalSig := chunkSig(signingKey, prevSig, nil)
	buf.WriteString(fmt.Sprintf("0;chunk-signature=%s\r\n\r\n", finalSig))
	return []byte(buf.String()), finalSig
}

func newChunkedRequest(t *testing.T, bucket, object, uploadID string, partNumber int, chunks [][]byte) (*Request, *httptest.ResponseRecorder, *chunkauth.Coordinator) {
	t.Helper()
	signingKey := deriveSigningKey()
	seedSig := "seedsignature00000000000000000000000000000000000000000000000000"

	wireBody, _ := buildChunkedBody(signingKey, seedSig, chunks)
	declared := 0
	for _, c := range chunks {
		declared += len(c)
	}

	rec := httptest.NewRecorder()
	r := &Request{
		Bucket:        bucket,
		Object:        object,
		UploadID:      uploadID,
		PartNumber:    partNumber,
		Chunked:       true,
		Headers:       http.Header{},
		ContentLength: int64(declared),
		w:             rec,
	}
	r.Body = NewBody(strings.NewReader(string(wireBody)), true)

	coord := chunkauth.New(chunkauth.Config{
		SigningKey:    signingKey,
		SeedSignature: seedSig,
		Timestamp:     chunkTimestamp,
		Region:        chunkRegion,
		Service:       chunkService,
	})
	return r, rec, coord
}

// E4: chunked PUT of two chunks of size 4 then a terminal size-0 chunk;
// write completes before auth -> clovis_write_completed set, pipeline
// waits; auth success then advances; final response 200.
func TestE4_ChunkedWriteThenAuthCompletes(t *testing.T) {
	stores := newTestStores(t)
	be := newTestBackend(t)
	seedBucketAndUpload(t, stores, "bucket", "upload-4", "obj.bin")

	chunks := [][]byte{[]byte("aaaa"), []byte("bbbb")}
	req, rec, coord := newChunkedRequest(t, "bucket", "obj.bin", "upload-4", 1, chunks)

	u := New(req, Config{Stores: stores, Backend: be, FlushThreshold: 64 * 1024, ChunkAuth: coord})
	u.Run()
	waitForResponse(t, rec)

	require.Equal(t, http.StatusOK, rec.Code)
}

// E5: chunked PUT, write succeeds but auth fails -> response 403
// SignatureDoesNotMatch, no metadata persisted.
func TestE5_ChunkedAuthFailureYieldsSignatureMismatch(t *testing.T) {
	stores := newTestStores(t)
	be := newTestBackend(t)
	seedBucketAndUpload(t, stores, "bucket", "upload-5", "obj.bin")

	signingKey := deriveSigningKey()
	seedSig := "seedsignature00000000000000000000000000000000000000000000000000"
	chunks := [][]byte{[]byte("aaaa")}
	wireBody, _ := buildChunkedBody(signingKey, seedSig, chunks)
	// Corrupt the first chunk's signature so the coordinator rejects it.
	corrupted := strings.Replace(string(wireBody), "chunk-signature=", "chunk-signature=deadbeef00000000000000000000000000000000000000000000000000000000", 1)

	rec := httptest.NewRecorder()
	req := &Request{
		Bucket:        "bucket",
		Object:        "obj.bin",
		UploadID:      "upload-5",
		PartNumber:    1,
		Chunked:       true,
		Headers:       http.Header{},
		ContentLength: int64(len(chunks[0])),
		w:             rec,
	}
	req.Body = NewBody(strings.NewReader(corrupted), true)

	coord := chunkauth.New(chunkauth.Config{
		SigningKey:    signingKey,
		SeedSignature: seedSig,
		Timestamp:     chunkTimestamp,
		Region:        chunkRegion,
		Service:       chunkService,
	})

	u := New(req, Config{Stores: stores, Backend: be, FlushThreshold: 64 * 1024, ChunkAuth: coord})
	u.Run()
	waitForResponse(t, rec)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "SignatureDoesNotMatch"))

	await(t, func(done func()) {
		stores.Parts.Load(context.Background(), "upload-5", 1, func(p *metastore.Part) {
			require.Equal(t, metastore.StateMissing, p.State())
			done()
		}, func(err error) { t.Fatal(err) })
	})
}
