// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package chunkauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testSecretKey = "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY"
	testRegion    = "us-east-1"
	testService   = "s3"
	testTimestamp = "20231215T000000Z"
	testDate      = "20231215"
	testCredScope = testDate + "/" + testRegion + "/" + testService + "/aws4_request"
	emptyHash     = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func deriveTestSigningKey() []byte {
	kDate := hmacSHA256([]byte("AWS4"+testSecretKey), []byte(testDate))
	kRegion := hmacSHA256(kDate, []byte(testRegion))
	kService := hmacSHA256(kRegion, []byte(testService))
	return hmacSHA256(kService, []byte("aws4_request"))
}

func calcChunkSig(signingKey []byte, prevSig string, data []byte) string {
	h := sha256.New()
	h.Write(data)
	chunkHash := hex.EncodeToString(h.Sum(nil))
	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256-PAYLOAD",
		testTimestamp,
		testCredScope,
		prevSig,
		emptyHash,
		chunkHash,
	}, "\n")
	return hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))
}

func newTestCoordinator() (*Coordinator, []byte, string) {
	signingKey := deriveTestSigningKey()
	seedSig := "seedsignature00000000000000000000000000000000000000000000000000"
	c := New(Config{
		SigningKey:    signingKey,
		SeedSignature: seedSig,
		Timestamp:     testTimestamp,
		Region:        testRegion,
		Service:       testService,
	})
	return c, signingKey, seedSig
}

func TestCoordinatorVerifiesChunkChain(t *testing.T) {
	c, signingKey, seedSig := newTestCoordinator()

	var succeeded bool
	var failErr error
	c.InitCycle(func() { succeeded = true }, func(err error) { failErr = err })

	chunk := []byte("hello world")
	sig1 := calcChunkSig(signingKey, seedSig, chunk)
	require.True(t, c.AddChecksumForChunk(sig1, chunk))

	finalSig := calcChunkSig(signingKey, sig1, nil)
	require.True(t, c.AddLastChecksumForChunk(finalSig))

	require.True(t, succeeded)
	require.NoError(t, failErr)
}

func TestCoordinatorRejectsBadChunkSignature(t *testing.T) {
	c, _, _ := newTestCoordinator()

	var failErr error
	c.InitCycle(func() {}, func(err error) { failErr = err })

	require.False(t, c.AddChecksumForChunk("not-a-real-signature", []byte("data")))
	require.ErrorIs(t, failErr, ErrChunkSignatureMismatch)
}

func TestCoordinatorRejectsFurtherChunksAfterFailure(t *testing.T) {
	c, signingKey, seedSig := newTestCoordinator()

	failures := 0
	c.InitCycle(func() {}, func(err error) { failures++ })

	require.False(t, c.AddChecksumForChunk("bad", []byte("x")))
	// A subsequent, correctly-signed chunk must not resurrect the cycle.
	sig := calcChunkSig(signingKey, seedSig, []byte("y"))
	require.False(t, c.AddChecksumForChunk(sig, []byte("y")))
	require.Equal(t, 1, failures)
}

func TestCoordinatorVerifiesTrailer(t *testing.T) {
	c, signingKey, seedSig := newTestCoordinator()

	var succeeded bool
	c.InitCycle(func() { succeeded = true }, func(err error) {})

	chunk := []byte("payload")
	sig1 := calcChunkSig(signingKey, seedSig, chunk)
	require.True(t, c.AddChecksumForChunk(sig1, chunk))

	finalSig := calcChunkSig(signingKey, sig1, nil)
	require.True(t, c.AddLastChecksumForChunk(finalSig))
	require.True(t, succeeded)

	trailerLines := []string{"x-amz-checksum-crc32c:deadbeef"}
	h := sha256.New()
	h.Write([]byte(trailerLines[0] + "\n"))
	trailerHash := hex.EncodeToString(h.Sum(nil))
	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256-TRAILER",
		testTimestamp,
		testCredScope,
		finalSig,
		trailerHash,
	}, "\n")
	trailerSig := hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))

	succeeded = false
	require.True(t, c.VerifyTrailer(trailerSig, trailerLines))
	require.True(t, succeeded)
}
