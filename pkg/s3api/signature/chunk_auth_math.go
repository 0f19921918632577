// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/LeeDigitalWorks/zapfs/pkg/utils"
)

const (
	chunkSigningAlgorithm   = "AWS4-HMAC-SHA256-PAYLOAD"
	trailerSigningAlgorithm = "AWS4-HMAC-SHA256-TRAILER"
)

// CredentialScope builds the credential-scope component of a chunk or
// trailer string-to-sign from a request timestamp.
func CredentialScope(timestamp, region, service string) string {
	return fmt.Sprintf("%s/%s/%s/aws4_request", timestamp[:8], region, service)
}

// ChunkSignature calculates the expected AWS4-HMAC-SHA256-PAYLOAD signature
// for one chunk, chained off prevSig. Exported so callers outside this
// package (the chunked-auth coordinator) can drive the same math from a
// push-based chunk parser instead of pulling through an io.Reader wrapper.
func ChunkSignature(signingKey []byte, timestamp, credScope, prevSig string, chunkData []byte) string {
	hasher := utils.Sha256PoolGetHasher()
	hasher.Write(chunkData)
	chunkHash := hex.EncodeToString(hasher.Sum(nil))
	utils.Sha256PoolPutHasher(hasher)

	stringToSign := strings.Join([]string{
		chunkSigningAlgorithm,
		timestamp,
		credScope,
		prevSig,
		HashedEmptyPayload,
		chunkHash,
	}, "\n")

	return hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))
}

// TrailerSignature calculates the expected AWS4-HMAC-SHA256-TRAILER
// signature over a set of "header:value\n" trailer lines, chained off the
// final chunk's signature.
func TrailerSignature(signingKey []byte, timestamp, credScope, prevSig string, trailerHeaders []string) string {
	sorted := make([]string, len(trailerHeaders))
	copy(sorted, trailerHeaders)
	sort.Strings(sorted)

	var trailerStr strings.Builder
	for _, h := range sorted {
		trailerStr.WriteString(h)
		trailerStr.WriteString("\n")
	}

	hasher := utils.Sha256PoolGetHasher()
	hasher.Write([]byte(trailerStr.String()))
	trailerHash := hex.EncodeToString(hasher.Sum(nil))
	utils.Sha256PoolPutHasher(hasher)

	stringToSign := strings.Join([]string{
		trailerSigningAlgorithm,
		timestamp,
		credScope,
		prevSig,
		trailerHash,
	}, "\n")

	return hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))
}

// ConstantTimeCompare exposes the package's timing-safe string comparison
// for callers verifying a chunk or trailer signature.
func ConstantTimeCompare(a, b string) bool {
	return constantTimeCompare(a, b)
}
