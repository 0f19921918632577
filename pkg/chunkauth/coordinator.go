// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunkauth drives signature verification for a SigV4-streaming
// chunked body, one chunk at a time, as chunks arrive off the wire rather
// than by pulling from an io.Reader. It reuses the rolling-signature math
// in pkg/s3api/signature, restructured behind a push interface so it can
// sit inside the multipart action pipeline's task sequence.
package chunkauth

import (
	"errors"
	"sync"

	"github.com/LeeDigitalWorks/zapfs/pkg/s3api/signature"
)

var (
	ErrChunkSignatureMismatch   = errors.New("chunk signature mismatch")
	ErrTrailerSignatureMismatch = errors.New("trailer signature mismatch")
)

// Coordinator verifies a chained sequence of chunk signatures (and,
// for a -TRAILER stream, a final trailer signature) against the signing
// context established by the initial request's SigV4 verification.
type Coordinator struct {
	signingKey []byte
	credScope  string
	timestamp  string

	mu        sync.Mutex
	prevSig   string
	done      bool
	onSuccess func()
	onFailed  func(error)
}

// Config carries the signing context produced by verifying the initial
// (unchunked) request signature — see signature.StreamingAuthResult.
type Config struct {
	SigningKey    []byte
	SeedSignature string
	Timestamp     string
	Region        string
	Service       string
}

// New builds a Coordinator seeded with the initial request's signature,
// the chain's starting link per the sigv4-streaming spec.
func New(cfg Config) *Coordinator {
	return &Coordinator{
		signingKey: cfg.SigningKey,
		credScope:  signature.CredentialScope(cfg.Timestamp, cfg.Region, cfg.Service),
		timestamp:  cfg.Timestamp,
		prevSig:    cfg.SeedSignature,
	}
}

// InitCycle arms the coordinator for one upload's worth of chunks. onSuccess
// fires once, when the terminal (empty) chunk's signature verifies; onFailure
// fires once, on the first signature mismatch encountered by AddChecksumForChunk
// or AddLastChecksumForChunk. Through those two methods neither fires more
// than once, and neither fires after the other has already fired.
// VerifyTrailer does not check this: it reports its own outcome through the
// same callbacks even when one of them has already fired.
func (c *Coordinator) InitCycle(onSuccess func(), onFailure func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSuccess = onSuccess
	c.onFailed = onFailure
	c.done = false
}

// AddChecksumForChunk verifies one non-terminal chunk's signature against
// the chunk's data hash, chained off the previous chunk's signature, and
// advances the chain. sig is the signature the client sent for this chunk;
// data is the chunk's decoded payload.
func (c *Coordinator) AddChecksumForChunk(sig string, data []byte) bool {
	return c.verify(sig, data, false)
}

// AddLastChecksumForChunk verifies the terminal (zero-length) chunk's
// signature, completing the cycle and firing onSuccess if it matches.
func (c *Coordinator) AddLastChecksumForChunk(sig string) bool {
	return c.verify(sig, nil, true)
}

func (c *Coordinator) verify(sig string, data []byte, terminal bool) bool {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return false
	}
	expected := signature.ChunkSignature(c.signingKey, c.timestamp, c.credScope, c.prevSig, data)
	ok := signature.ConstantTimeCompare(sig, expected)
	var onSucceeded func()
	onFailed := c.onFailed
	if ok {
		c.prevSig = sig
		if terminal {
			c.done = true
			onSucceeded = c.onSuccess
		}
	} else {
		c.done = true
	}
	c.mu.Unlock()

	switch {
	case !ok && onFailed != nil:
		onFailed(ErrChunkSignatureMismatch)
	case ok && terminal && onSucceeded != nil:
		onSucceeded()
	}
	return ok
}

// VerifyTrailer verifies the trailer signature carried by a -TRAILER
// stream's final line, chained off the last chunk signature seen.
// trailerLines are "header:value" strings in the order they were parsed;
// TrailerSignature sorts them per the wire format.
func (c *Coordinator) VerifyTrailer(sig string, trailerLines []string) bool {
	c.mu.Lock()
	prevSig := c.prevSig
	onFailed := c.onFailed
	onSucceeded := c.onSuccess
	c.mu.Unlock()

	expected := signature.TrailerSignature(c.signingKey, c.timestamp, c.credScope, prevSig, trailerLines)
	ok := signature.ConstantTimeCompare(sig, expected)

	c.mu.Lock()
	c.done = true
	c.mu.Unlock()

	switch {
	case !ok && onFailed != nil:
		onFailed(ErrTrailerSignatureMismatch)
	case ok && onSucceeded != nil:
		onSucceeded()
	}
	return ok
}
