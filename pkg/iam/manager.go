// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package iam

import (
	"context"
	"time"

	"github.com/LeeDigitalWorks/zapfs/pkg/cache"
)

// Manager provides fast credential lookups with in-memory caching, backing
// the signing verification path that every action pipeline request passes
// through.
type Manager struct {
	store          CredentialStore
	accessKeyCache *cache.Cache[string, *cacheEntry]
}

type cacheEntry struct {
	identity   *Identity
	credential *Credential
}

const (
	defaultCacheMaxItems = 10000
	defaultCacheTTL      = 5 * time.Minute
)

func NewManager(store CredentialStore) *Manager {
	return &Manager{
		store: store,
		accessKeyCache: cache.New[string, *cacheEntry](context.Background(),
			cache.WithMaxSize[string, *cacheEntry](defaultCacheMaxItems),
			cache.WithExpiry[string, *cacheEntry](defaultCacheTTL),
		),
	}
}

// LookupByAccessKey resolves the identity and credential for an access
// key, rejecting disabled principals and inactive credentials.
func (m *Manager) LookupByAccessKey(ctx context.Context, accessKey string) (*Identity, *Credential, bool) {
	if entry, exists := m.accessKeyCache.Get(accessKey); exists && entry != nil {
		if !entry.credential.IsActive() || entry.identity.Disabled {
			return nil, nil, false
		}
		return entry.identity, entry.credential, true
	}

	identity, cred, err := m.store.GetUserByAccessKey(ctx, accessKey)
	if err != nil {
		return nil, nil, false
	}
	if !cred.IsActive() || identity.Disabled {
		return nil, nil, false
	}

	m.accessKeyCache.Set(accessKey, &cacheEntry{identity: identity, credential: cred})
	return identity, cred, true
}

func (m *Manager) InvalidateAccessKey(accessKey string) {
	m.accessKeyCache.Delete(accessKey)
}

func (m *Manager) Stop() {
	m.accessKeyCache.Stop()
}
