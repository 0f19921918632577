// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package iam

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory CredentialStore, used in tests and for
// single-node deployments that manage principals out of band.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]*Identity
	accessKeys map[string]string // accessKey -> username
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]*Identity),
		accessKeys: make(map[string]string),
	}
}

func (s *MemoryStore) GetUserByAccessKey(ctx context.Context, accessKey string) (*Identity, *Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	username, exists := s.accessKeys[accessKey]
	if !exists {
		return nil, nil, ErrAccessKeyNotFound
	}

	identity, exists := s.users[username]
	if !exists {
		return nil, nil, ErrUserNotFound
	}

	for _, cred := range identity.Credentials {
		if cred.AccessKey == accessKey {
			return identity, cred, nil
		}
	}
	return nil, nil, ErrAccessKeyNotFound
}

func (s *MemoryStore) CreateUser(ctx context.Context, identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[identity.Name]; exists {
		return ErrUserAlreadyExists
	}
	s.users[identity.Name] = identity
	for _, cred := range identity.Credentials {
		s.accessKeys[cred.AccessKey] = identity.Name
	}
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, username string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, exists := s.users[username]
	if !exists {
		return nil, ErrUserNotFound
	}
	return identity, nil
}
