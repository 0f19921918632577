// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package iam

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrAccessKeyNotFound = errors.New("access key not found")
)

// CredentialStore looks up and manages principals for request signing.
type CredentialStore interface {
	GetUserByAccessKey(ctx context.Context, accessKey string) (*Identity, *Credential, error)
	CreateUser(ctx context.Context, identity *Identity) error
	GetUser(ctx context.Context, username string) (*Identity, error)
}
