// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package iam

import "time"

// Credential is an access key / secret key pair used to sign requests.
type Credential struct {
	AccessKey string
	SecretKey string
	Status    string // "Active" or "Inactive"
	ExpiresAt *time.Time
}

// IsActive reports whether the credential may still be used to sign
// requests.
func (c *Credential) IsActive() bool {
	if c.Status != "" && c.Status != "Active" {
		return false
	}
	if c.ExpiresAt != nil && time.Now().After(*c.ExpiresAt) {
		return false
	}
	return true
}

// Account carries the canonical owner identity attached to buckets and
// objects created under a principal's credentials.
type Account struct {
	DisplayName string
	ID          string
}

// Identity is an S3 principal with one or more credentials.
type Identity struct {
	Name        string
	Account     *Account
	Credentials []*Credential
	Disabled    bool
}

var AccountAnonymous = &Account{DisplayName: "anonymous", ID: "anonymous"}
