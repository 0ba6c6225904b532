// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package artindex

import "errors"

var (
	// ErrDuplicateKey is returned when inserting a key that is already
	// present in a unique index.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned when erasing a key or row id that is not
	// present in the index.
	ErrNotFound = errors.New("not found")

	// ErrKeyTooLarge is returned when a key exceeds the configured
	// maximum key length.
	ErrKeyTooLarge = errors.New("key exceeds maximum length")
)
