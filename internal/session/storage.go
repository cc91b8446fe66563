// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package session

import "errors"

// Persisted session keys.
const (
	UserKey         = "currentUser"
	LastActivityKey = "lastActivityTimestamp"
)

// ErrStorageClosed is returned by operations on a closed storage.
var ErrStorageClosed = errors.New("session storage closed")

// Change describes a write made through another view of the same storage.
type Change struct {
	Key     string
	Value   string
	Removed bool
}

// Storage is a string key/value store shared by several session managers.
//
// Subscribe delivers changes made by other views only, never by the view
// that wrote them, in the order they were written. The returned function
// stops delivery.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
	Subscribe(fn func(Change)) (unsubscribe func())
}
