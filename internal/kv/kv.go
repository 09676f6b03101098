// Package kv provides the string key-value stores that hold serialized drafts.
//
// Every backend behaves like a browser's local storage: synchronous calls,
// string keys, string values, enumeration by key prefix. Backend failures are
// wrapped with ErrUnavailable so callers can treat them uniformly.
package kv

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrUnavailable marks any failure of the underlying store.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrQuotaExceeded is returned by a quota-limited store on a write that does not fit.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrDisabled is returned by a store that has been switched off.
	ErrDisabled = errors.New("storage disabled")
	// ErrCorruptValue is returned by Get when a stored value cannot be decoded by the backend.
	ErrCorruptValue = errors.New("stored value cannot be decoded")
)

type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
	// Keys lists every key starting with prefix, in no particular order.
	Keys(prefix string) ([]string, error)
	Close() error
}

var kvLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	kvLogger = l
}

func filterPrefix(keys []string, prefix string) []string {
	out := keys[:0]
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}
