// Package storage provides size-limited key-value storage facilities for the
// response cache.
package storage

import (
	"errors"
	"fmt"
)

// Known "out of space" codes. CodeQuotaExceeded is the standard DOMException
// code; CodeQuotaExceededLegacy is the older NS_ERROR_DOM_QUOTA_REACHED value.
const (
	CodeQuotaExceeded       = 22
	CodeQuotaExceededLegacy = 1014
)

// ErrClosed is returned by stores that have been closed.
var ErrClosed = errors.New("storage: closed")

// Store is a key-value storage facility with a capacity limit.
//
// Set returns a *QuotaError when the write would exceed capacity. Any other
// error means the storage is unavailable.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// QuotaError reports that a write did not fit in the store.
type QuotaError struct {
	Code  int
	Used  int64 // bytes in use before the write
	Need  int64 // bytes the write would occupy
	Limit int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("storage quota exceeded (code %d): %d used + %d needed > %d limit", e.Code, e.Used, e.Need, e.Limit)
}

// IsQuotaExceeded reports whether err is an out-of-space signal.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaError
	if !errors.As(err, &qe) {
		return false
	}
	return qe.Code == CodeQuotaExceeded || qe.Code == CodeQuotaExceededLegacy
}

// entrySize is the number of bytes a key/value pair counts against a quota.
func entrySize(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}
