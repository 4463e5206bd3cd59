// Package kv is a namespaced durable key/value contract with a few backends.
// A namespace is opened, read or written, and closed again; writes of a
// namespace become durable when it is closed.
package kv

import (
	"strconv"

	"github.com/pkg/errors"
)

var (
	ErrReadOnly = errors.New("kv: namespace opened read-only")
	ErrClosed   = errors.New("kv: namespace already closed")
)

type Store interface {
	Open(namespace string, readOnly bool) (Namespace, error)
}

type Namespace interface {
	GetUint(key string, def uint32) uint32
	GetString(key string, def string) string
	PutUint(key string, value uint32) error
	PutString(key string, value string) error
	Close() error
}

// entries is the in-memory working copy of one namespace shared by backends.
type entries struct {
	name     string
	readOnly bool
	closed   bool
	values   map[string]string
	dirty    bool
}

func newEntries(name string, readOnly bool, values map[string]string) *entries {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &entries{name: name, readOnly: readOnly, values: copied}
}

func (e *entries) GetUint(key string, def uint32) uint32 {
	v, ok := e.values[key]
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return def
	}
	return uint32(n)
}

func (e *entries) GetString(key string, def string) string {
	v, ok := e.values[key]
	if !ok {
		return def
	}
	return v
}

func (e *entries) PutUint(key string, value uint32) error {
	return e.put(key, strconv.FormatUint(uint64(value), 10))
}

func (e *entries) PutString(key string, value string) error {
	return e.put(key, value)
}

func (e *entries) put(key, value string) error {
	if e.closed {
		return ErrClosed
	}
	if e.readOnly {
		return ErrReadOnly
	}
	e.values[key] = value
	e.dirty = true
	return nil
}

// finish marks the namespace closed and reports whether it holds unsaved writes.
func (e *entries) finish() (bool, error) {
	if e.closed {
		return false, ErrClosed
	}
	e.closed = true
	return e.dirty, nil
}
