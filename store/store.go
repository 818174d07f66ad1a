// Package store persists JSON documents under string keys. Backends only move
// bytes; the JSON adapter owns encoding and swallows every failure so callers
// always get a usable value back.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("key not found")

// Backend is durable byte storage addressed by key. Write replaces the whole
// value; Read returns ErrNotFound for a missing key.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// JSON reads and writes values of type T through a Backend.
type JSON[T any] struct {
	backend Backend
	log     logrus.FieldLogger
}

func NewJSON[T any](backend Backend, log logrus.FieldLogger) *JSON[T] {
	return &JSON[T]{backend: backend, log: log}
}

// Get returns the value stored under key, or def when the key is missing,
// unreadable or does not hold valid JSON for T.
func (j *JSON[T]) Get(ctx context.Context, key string, def T) T {
	b, err := j.backend.Read(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def
	}
	if err != nil {
		j.log.WithFields(logrus.Fields{"key": key, "message": err}).Error("store read failed")
		return def
	}

	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		j.log.WithFields(logrus.Fields{"key": key, "message": err}).Warn("discarding corrupted value")
		return def
	}

	return v
}

// Set serializes v and overwrites the value under key. Failures are logged
// and the write is dropped.
func (j *JSON[T]) Set(ctx context.Context, key string, v T) {
	b, err := json.Marshal(v)
	if err != nil {
		j.log.WithFields(logrus.Fields{"key": key, "message": err}).Error("cannot marshal value")
		return
	}

	if err := j.backend.Write(ctx, key, b); err != nil {
		j.log.WithFields(logrus.Fields{"key": key, "message": err}).Error("store write failed")
	}
}
