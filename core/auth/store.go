package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/pet-marketplace/store"
)

const sessionPrefix = "session:"

// SessionStore keeps scs sessions in a store.Backend so that every service
// sharing the backend sees the same sessions.
type SessionStore struct {
	backend store.Backend
	now     func() time.Time
}

func NewSessionStore(backend store.Backend) *SessionStore {
	return &SessionStore{backend: backend, now: time.Now}
}

type envelope struct {
	Data   []byte    `json:"data"`
	Expiry time.Time `json:"expiry"`
}

func (s *SessionStore) FindCtx(ctx context.Context, token string) ([]byte, bool, error) {
	b, err := s.backend.Read(ctx, sessionPrefix+token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading session: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, false, fmt.Errorf("decoding session: %w", err)
	}

	if !s.now().Before(env.Expiry) {
		return nil, false, nil
	}
	return env.Data, true, nil
}

func (s *SessionStore) CommitCtx(ctx context.Context, token string, b []byte, expiry time.Time) error {
	data, err := json.Marshal(envelope{Data: b, Expiry: expiry})
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	if err := s.backend.Write(ctx, sessionPrefix+token, data); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteCtx(ctx context.Context, token string) error {
	return s.backend.Delete(ctx, sessionPrefix+token)
}

func (s *SessionStore) Find(token string) ([]byte, bool, error) {
	return s.FindCtx(context.Background(), token)
}

func (s *SessionStore) Commit(token string, b []byte, expiry time.Time) error {
	return s.CommitCtx(context.Background(), token, b, expiry)
}

func (s *SessionStore) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}
