// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

// Package credstore persists the client's credential pair - the bearer
// token and the serialized user identity - in a local BadgerDB store.
//
// The session store is the only writer; everything else reads the
// identity through the session store's exposed accessor. Token and
// identity are written and cleared together: a token without an identity
// (or vice versa) is treated as no session by the restore path.
package credstore

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/crewgrid/crewgrid/internal/logging"
	"github.com/crewgrid/crewgrid/internal/models"
)

// Badger keys for the credential pair.
const (
	tokenKey    = "cred:token"
	identityKey = "cred:identity"
)

// Store is a BadgerDB-backed credential store.
type Store struct {
	db  *badger.DB
	log zerolog.Logger
}

// Open opens (or creates) the credential store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	return newStore(db), nil
}

// OpenInMemory opens an ephemeral store. Used by tests.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory credential store: %w", err)
	}
	return newStore(db), nil
}

func newStore(db *badger.DB) *Store {
	return &Store{
		db:  db,
		log: logging.With().Str("component", "credstore").Logger(),
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Token returns the persisted bearer token, or "" when none is stored.
// Implements transport.TokenSource.
func (s *Store) Token() (string, error) {
	var token string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tokenKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			token = string(val)
			return nil
		})
	})
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return token, nil
}

// Identity returns the persisted user record, or nil when none is stored
// or the stored value does not parse.
func (s *Store) Identity() (*models.UserRecord, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(identityKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read identity: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var user models.UserRecord
	if err := json.Unmarshal(raw, &user); err != nil {
		// A corrupt identity blob is indistinguishable from no session.
		s.log.Warn().Err(err).Msg("persisted identity failed to parse")
		return nil, nil
	}
	return &user, nil
}

// SetCredentials persists the token and identity together in one
// transaction.
func (s *Store) SetCredentials(token string, user *models.UserRecord) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(tokenKey), []byte(token)); err != nil {
			return err
		}
		return txn.Set([]byte(identityKey), data)
	})
	if err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	return nil
}

// SetIdentity re-persists the identity alone, leaving the token in
// place. Used after a profile update.
func (s *Store) SetIdentity(user *models.UserRecord) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(identityKey), data)
	})
	if err != nil {
		return fmt.Errorf("persist identity: %w", err)
	}
	return nil
}

// Clear removes both credential keys in one transaction. Idempotent.
func (s *Store) Clear() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(tokenKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Delete([]byte(identityKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// RunGC runs one BadgerDB value-log garbage collection cycle. Returns
// badger.ErrNoRewrite when there was nothing to collect; callers treat
// that as success.
func (s *Store) RunGC(discardRatio float64) error {
	return s.db.RunValueLogGC(discardRatio)
}
