package store

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const refreshTokenPrefix = "oauth/refresh/"

// TokenStore persists one delegated refresh credential per owner in an
// embedded badger database. All writes are atomic upserts or deletes, so
// concurrent invalid-grant recovery cannot corrupt the record.
type TokenStore struct {
	Db *badger.DB
}

// Open opens (creating if needed) the badger database under dir.
func Open(dir string) (*TokenStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &TokenStore{Db: db}, nil
}

func (s *TokenStore) Close() error {
	return s.Db.Close()
}

func refreshTokenKey(ownerID string) []byte {
	return []byte(refreshTokenPrefix + ownerID)
}

// GetRefreshToken returns the stored refresh token for ownerID, or the
// empty string when no record exists. Only storage connectivity failures
// surface as errors.
func (s *TokenStore) GetRefreshToken(ownerID string) (string, error) {
	txn := s.Db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get(refreshTokenKey(ownerID))
	if err == badger.ErrKeyNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var valCopy []byte
	if err := item.Value(func(val []byte) error {
		valCopy = append([]byte{}, val...)
		return nil
	}); err != nil {
		return "", err
	}

	return string(valCopy), nil
}

// SaveRefreshToken creates or overwrites the single record for ownerID.
// Last write wins.
func (s *TokenStore) SaveRefreshToken(ownerID, refreshToken string) error {
	txn := s.Db.NewTransaction(true)
	defer txn.Discard()

	if err := txn.Set(refreshTokenKey(ownerID), []byte(refreshToken)); err != nil {
		return err
	}

	return txn.Commit()
}

// ClearRefreshToken removes the record for ownerID. Deleting an absent
// record is not an error.
func (s *TokenStore) ClearRefreshToken(ownerID string) error {
	txn := s.Db.NewTransaction(true)
	defer txn.Discard()

	if err := txn.Delete(refreshTokenKey(ownerID)); err != nil {
		return err
	}

	return txn.Commit()
}
