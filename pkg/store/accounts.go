package store

import (
	"encoding/json"
	"fmt"

	"github.com/TheGoodall/forum/pkg/kv"
	"github.com/TheGoodall/forum/pkg/logger"
	"github.com/TheGoodall/forum/pkg/models"
	"github.com/TheGoodall/forum/pkg/security"
)

const accountKeyPrefix = "user:"

// AccountStore owns account records, keyed by user ID. Accounts are
// created once and never mutated.
type AccountStore struct {
	kv kv.Store
}

// NewAccountStore returns an AccountStore over the given backend.
func NewAccountStore(s kv.Store) *AccountStore {
	return &AccountStore{kv: s}
}

// Get returns the account stored under userID, or kv.ErrNotFound.
func (as *AccountStore) Get(userID string) (models.User, error) {
	var u models.User
	v, err := as.kv.Get(accountKeyPrefix + userID)
	if err != nil {
		return u, err
	}
	var acc models.Account
	if err := json.Unmarshal([]byte(v), &acc); err != nil {
		return u, fmt.Errorf("invalid account record for %q: %w", userID, err)
	}
	return models.User{ID: userID, Account: acc}, nil
}

// Create hashes the password and stores a new account under userID. It
// fails with ErrAlreadyExists when the user ID is taken. The existence
// check and the write are separate operations; see PostStore.Create for
// the accepted race.
func (as *AccountStore) Create(userID, username, plain string) error {
	if _, err := as.Get(userID); err == nil {
		return ErrAlreadyExists
	} else if !kv.IsNotFound(err) {
		return err
	}
	hash, err := security.HashPassword(plain)
	if err != nil {
		return err
	}
	b, err := json.Marshal(models.Account{Username: username, Hash: hash})
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	if err := as.kv.Put(accountKeyPrefix+userID, string(b)); err != nil {
		logger.Error("save_account_failed", "user", userID, "error", err)
		return err
	}
	logger.Info("account_created", "user", userID)
	return nil
}

// VerifyPassword reports whether plain matches the stored hash for
// userID. Unknown users and wrong passwords are indistinguishable.
func (as *AccountStore) VerifyPassword(userID, plain string) (bool, error) {
	u, err := as.Get(userID)
	if err != nil {
		if kv.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return security.VerifyPassword(plain, u.Account.Hash), nil
}
