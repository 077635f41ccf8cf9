package store

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TheGoodall/forum/pkg/kv"
	"github.com/TheGoodall/forum/pkg/logger"
	"github.com/TheGoodall/forum/pkg/models"
)

const sessionKeyPrefix = "session:"

// SessionStore issues and validates opaque session tokens. Records carry
// an absolute deadline that every successful validation pushes forward by
// the configured expiry (sliding expiration); expired records are pruned
// lazily on lookup and in bulk by PurgeExpired.
type SessionStore struct {
	kv       kv.Store
	accounts *AccountStore
	expiry   time.Duration

	now func() time.Time
}

// NewSessionStore returns a SessionStore with the given expiry. The
// expiry is required; validating it is the caller's (config) job.
func NewSessionStore(s kv.Store, accounts *AccountStore, expiry time.Duration) *SessionStore {
	return &SessionStore{kv: s, accounts: accounts, expiry: expiry, now: time.Now}
}

// Create verifies the password for userID and, on success, mints a new
// random token bound to the user. It returns an empty token when the
// account is unknown or the password is wrong; the two cases are not
// distinguishable by the caller.
func (ss *SessionStore) Create(userID, plain string) (string, error) {
	ok, err := ss.accounts.VerifyPassword(userID, plain)
	if err != nil {
		return "", err
	}
	if !ok {
		logger.Info("session_refused", "user", userID)
		return "", nil
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := ss.write(token, userID); err != nil {
		return "", err
	}
	logger.Info("session_created", "user", userID)
	return token, nil
}

// Validate resolves token to its bound user ID, refreshing the record's
// deadline first. Unknown and expired tokens both return an empty user
// ID; expired records are deleted on the way out.
func (ss *SessionStore) Validate(token string) (string, error) {
	v, err := ss.kv.Get(sessionKeyPrefix + token)
	if err != nil {
		if kv.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	var rec models.Session
	if err := json.Unmarshal([]byte(v), &rec); err != nil {
		// corrupt record: fail closed and drop it
		logger.Warn("session_record_malformed", "error", err)
		_ = ss.kv.Delete(sessionKeyPrefix + token)
		return "", nil
	}
	if ss.now().Unix() >= rec.ExpiresAt {
		_ = ss.kv.Delete(sessionKeyPrefix + token)
		logger.Debug("session_expired", "user", rec.UserID)
		return "", nil
	}
	if err := ss.write(token, rec.UserID); err != nil {
		return "", err
	}
	return rec.UserID, nil
}

// Delete removes the session for token. Deleting an unknown token is not
// an error.
func (ss *SessionStore) Delete(token string) error {
	if err := ss.kv.Delete(sessionKeyPrefix + token); err != nil {
		return err
	}
	logger.Info("session_deleted")
	return nil
}

// PurgeExpired scans up to limit session records after the cursor and
// deletes the ones past their deadline. Malformed records are removed
// too. It returns how many were removed and the cursor for the next
// call; an empty cursor means the scan reached the end of the keyspace.
// The cursor advances over live records as well, so stale entries deep
// in the keyspace are reached regardless of what sorts ahead of them.
// Used by the background sweeper; lookup-time pruning in Validate still
// applies between sweeps.
func (ss *SessionStore) PurgeExpired(after string, limit int) (int, string, error) {
	entries, err := ss.kv.ListAfter(sessionKeyPrefix, after, limit)
	if err != nil {
		return 0, "", err
	}
	now := ss.now().Unix()
	removed := 0
	for _, e := range entries {
		var rec models.Session
		if err := json.Unmarshal([]byte(e.Value), &rec); err == nil && now < rec.ExpiresAt {
			continue
		}
		if err := ss.kv.Delete(e.Key); err != nil {
			return removed, "", err
		}
		removed++
	}
	if limit <= 0 || len(entries) < limit {
		return removed, "", nil
	}
	return removed, entries[len(entries)-1].Key, nil
}

func (ss *SessionStore) write(token, userID string) error {
	rec := models.Session{UserID: userID, ExpiresAt: ss.now().Add(ss.expiry).Unix()}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := ss.kv.Put(sessionKeyPrefix+token, string(b)); err != nil {
		logger.Error("save_session_failed", "error", err)
		return err
	}
	return nil
}
