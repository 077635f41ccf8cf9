// Package store implements the board's persistence: posts addressed by
// hierarchical path, account records and session records, all over the
// flat kv.Store boundary.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"

	"github.com/TheGoodall/forum/pkg/keys"
	"github.com/TheGoodall/forum/pkg/kv"
	"github.com/TheGoodall/forum/pkg/logger"
	"github.com/TheGoodall/forum/pkg/models"
)

const (
	postKeyPrefix = "post:"

	// ReplyLimit caps how many direct children a single scan returns.
	ReplyLimit = 50
)

var (
	// ErrAlreadyExists is returned when creating a record (post or
	// account) under an occupied key.
	ErrAlreadyExists = errors.New("store: record already exists")
	// ErrParentMissing is returned when replying to a post that does not exist.
	ErrParentMissing = errors.New("store: parent post does not exist")
)

// Child is a direct reply returned by ListDirectChildren, in scan order.
type Child struct {
	Path string
	Post models.Post
}

// PostStore owns the post lifecycle. It holds no state of its own; every
// operation goes straight to the underlying key-value store.
type PostStore struct {
	kv kv.Store
}

// NewPostStore returns a PostStore over the given backend.
func NewPostStore(s kv.Store) *PostStore {
	return &PostStore{kv: s}
}

// Get returns the post stored at path, or kv.ErrNotFound.
func (ps *PostStore) Get(path string) (models.Post, error) {
	var p models.Post
	key, err := keys.Encode(path, 0)
	if err != nil {
		return p, err
	}
	v, err := ps.kv.Get(postKeyPrefix + key)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(v), &p); err != nil {
		return p, fmt.Errorf("invalid post record at %q: %w", path, err)
	}
	return p, nil
}

// Create stores a new post at path. The content is HTML-escaped before it
// is written. It fails with ErrAlreadyExists when the path is occupied,
// keys.ErrPathTooLong when the path does not fit a storage key, and
// ErrParentMissing when a non-root path has no parent post.
//
// The existence checks and the write are separate key operations: two
// concurrent creators of the same path can both pass the check, in which
// case the later write wins silently. The backend offers no conditional
// put, so this race is accepted rather than locked around.
func (ps *PostStore) Create(path, content, authorID string) error {
	if len(path) >= keys.KeyWidth {
		return keys.ErrPathTooLong
	}
	key, err := keys.Encode(path, 0)
	if err != nil {
		return err
	}
	if _, err := ps.Get(path); err == nil {
		return ErrAlreadyExists
	} else if !kv.IsNotFound(err) {
		return err
	}
	if path != "" {
		if _, err := ps.Get(keys.Parent(path)); err != nil {
			if kv.IsNotFound(err) {
				return ErrParentMissing
			}
			return err
		}
	}

	p := models.Post{Author: authorID, Content: html.EscapeString(content)}
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal post: %w", err)
	}
	if err := ps.kv.Put(postKeyPrefix+key, string(b)); err != nil {
		logger.Error("save_post_failed", "path", path, "error", err)
		return err
	}
	logger.Info("post_saved", "path", path, "author", authorID)
	return nil
}

// EnsureRoot creates the board's root post if it is absent. The root has
// no parent and is owned by the given author ID.
func (ps *PostStore) EnsureRoot(content, authorID string) error {
	_, err := ps.Get("")
	if err == nil {
		return nil
	}
	if !kv.IsNotFound(err) {
		return err
	}
	return ps.Create("", content, authorID)
}

// Delete removes the exact post at path. Descendants are left in place;
// orphaned replies stay reachable by direct link only.
func (ps *PostStore) Delete(path string) error {
	key, err := keys.Encode(path, 0)
	if err != nil {
		return err
	}
	if err := ps.kv.Delete(postKeyPrefix + key); err != nil {
		logger.Error("delete_post_failed", "path", path, "error", err)
		return err
	}
	logger.Info("post_deleted", "path", path)
	return nil
}

// ListDirectChildren returns the direct replies of the post at path, in
// the store's key order (ascending by appended character), capped at
// ReplyLimit. The all-pad root key matches the root's own scan prefix and
// is skipped.
func (ps *PostStore) ListDirectChildren(path string) ([]Child, error) {
	prefix, err := keys.Encode(path, 1)
	if err != nil {
		return nil, err
	}
	// over-fetch by one so the skipped root sentinel cannot eat into the cap
	entries, err := ps.kv.ListByPrefix(postKeyPrefix+prefix, ReplyLimit+1)
	if err != nil {
		return nil, err
	}
	var out []Child
	for _, e := range entries {
		if len(out) == ReplyLimit {
			break
		}
		key := e.Key[len(postKeyPrefix):]
		if keys.IsRootKey(key) {
			continue
		}
		var p models.Post
		if err := json.Unmarshal([]byte(e.Value), &p); err != nil {
			return nil, fmt.Errorf("invalid post record at key %q: %w", key, err)
		}
		out = append(out, Child{Path: keys.Decode(key), Post: p})
	}
	return out, nil
}
