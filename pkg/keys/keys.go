// Package keys converts logical post paths into fixed-width storage keys.
//
// A post path is a sequence of alphanumeric characters, one per reply
// level; the root post is the empty path. Because the store offers only
// exact-key lookup and lexicographic prefix scans, paths are encoded
// right-anchored into a fixed 512-character key by left-padding with
// spaces. Space sorts before every valid path character and never appears
// inside a path, so no encoded path is a false prefix of an unrelated one
// and sibling keys sort by their appended character.
//
// Encode(p, 0) is the exact key for p. Encode(p, 1) drops one leading pad
// position and is used as a scan prefix: the keys matching it are exactly
// the direct children of p (plus the all-pad root key itself when p is the
// root, which scanners must skip).
package keys

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// KeyWidth is the fixed width of every storage key.
	KeyWidth = 512
	// Pad is the filler character used to left-pad paths. It is
	// guaranteed not to appear in any valid path.
	Pad = ' '
)

// ErrPathTooLong is returned when a path (plus offset) exceeds KeyWidth.
var ErrPathTooLong = errors.New("keys: path exceeds maximum length")

// Encode left-pads path to KeyWidth-offset characters. offset 0 yields
// the exact-match key; offset 1 yields the direct-children scan prefix.
func Encode(path string, offset int) (string, error) {
	if len(path)+offset > KeyWidth {
		return "", ErrPathTooLong
	}
	return strings.Repeat(string(Pad), KeyWidth-len(path)-offset) + path, nil
}

// Decode strips the leading pad from a storage key, recovering the path.
func Decode(key string) string {
	return strings.TrimLeft(key, string(Pad))
}

// IsRootKey reports whether key is the all-pad key of the root post.
func IsRootKey(key string) bool {
	return strings.TrimLeft(key, string(Pad)) == ""
}

// Parent returns the path with its last character removed. The root path
// is its own parent.
func Parent(path string) string {
	if path == "" {
		return ""
	}
	return path[:len(path)-1]
}

// ValidPathChar reports whether c may be appended to a path by a reply.
func ValidPathChar(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// ValidatePath checks that every character of path is in the reply
// alphabet and that the path fits in a storage key.
func ValidatePath(path string) error {
	if len(path) > KeyWidth {
		return ErrPathTooLong
	}
	for _, c := range path {
		if !ValidPathChar(c) {
			return fmt.Errorf("keys: invalid path character %q", c)
		}
	}
	return nil
}
