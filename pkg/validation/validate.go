// Package validation checks user-supplied input before it reaches the
// stores.
package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/TheGoodall/forum/pkg/keys"
)

// conservative ID validation: letters, digits, dot, underscore, dash, @
// (user IDs are collected from an email field) with a sane upper bound to
// protect DB key shapes.
var userIDRegexp = regexp.MustCompile(`^[A-Za-z0-9@._-]{1,256}$`)

var (
	ErrTitleNotSingleChar = errors.New("validation: reply title must be a single character")
	ErrTitleInvalidChar   = errors.New("validation: reply title must be alphanumeric")
)

// ValidateReplyTitle checks the one-character path segment appended by a
// reply.
func ValidateReplyTitle(title string) error {
	if len(title) != 1 {
		return ErrTitleNotSingleChar
	}
	if !keys.ValidPathChar(rune(title[0])) {
		return ErrTitleInvalidChar
	}
	return nil
}

// ValidateContent enforces the configured content size cap. max <= 0
// disables the cap. The size is checked on the raw submission, before
// escaping.
func ValidateContent(content string, max int64) error {
	if content == "" {
		return errors.New("validation: content must not be empty")
	}
	if max > 0 && int64(len(content)) > max {
		return fmt.Errorf("validation: content exceeds %d bytes", max)
	}
	return nil
}

// ValidateUserID checks a user ID collected from a registration or login
// form.
func ValidateUserID(id string) error {
	if id == "" {
		return errors.New("validation: user id empty")
	}
	if !userIDRegexp.MatchString(id) {
		return fmt.Errorf("validation: invalid user id: %q", id)
	}
	return nil
}

// ValidateUsername checks a display name.
func ValidateUsername(name string) error {
	if name == "" {
		return errors.New("validation: username empty")
	}
	if len(name) > 256 {
		return errors.New("validation: username too long")
	}
	return nil
}
