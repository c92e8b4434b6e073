package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrForbidden is returned when the caller is neither owner nor
// collaborator of the note, or attempts an owner-only operation.
var ErrForbidden = errors.New("forbidden: no access to this note")

// DuplicateTitleError is returned when a user creates a second note with
// a title they already use. Uniqueness is per owner and checked only at
// creation time.
type DuplicateTitleError struct {
	Title string
}

func (e *DuplicateTitleError) Error() string {
	return fmt.Sprintf("note with title %q already exists", e.Title)
}

// ImmutableFieldError is returned when an edit attempts to change fields
// that are fixed after creation. Nothing is diffed or written when this
// is returned.
type ImmutableFieldError struct {
	Fields []string
}

func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("field(s) not editable: %s", strings.Join(e.Fields, ", "))
}

// UnknownUserError is returned when a collaborator username does not
// resolve to a registered user. No collaborators are added when this is
// returned.
type UnknownUserError struct {
	Username string
}

func (e *UnknownUserError) Error() string {
	return fmt.Sprintf("user with username %q not found", e.Username)
}
