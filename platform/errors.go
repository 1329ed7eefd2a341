package platform

import "errors"

var (
	// ErrInvalidHandle is returned when a handle is blank, too long, or contains whitespace.
	ErrInvalidHandle = errors.New("socialmedia: invalid handle")

	// ErrHandleNotUnique is returned when a handle is already used by a live account.
	ErrHandleNotUnique = errors.New("socialmedia: handle is not unique")

	// ErrHandleNotFound is returned when a handle does not match any live account.
	ErrHandleNotFound = errors.New("socialmedia: handle not recognised")

	// ErrAccountNotFound is returned when an account ID does not match any live account.
	ErrAccountNotFound = errors.New("socialmedia: account ID not recognised")

	// ErrInvalidPost is returned when a message is blank or too long.
	ErrInvalidPost = errors.New("socialmedia: invalid post message")

	// ErrPostNotFound is returned when a post ID is 0 or does not match any post.
	ErrPostNotFound = errors.New("socialmedia: post ID not recognised")

	// ErrNotActionable is returned when an operation is not permitted on the post's kind
	// (endorsing or commenting on an endorsement, listing an endorsement's children).
	ErrNotActionable = errors.New("socialmedia: post is not actionable")

	// ErrCorruptSnapshot is returned by Restore when a snapshot has dangling references.
	ErrCorruptSnapshot = errors.New("socialmedia: corrupt snapshot")
)
