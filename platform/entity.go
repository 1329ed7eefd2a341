package platform

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind distinguishes the post variants.
type Kind uint8

const (
	// KindOriginal is a post authored directly by an account.
	KindOriginal Kind = iota + 1

	// KindComment is a reply to an original post or to another comment.
	KindComment

	// KindEndorsement re-shares another post, carrying a copy of its message.
	KindEndorsement
)

// String returns the kind name used in snapshots and log output.
func (k Kind) String() string {
	switch k {
	case KindOriginal:
		return "original"
	case KindComment:
		return "comment"
	case KindEndorsement:
		return "endorsement"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < KindOriginal || k > KindEndorsement {
		return nil, fmt.Errorf("unknown post kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "original":
		*k = KindOriginal
	case "comment":
		*k = KindComment
	case "endorsement":
		*k = KindEndorsement
	default:
		return fmt.Errorf("unknown post kind %q", text)
	}
	return nil
}

// Account is a platform user. Accounts are read-only outside the Platform.
type Account struct {
	id          int
	handle      string
	description string

	// posts holds refs of everything the account authored, in insertion order:
	// originals, comments and endorsements.
	posts []int
}

// ID returns the account's unique ID.
func (a *Account) ID() int { return a.id }

// Handle returns the account's handle.
func (a *Account) Handle() string { return a.handle }

// Description returns the account's description, empty if none.
func (a *Account) Description() string { return a.description }

// PostRefs returns the refs of every post the account authored, in insertion order.
func (a *Account) PostRefs() []int { return slices.Clone(a.posts) }

// Post is an original post, a comment or an endorsement.
type Post struct {
	ref     int
	id      int
	kind    Kind
	message string
	author  int

	// parent is the ref of the commented or endorsed post, 0 for originals.
	parent int

	comments     []int
	endorsements []int
}

// Ref returns the post's stable internal reference. It equals the ID the post was
// created with and does not change when the post is redacted.
func (p *Post) Ref() int { return p.ref }

// ID returns the post's sequential ID, or 0 if the post has been redacted.
func (p *Post) ID() int { return p.id }

// Kind returns the post variant.
func (p *Post) Kind() Kind { return p.kind }

// Message returns the post's message. For endorsements this is the endorsed post's
// message at the time of endorsement.
func (p *Post) Message() string { return p.message }

// AuthorID returns the ID of the account that authored the post.
func (p *Post) AuthorID() int { return p.author }

// ParentRef returns the ref of the commented or endorsed post, 0 for originals.
func (p *Post) ParentRef() int { return p.parent }

// CommentRefs returns refs of the post's direct comments in insertion order.
func (p *Post) CommentRefs() []int { return slices.Clone(p.comments) }

// EndorsementRefs returns refs of the post's endorsements in insertion order.
func (p *Post) EndorsementRefs() []int { return slices.Clone(p.endorsements) }

// NumComments returns the number of direct comments.
func (p *Post) NumComments() int { return len(p.comments) }

// NumEndorsements returns the number of endorsements.
func (p *Post) NumEndorsements() int { return len(p.endorsements) }

// IsRedacted reports whether the post is a tombstone.
func (p *Post) IsRedacted() bool { return p.id == 0 }

// ValidateHandle checks a handle against the blank, length and whitespace rules.
func ValidateHandle(handle string, maxLength int) error {
	if strings.TrimSpace(handle) == "" {
		return fmt.Errorf("%w: handle is blank", ErrInvalidHandle)
	}
	if utf8.RuneCountInString(handle) > maxLength {
		return fmt.Errorf("%w: handle exceeds %d characters", ErrInvalidHandle, maxLength)
	}
	if strings.IndexFunc(handle, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: handle contains whitespace", ErrInvalidHandle)
	}
	return nil
}

// ValidateMessage checks a message against the blank and length rules.
func ValidateMessage(message string, maxLength int) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: message is blank", ErrInvalidPost)
	}
	if utf8.RuneCountInString(message) > maxLength {
		return fmt.Errorf("%w: message exceeds %d characters", ErrInvalidPost, maxLength)
	}
	return nil
}

// isBlank reports whether s is empty or only whitespace.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// newAccount validates the handle and only then allocates an ID.
func newAccount(ids *IDAllocator, cfg Config, handle, description string) (*Account, error) {
	if err := ValidateHandle(handle, cfg.MaxHandleLength); err != nil {
		return nil, err
	}
	acc := &Account{handle: handle}
	if !isBlank(description) {
		acc.description = description
	}
	acc.id = ids.NextAccountID()
	return acc, nil
}

// newOriginal validates the message and allocates the next post ID.
func newOriginal(ids *IDAllocator, cfg Config, author int, message string) (*Post, error) {
	if err := ValidateMessage(message, cfg.MaxMessageLength); err != nil {
		return nil, err
	}
	id := ids.NextPostID()
	return &Post{ref: id, id: id, kind: KindOriginal, message: message, author: author}, nil
}

// newComment validates the message and records the target and author.
func newComment(ids *IDAllocator, cfg Config, author int, target *Post, message string) (*Post, error) {
	if err := ValidateMessage(message, cfg.MaxMessageLength); err != nil {
		return nil, err
	}
	id := ids.NextPostID()
	return &Post{ref: id, id: id, kind: KindComment, message: message, author: author, parent: target.ref}, nil
}

// newEndorsement copies the target's current message.
func newEndorsement(ids *IDAllocator, author int, target *Post) *Post {
	id := ids.NextPostID()
	return &Post{ref: id, id: id, kind: KindEndorsement, message: target.message, author: author, parent: target.ref}
}
