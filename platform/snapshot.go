package platform

import (
	"cmp"
	"fmt"
	"slices"
)

// Snapshot is the complete, serialisable state of a Platform, including the ID
// counters, so that entities created after a restore never collide with restored ones.
type Snapshot struct {
	LastPostID    int             `json:"last_post_id" dynamodbav:"last_post_id"`
	LastAccountID int             `json:"last_account_id" dynamodbav:"last_account_id"`
	Accounts      []AccountRecord `json:"accounts" dynamodbav:"accounts"`
	Posts         []PostRecord    `json:"posts" dynamodbav:"posts"`
}

// AccountRecord is the persisted form of an Account.
type AccountRecord struct {
	ID          int    `json:"id" dynamodbav:"id"`
	Handle      string `json:"handle" dynamodbav:"handle"`
	Description string `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Posts       []int  `json:"posts,omitempty" dynamodbav:"posts,omitempty"`
}

// PostRecord is the persisted form of a Post. Tombstones have ID 0.
type PostRecord struct {
	Ref          int    `json:"ref" dynamodbav:"ref"`
	ID           int    `json:"id" dynamodbav:"id"`
	Kind         Kind   `json:"kind" dynamodbav:"kind"`
	Message      string `json:"message" dynamodbav:"message"`
	AuthorID     int    `json:"author_id" dynamodbav:"author_id"`
	ParentRef    int    `json:"parent_ref,omitempty" dynamodbav:"parent_ref,omitempty"`
	Comments     []int  `json:"comments,omitempty" dynamodbav:"comments,omitempty"`
	Endorsements []int  `json:"endorsements,omitempty" dynamodbav:"endorsements,omitempty"`
}

// Snapshot exports the platform's state. Accounts keep creation order; posts are
// ordered by Ref.
func (p *Platform) Snapshot() *Snapshot {
	s := &Snapshot{
		LastPostID:    p.ids.LastPostID(),
		LastAccountID: p.ids.LastAccountID(),
		Accounts:      make([]AccountRecord, 0, len(p.accounts)),
		Posts:         make([]PostRecord, 0, len(p.posts)),
	}
	for _, acc := range p.accounts {
		s.Accounts = append(s.Accounts, AccountRecord{
			ID:          acc.id,
			Handle:      acc.handle,
			Description: acc.description,
			Posts:       slices.Clone(acc.posts),
		})
	}
	for _, post := range p.posts {
		s.Posts = append(s.Posts, PostRecord{
			Ref:          post.ref,
			ID:           post.id,
			Kind:         post.kind,
			Message:      post.message,
			AuthorID:     post.author,
			ParentRef:    post.parent,
			Comments:     slices.Clone(post.comments),
			Endorsements: slices.Clone(post.endorsements),
		})
	}
	slices.SortFunc(s.Posts, func(a, b PostRecord) int { return cmp.Compare(a.Ref, b.Ref) })
	return s
}

// Restore replaces the platform's state with the snapshot's. The snapshot is
// checked for dangling references first; on error the platform is left untouched.
func (p *Platform) Restore(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrCorruptSnapshot)
	}

	posts := make(map[int]*Post, len(s.Posts))
	for _, rec := range s.Posts {
		if rec.Ref < 1 || rec.Ref > s.LastPostID {
			return fmt.Errorf("%w: post ref %d outside 1..%d", ErrCorruptSnapshot, rec.Ref, s.LastPostID)
		}
		if rec.ID != 0 && rec.ID != rec.Ref {
			return fmt.Errorf("%w: post ref %d has ID %d", ErrCorruptSnapshot, rec.Ref, rec.ID)
		}
		if rec.Kind < KindOriginal || rec.Kind > KindEndorsement {
			return fmt.Errorf("%w: post %d has unknown kind %d", ErrCorruptSnapshot, rec.Ref, rec.Kind)
		}
		if _, dup := posts[rec.Ref]; dup {
			return fmt.Errorf("%w: duplicate post ref %d", ErrCorruptSnapshot, rec.Ref)
		}
		posts[rec.Ref] = &Post{
			ref:          rec.Ref,
			id:           rec.ID,
			kind:         rec.Kind,
			message:      rec.Message,
			author:       rec.AuthorID,
			parent:       rec.ParentRef,
			comments:     slices.Clone(rec.Comments),
			endorsements: slices.Clone(rec.Endorsements),
		}
	}

	for _, post := range posts {
		if err := checkLinks(post, posts, p.registry); err != nil {
			return err
		}
	}

	accounts := make([]*Account, 0, len(s.Accounts))
	handles := make(map[string]bool, len(s.Accounts))
	ids := make(map[int]bool, len(s.Accounts))
	for _, rec := range s.Accounts {
		if rec.ID < 1 || rec.ID > s.LastAccountID {
			return fmt.Errorf("%w: account ID %d outside 1..%d", ErrCorruptSnapshot, rec.ID, s.LastAccountID)
		}
		if ids[rec.ID] || handles[rec.Handle] {
			return fmt.Errorf("%w: duplicate account %d %q", ErrCorruptSnapshot, rec.ID, rec.Handle)
		}
		if rec.Handle == p.config.DeletedHandle {
			return fmt.Errorf("%w: account %d uses the deleted-account marker as its handle", ErrCorruptSnapshot, rec.ID)
		}
		if err := ValidateHandle(rec.Handle, p.config.MaxHandleLength); err != nil {
			return fmt.Errorf("%w: account %d: %v", ErrCorruptSnapshot, rec.ID, err)
		}
		for _, ref := range rec.Posts {
			post, ok := posts[ref]
			if !ok {
				return fmt.Errorf("%w: account %d lists missing post %d", ErrCorruptSnapshot, rec.ID, ref)
			}
			if post.author != rec.ID {
				return fmt.Errorf("%w: account %d lists post %d authored by %d", ErrCorruptSnapshot, rec.ID, ref, post.author)
			}
		}
		ids[rec.ID] = true
		handles[rec.Handle] = true
		accounts = append(accounts, &Account{
			id:          rec.ID,
			handle:      rec.Handle,
			description: rec.Description,
			posts:       slices.Clone(rec.Posts),
		})
	}

	p.accounts = accounts
	p.posts = posts
	p.ids.Restore(s.LastPostID, s.LastAccountID)

	p.logger.Debug("platform restored",
		"accounts", len(accounts),
		"posts", len(posts),
		"lastPostID", s.LastPostID,
		"lastAccountID", s.LastAccountID,
	)
	return nil
}

// checkLinks verifies a post's links in both directions: the parent must list the
// post, and every listed child must point back at it.
func checkLinks(post *Post, posts map[int]*Post, registry *Registry) error {
	if post.IsRedacted() && len(post.endorsements) > 0 {
		return fmt.Errorf("%w: redacted post %d has endorsements", ErrCorruptSnapshot, post.ref)
	}

	switch post.kind {
	case KindOriginal:
		if post.parent != 0 {
			return fmt.Errorf("%w: original post %d has parent %d", ErrCorruptSnapshot, post.ref, post.parent)
		}
	default:
		parent, ok := posts[post.parent]
		if !ok {
			return fmt.Errorf("%w: %s %d references missing post %d", ErrCorruptSnapshot, post.kind, post.ref, post.parent)
		}
		if !registry.Allows(parent.kind, post.kind) {
			return fmt.Errorf("%w: %s %d attached to %s %d", ErrCorruptSnapshot, post.kind, post.ref, parent.kind, parent.ref)
		}
		siblings := parent.comments
		if post.kind == KindEndorsement {
			siblings = parent.endorsements
		}
		if !slices.Contains(siblings, post.ref) {
			return fmt.Errorf("%w: %s %d not listed by post %d", ErrCorruptSnapshot, post.kind, post.ref, parent.ref)
		}
	}
	for _, ref := range post.comments {
		child, ok := posts[ref]
		if !ok || child.kind != KindComment || child.parent != post.ref {
			return fmt.Errorf("%w: post %d lists invalid comment %d", ErrCorruptSnapshot, post.ref, ref)
		}
	}
	for _, ref := range post.endorsements {
		child, ok := posts[ref]
		if !ok || child.kind != KindEndorsement || child.parent != post.ref {
			return fmt.Errorf("%w: post %d lists invalid endorsement %d", ErrCorruptSnapshot, post.ref, ref)
		}
	}
	return nil
}
