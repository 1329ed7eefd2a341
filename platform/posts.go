package platform

import (
	"fmt"
	"slices"
)

// CreatePost creates an original post authored by handle and returns its ID.
func (p *Platform) CreatePost(handle, message string) (int, error) {
	acc := p.accountByHandle(handle)
	if acc == nil {
		return 0, fmt.Errorf("%w: %q", ErrHandleNotFound, handle)
	}
	post, err := newOriginal(&p.ids, p.config, acc.id, message)
	if err != nil {
		return 0, err
	}
	p.posts[post.ref] = post
	acc.posts = append(acc.posts, post.ref)

	p.logger.Debug("post created", "postID", post.id, "accountID", acc.id)
	return post.id, nil
}

// EndorsePost endorses the post with the given ID on behalf of handle and returns
// the endorsement's ID. The endorsement keeps a copy of the post's current message.
func (p *Platform) EndorsePost(handle string, id int) (int, error) {
	target, err := p.livePost(id)
	if err != nil {
		return 0, err
	}
	if !p.registry.Allows(target.kind, KindEndorsement) {
		return 0, fmt.Errorf("%w: cannot endorse %s %d", ErrNotActionable, target.kind, id)
	}
	acc := p.accountByHandle(handle)
	if acc == nil {
		return 0, fmt.Errorf("%w: %q", ErrHandleNotFound, handle)
	}

	endorsement := newEndorsement(&p.ids, acc.id, target)
	p.posts[endorsement.ref] = endorsement
	target.endorsements = append(target.endorsements, endorsement.ref)
	acc.posts = append(acc.posts, endorsement.ref)

	p.logger.Debug("post endorsed", "postID", id, "endorsementID", endorsement.id, "accountID", acc.id)
	return endorsement.id, nil
}

// CommentPost adds a comment by handle to the post with the given ID and returns
// the comment's ID.
func (p *Platform) CommentPost(handle string, id int, message string) (int, error) {
	acc := p.accountByHandle(handle)
	if acc == nil {
		return 0, fmt.Errorf("%w: %q", ErrHandleNotFound, handle)
	}
	target, err := p.livePost(id)
	if err != nil {
		return 0, err
	}
	if !p.registry.Allows(target.kind, KindComment) {
		return 0, fmt.Errorf("%w: cannot comment on %s %d", ErrNotActionable, target.kind, id)
	}

	comment, err := newComment(&p.ids, p.config, acc.id, target, message)
	if err != nil {
		return 0, err
	}
	p.posts[comment.ref] = comment
	target.comments = append(target.comments, comment.ref)
	acc.posts = append(acc.posts, comment.ref)

	p.logger.Debug("post commented", "postID", id, "commentID", comment.id, "accountID", acc.id)
	return comment.id, nil
}

// DeletePost deletes the post with the given ID.
//
// A post without comments is removed outright. A post with comments is redacted:
// its ID becomes 0 and its message the removal notice, so the comment tree stays
// intact. In both cases the post's endorsements are deleted. A redacted original
// leaves its author's post list; a redacted comment stays in it.
func (p *Platform) DeletePost(id int) error {
	post, err := p.livePost(id)
	if err != nil {
		return err
	}
	p.deletePost(post)
	return nil
}

// Post returns the live post with the given ID.
func (p *Platform) Post(id int) (*Post, error) {
	return p.livePost(id)
}

// PostByRef returns any post still held by the platform, including tombstones.
func (p *Platform) PostByRef(ref int) (*Post, bool) {
	post, ok := p.posts[ref]
	return post, ok
}

// livePost resolves a public ID. Tombstones are never matched because their ID is 0.
func (p *Platform) livePost(id int) (*Post, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: %d", ErrPostNotFound, id)
	}
	post, ok := p.posts[id]
	if !ok || post.id != id {
		return nil, fmt.Errorf("%w: %d", ErrPostNotFound, id)
	}
	return post, nil
}

func (p *Platform) deletePost(post *Post) {
	id := post.id
	endorsements := p.detachEndorsements(post)

	if len(post.comments) == 0 {
		p.hardDelete(post)
		p.logger.Debug("post deleted",
			"postID", id,
			"kind", post.kind.String(),
			"endorsementsRemoved", endorsements,
		)
		return
	}

	p.redact(post)
	p.logger.Debug("post redacted",
		"postID", id,
		"kind", post.kind.String(),
		"comments", len(post.comments),
		"endorsementsRemoved", endorsements,
	)
}

// detachEndorsements deletes every endorsement of post and returns how many there were.
func (p *Platform) detachEndorsements(post *Post) int {
	n := len(post.endorsements)
	for _, ref := range post.endorsements {
		endorsement, ok := p.posts[ref]
		if !ok {
			continue
		}
		p.removeFromAuthor(endorsement)
		delete(p.posts, ref)
	}
	post.endorsements = nil
	return n
}

// hardDelete removes an orphan post from its parent, its author and the post table.
func (p *Platform) hardDelete(post *Post) {
	if parent, ok := p.posts[post.parent]; ok && post.parent != 0 {
		switch post.kind {
		case KindEndorsement:
			parent.endorsements = removeRef(parent.endorsements, post.ref)
		case KindComment:
			parent.comments = removeRef(parent.comments, post.ref)
		}
		p.collectTombstone(parent)
	}
	p.removeFromAuthor(post)
	delete(p.posts, post.ref)
}

// redact turns post into a tombstone in place.
func (p *Platform) redact(post *Post) {
	post.id = 0
	post.message = p.config.RemovedMessage
	if post.kind == KindOriginal {
		p.removeFromAuthor(post)
	}
}

// collectTombstone drops a redacted post once its last comment is gone, then
// repeats the check for its parent. Such a post is no longer reachable by ID and
// anchors nothing.
func (p *Platform) collectTombstone(post *Post) {
	for post.IsRedacted() && len(post.comments) == 0 {
		delete(p.posts, post.ref)
		p.removeFromAuthor(post)
		p.logger.Debug("tombstone collected", "ref", post.ref, "kind", post.kind.String())

		parent, ok := p.posts[post.parent]
		if post.parent == 0 || !ok {
			return
		}
		parent.comments = removeRef(parent.comments, post.ref)
		post = parent
	}
}

func (p *Platform) removeFromAuthor(post *Post) {
	if acc := p.accountByID(post.author); acc != nil {
		acc.posts = removeRef(acc.posts, post.ref)
	}
}

func removeRef(refs []int, ref int) []int {
	return slices.DeleteFunc(refs, func(r int) bool { return r == ref })
}
