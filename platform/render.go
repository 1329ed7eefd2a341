package platform

import (
	"fmt"
	"iter"
	"strings"
)

// ShowAccount renders a summary of the account with the given handle.
func (p *Platform) ShowAccount(handle string) (string, error) {
	acc := p.accountByHandle(handle)
	if acc == nil {
		return "", fmt.Errorf("%w: %q", ErrHandleNotFound, handle)
	}
	return p.renderAccount(acc), nil
}

// ShowIndividualPost renders a summary of the post with the given ID.
func (p *Platform) ShowIndividualPost(id int) (string, error) {
	post, err := p.livePost(id)
	if err != nil {
		return "", err
	}
	return p.renderPost(post), nil
}

// ShowPostChildrenDetails renders the post with the given ID followed by its whole
// comment tree.
func (p *Platform) ShowPostChildrenDetails(id int) (string, error) {
	thread, err := p.Thread(id)
	if err != nil {
		return "", err
	}
	return p.renderThread(thread), nil
}

// Thread returns a depth-first, pre-order sequence of (depth, post) pairs starting
// with the post itself at depth 0. Redacted comments are included so the tree
// keeps its shape. The platform must not be modified while the sequence is consumed.
func (p *Platform) Thread(id int) (iter.Seq2[int, *Post], error) {
	root, err := p.livePost(id)
	if err != nil {
		return nil, err
	}
	if !p.registry.Allows(root.kind, KindComment) {
		return nil, fmt.Errorf("%w: %s %d has no children", ErrNotActionable, root.kind, id)
	}
	return func(yield func(int, *Post) bool) {
		p.visit(root, 0, yield)
	}, nil
}

func (p *Platform) visit(post *Post, depth int, yield func(int, *Post) bool) bool {
	if !yield(depth, post) {
		return false
	}
	for _, ref := range post.comments {
		child, ok := p.posts[ref]
		if !ok {
			continue
		}
		if !p.visit(child, depth+1, yield) {
			return false
		}
	}
	return true
}

func (p *Platform) renderAccount(acc *Account) string {
	return fmt.Sprintf("ID: %d\nHandle: %s\nDescription: %s\nPost count: %d\nEndorse count: %d",
		acc.id,
		acc.handle,
		acc.description,
		len(acc.posts),
		p.countKind(acc, KindEndorsement),
	)
}

func (p *Platform) renderPost(post *Post) string {
	if post.kind == KindEndorsement {
		return fmt.Sprintf("EP@%s: %s", p.handleOf(post.author), post.message)
	}
	return fmt.Sprintf("ID: %d\nAccount: %s\nNo. endorsements: %d | No. comments: %d\n%s",
		post.id,
		p.handleOf(post.author),
		len(post.endorsements),
		len(post.comments),
		post.message,
	)
}

// renderThread lays out a thread. A comment at depth d gets a connector line, a
// "| > " marker on its first line, and d tabs on the rest.
func (p *Platform) renderThread(thread iter.Seq2[int, *Post]) string {
	var b strings.Builder
	for depth, post := range thread {
		lines := strings.Split(p.renderPost(post), "\n")
		if depth == 0 {
			b.WriteString(strings.Join(lines, "\n"))
			continue
		}
		outer := strings.Repeat("\t", depth-1)
		inner := strings.Repeat("\t", depth)
		b.WriteString("\n" + outer + "|")
		b.WriteString("\n" + outer + "| > " + lines[0])
		for _, line := range lines[1:] {
			b.WriteString("\n" + inner + line)
		}
	}
	return b.String()
}
