package platform

// NumberOfAccounts returns the number of live accounts.
func (p *Platform) NumberOfAccounts() int {
	return len(p.accounts)
}

// TotalOriginalPosts returns the number of original posts held by live accounts.
func (p *Platform) TotalOriginalPosts() int {
	return p.total(KindOriginal)
}

// TotalEndorsementPosts returns the number of endorsements made by live accounts.
func (p *Platform) TotalEndorsementPosts() int {
	return p.total(KindEndorsement)
}

// TotalCommentPosts returns the number of comments held by live accounts,
// including redacted comments that still anchor replies.
func (p *Platform) TotalCommentPosts() int {
	return p.total(KindComment)
}

// MostEndorsedPost returns the highest endorsement count of any original post, or 0.
func (p *Platform) MostEndorsedPost() int {
	_, count := p.mostEndorsed()
	return count
}

// MostEndorsedAccount returns the ID of the account owning the most endorsed
// original post, or 0 if no original post has been endorsed. Ties go to the
// account created first.
func (p *Platform) MostEndorsedAccount() int {
	acc, _ := p.mostEndorsed()
	if acc == nil {
		return 0
	}
	return acc.id
}

func (p *Platform) mostEndorsed() (*Account, int) {
	var best *Account
	most := 0
	for _, acc := range p.accounts {
		for _, ref := range acc.posts {
			post, ok := p.posts[ref]
			if !ok || post.kind != KindOriginal {
				continue
			}
			if n := len(post.endorsements); n > most {
				most = n
				best = acc
			}
		}
	}
	return best, most
}

func (p *Platform) total(kind Kind) int {
	n := 0
	for _, acc := range p.accounts {
		n += p.countKind(acc, kind)
	}
	return n
}

func (p *Platform) countKind(acc *Account, kind Kind) int {
	n := 0
	for _, ref := range acc.posts {
		if post, ok := p.posts[ref]; ok && post.kind == kind {
			n++
		}
	}
	return n
}
