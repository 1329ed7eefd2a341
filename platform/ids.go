package platform

// IDAllocator issues sequential identifiers. Posts, comments and endorsements share
// one counter; accounts have their own. Each Platform owns its allocator.
type IDAllocator struct {
	lastPostID    int
	lastAccountID int
}

// NextPostID returns the next post ID (previous + 1).
func (a *IDAllocator) NextPostID() int {
	a.lastPostID++
	return a.lastPostID
}

// NextAccountID returns the next account ID (previous + 1).
func (a *IDAllocator) NextAccountID() int {
	a.lastAccountID++
	return a.lastAccountID
}

// LastPostID returns the most recently issued post ID, or 0 if none.
func (a *IDAllocator) LastPostID() int { return a.lastPostID }

// LastAccountID returns the most recently issued account ID, or 0 if none.
func (a *IDAllocator) LastAccountID() int { return a.lastAccountID }

// Reset returns both counters to 0.
func (a *IDAllocator) Reset() {
	a.lastPostID = 0
	a.lastAccountID = 0
}

// Restore sets both counters, typically from a persisted snapshot.
// Negative values are treated as 0.
func (a *IDAllocator) Restore(lastPostID, lastAccountID int) {
	a.lastPostID = max(lastPostID, 0)
	a.lastAccountID = max(lastAccountID, 0)
}
