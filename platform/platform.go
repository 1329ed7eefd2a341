package platform

import (
	"fmt"
	"log/slog"
	"slices"
)

// Platform is the aggregate root: it owns every account and the central post table
// and enforces all cross-entity rules. A Platform is not safe for concurrent use.
type Platform struct {
	config   Config
	registry *Registry
	logger   *slog.Logger
	ids      IDAllocator

	// accounts are kept in creation order.
	accounts []*Account

	// posts is keyed by Ref, so tombstones (ID 0) keep distinct entries.
	posts map[int]*Post
}

// New creates an empty Platform with the default relationship registry.
func New(config Config) *Platform {
	return NewWithRegistry(config, DefaultRegistry())
}

// NewWithRegistry creates an empty Platform with a custom relationship registry.
func NewWithRegistry(config Config, registry *Registry) *Platform {
	config.validate()
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Platform{
		config:   config,
		registry: registry,
		logger:   slog.Default(),
		posts:    make(map[int]*Post),
	}
}

// SetLogger sets the logger used for cascade diagnostics. A nil logger restores slog.Default().
func (p *Platform) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	p.logger = logger
}

// Config returns the platform's effective configuration.
func (p *Platform) Config() Config {
	return p.config
}

// Registry returns the relationship registry.
func (p *Platform) Registry() *Registry {
	return p.registry
}

// CreateAccount creates an account and returns its ID. A blank description is
// stored as empty.
func (p *Platform) CreateAccount(handle, description string) (int, error) {
	if p.accountByHandle(handle) != nil {
		return 0, fmt.Errorf("%w: %q", ErrHandleNotUnique, handle)
	}
	acc, err := newAccount(&p.ids, p.config, handle, description)
	if err != nil {
		return 0, err
	}
	p.accounts = append(p.accounts, acc)

	p.logger.Debug("account created", "accountID", acc.id, "handle", acc.handle)
	return acc.id, nil
}

// RemoveAccountByID removes the account with the given ID and all of its posts.
func (p *Platform) RemoveAccountByID(id int) error {
	acc := p.accountByID(id)
	if acc == nil {
		return fmt.Errorf("%w: %d", ErrAccountNotFound, id)
	}
	p.removeAccount(acc)
	return nil
}

// RemoveAccount removes the account with the given handle and all of its posts.
func (p *Platform) RemoveAccount(handle string) error {
	acc := p.accountByHandle(handle)
	if acc == nil {
		return fmt.Errorf("%w: %q", ErrHandleNotFound, handle)
	}
	p.removeAccount(acc)
	return nil
}

// removeAccount deletes the account's posts newest first, then tombstones the
// account and drops it from the collection.
func (p *Platform) removeAccount(acc *Account) {
	refs := slices.Clone(acc.posts)
	deleted := 0
	for i := len(refs) - 1; i >= 0; i-- {
		// Earlier deletions may already have detached or redacted this post.
		post, ok := p.posts[refs[i]]
		if !ok || post.IsRedacted() {
			continue
		}
		p.deletePost(post)
		deleted++
	}

	handle := acc.handle
	acc.handle = p.config.DeletedHandle
	acc.description = ""
	p.accounts = slices.DeleteFunc(p.accounts, func(a *Account) bool { return a == acc })

	p.logger.Debug("account removed",
		"accountID", acc.id,
		"handle", handle,
		"postsDeleted", deleted,
	)
}

// ChangeAccountHandle renames an account. The account keeps its ID.
func (p *Platform) ChangeAccountHandle(oldHandle, newHandle string) error {
	acc := p.accountByHandle(oldHandle)
	if acc == nil {
		return fmt.Errorf("%w: %q", ErrHandleNotFound, oldHandle)
	}
	if newHandle == oldHandle {
		return nil
	}
	if p.accountByHandle(newHandle) != nil {
		return fmt.Errorf("%w: %q", ErrHandleNotUnique, newHandle)
	}
	if err := ValidateHandle(newHandle, p.config.MaxHandleLength); err != nil {
		return err
	}
	acc.handle = newHandle
	return nil
}

// UpdateAccountDescription replaces an account's description. A blank description
// is ignored and the previous one is kept.
func (p *Platform) UpdateAccountDescription(handle, description string) error {
	acc := p.accountByHandle(handle)
	if acc == nil {
		return fmt.Errorf("%w: %q", ErrHandleNotFound, handle)
	}
	if isBlank(description) {
		p.logger.Debug("blank description ignored", "accountID", acc.id)
		return nil
	}
	acc.description = description
	return nil
}

// Account returns the live account with the given handle.
func (p *Platform) Account(handle string) (*Account, error) {
	acc := p.accountByHandle(handle)
	if acc == nil {
		return nil, fmt.Errorf("%w: %q", ErrHandleNotFound, handle)
	}
	return acc, nil
}

// AccountByID returns the live account with the given ID.
func (p *Platform) AccountByID(id int) (*Account, error) {
	acc := p.accountByID(id)
	if acc == nil {
		return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, id)
	}
	return acc, nil
}

// Accounts returns the live accounts in creation order.
func (p *Platform) Accounts() []*Account {
	return slices.Clone(p.accounts)
}

// Erase removes every account and post and resets both ID counters.
func (p *Platform) Erase() {
	for _, acc := range p.accounts {
		acc.posts = nil
	}
	p.accounts = nil
	p.posts = make(map[int]*Post)
	p.ids.Reset()

	p.logger.Debug("platform erased")
}

func (p *Platform) accountByHandle(handle string) *Account {
	for _, acc := range p.accounts {
		if acc.handle == handle {
			return acc
		}
	}
	return nil
}

func (p *Platform) accountByID(id int) *Account {
	for _, acc := range p.accounts {
		if acc.id == id {
			return acc
		}
	}
	return nil
}

// handleOf returns the author's handle, or the deleted marker once the account is gone.
func (p *Platform) handleOf(accountID int) string {
	if acc := p.accountByID(accountID); acc != nil {
		return acc.handle
	}
	return p.config.DeletedHandle
}
