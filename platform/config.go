package platform

// Config holds configuration for the Platform.
type Config struct {
	// MaxHandleLength is the maximum number of characters in a handle.
	// Default: 30
	MaxHandleLength int

	// MaxMessageLength is the maximum number of characters in a post or comment message.
	// Default: 100
	MaxMessageLength int

	// DeletedHandle replaces the handle of a removed account and is rendered as the
	// author of posts whose account no longer exists.
	// Default: "<deleted>"
	DeletedHandle string

	// RemovedMessage replaces the message of a redacted post.
	// Default: "The original content was removed from the system and is no longer available."
	RemovedMessage string
}

const (
	defaultMaxHandleLength  = 30
	defaultMaxMessageLength = 100
	defaultDeletedHandle    = "<deleted>"
	defaultRemovedMessage   = "The original content was removed from the system and is no longer available."
)

// DefaultConfig returns the rules of the reference platform.
func DefaultConfig() Config {
	return Config{
		MaxHandleLength:  defaultMaxHandleLength,
		MaxMessageLength: defaultMaxMessageLength,
		DeletedHandle:    defaultDeletedHandle,
		RemovedMessage:   defaultRemovedMessage,
	}
}

// validate fills zero values with defaults.
func (c *Config) validate() {
	if c.MaxHandleLength < 1 {
		c.MaxHandleLength = defaultMaxHandleLength
	}
	if c.MaxMessageLength < 1 {
		c.MaxMessageLength = defaultMaxMessageLength
	}
	if c.DeletedHandle == "" {
		c.DeletedHandle = defaultDeletedHandle
	}
	if c.RemovedMessage == "" {
		c.RemovedMessage = defaultRemovedMessage
	}
}
