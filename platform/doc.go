// Package platform provides an in-memory social-media data model with cascading
// deletes and redaction.
//
// A [Platform] owns accounts and a central table of posts. Accounts author original
// posts, comments and endorsements; every post variant shares one sequential ID space.
// Relations between entities are stored as IDs, never as object references.
//
// # Key Features
//
//   - Handle validation and uniqueness among live accounts
//   - Shared, per-platform sequential IDs for posts, comments and endorsements
//   - Hard delete of posts without comments, redaction of posts with comments
//   - Cascading account removal, newest post first
//   - Text rendering of accounts, posts and comment trees
//   - Snapshot export and restore for persistence adapters
//
// # Post Kinds
//
// Which kind may be attached under which is decided by a [Registry]:
//
//	original    -> comment, endorsement
//	comment     -> comment, endorsement
//	endorsement -> (nothing)
//
// # Deletion Policy
//
// [Platform.DeletePost] removes a post outright when it has no comments. When it
// has comments the post is redacted instead: its ID becomes 0, its message becomes
// [Config.RemovedMessage] and it stays in the tree so replies keep their parent.
// Endorsements of the post are deleted in both cases. A redacted original leaves
// its author's post list; a redacted comment stays in it.
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrInvalidHandle] - handle is blank, too long, or contains whitespace
//   - [ErrHandleNotUnique] - handle already used by a live account
//   - [ErrHandleNotFound] - handle does not match a live account
//   - [ErrAccountNotFound] - account ID does not match a live account
//   - [ErrInvalidPost] - message is blank or too long
//   - [ErrPostNotFound] - post ID is 0 or unknown
//   - [ErrNotActionable] - operation not permitted on this post kind
//   - [ErrCorruptSnapshot] - snapshot has dangling references
//
// Failed operations never leave partial changes behind.
package platform
