package persist_test

import (
	"context"
	"testing"

	"github.com/jacentio/socialmedia/persist"
	"github.com/jacentio/socialmedia/platform"
)

// samplePlatform builds a platform holding every post kind, a tombstone and a
// removed account.
func samplePlatform(t *testing.T) *platform.Platform {
	t.Helper()
	p := platform.New(platform.DefaultConfig())

	must := func(_ int, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}
	must(p.CreateAccount("alice", "writes things"))
	must(p.CreateAccount("bob", ""))
	must(p.CreateAccount("gone", ""))
	must(p.CreatePost("alice", "hello world"))   // 1
	must(p.CommentPost("bob", 1, "welcome"))     // 2
	must(p.CommentPost("alice", 2, "thanks"))    // 3
	must(p.EndorsePost("bob", 1))                // 4
	must(p.CreatePost("bob", "second thoughts")) // 5
	must(p.CommentPost("alice", 5, "hmm"))       // 6
	must(p.CreatePost("gone", "leaving soon"))   // 7
	if err := p.DeletePost(5); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if err := p.RemoveAccount("gone"); err != nil {
		t.Fatalf("RemoveAccount failed: %v", err)
	}
	return p
}

// requireSameState fails unless both platforms export identical snapshots.
func requireSameState(t *testing.T, want, got *platform.Platform) {
	t.Helper()
	wantJSON, err := persist.Marshal(want.Snapshot())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	gotJSON, err := persist.Marshal(got.Snapshot())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(wantJSON) != string(gotJSON) {
		t.Fatalf("expected state\n%s\ngot\n%s", wantJSON, gotJSON)
	}
}

// restored loads st into a fresh platform.
func restored(t *testing.T, st persist.Store) *platform.Platform {
	t.Helper()
	p := platform.New(platform.DefaultConfig())
	if err := persist.LoadPlatform(context.Background(), st, p); err != nil {
		t.Fatalf("LoadPlatform failed: %v", err)
	}
	return p
}
