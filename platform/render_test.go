package platform_test

import (
	"errors"
	"testing"

	"github.com/jacentio/socialmedia/platform"
)

func TestShowAccount(t *testing.T) {
	p := newPlatform()
	if _, err := p.CreateAccount("alice", "hello there"); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	mustCreateAccount(t, p, "bob")
	postID := mustCreatePost(t, p, "bob", "hi")
	mustCreatePost(t, p, "alice", "mine")
	if _, err := p.EndorsePost("alice", postID); err != nil {
		t.Fatalf("EndorsePost failed: %v", err)
	}

	got, err := p.ShowAccount("alice")
	if err != nil {
		t.Fatalf("ShowAccount failed: %v", err)
	}

	expected := "ID: 1\nHandle: alice\nDescription: hello there\nPost count: 2\nEndorse count: 1"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestShowAccount_EmptyDescription(t *testing.T) {
	p := newPlatform()
	mustCreateAccount(t, p, "alice")

	got, err := p.ShowAccount("alice")
	if err != nil {
		t.Fatalf("ShowAccount failed: %v", err)
	}

	expected := "ID: 1\nHandle: alice\nDescription: \nPost count: 0\nEndorse count: 0"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestShowAccount_NotFound(t *testing.T) {
	p := newPlatform()

	if _, err := p.ShowAccount("ghost"); !errors.Is(err, platform.ErrHandleNotFound) {
		t.Errorf("expected ErrHandleNotFound, got %v", err)
	}
}

func TestShowIndividualPost(t *testing.T) {
	p := newPlatform()
	mustCreateAccount(t, p, "alice")
	mustCreateAccount(t, p, "bob")
	postID := mustCreatePost(t, p, "alice", "first post")
	if _, err := p.EndorsePost("bob", postID); err != nil {
		t.Fatalf("EndorsePost failed: %v", err)
	}
	if _, err := p.CommentPost("bob", postID, "nice"); err != nil {
		t.Fatalf("CommentPost failed: %v", err)
	}

	got, err := p.ShowIndividualPost(postID)
	if err != nil {
		t.Fatalf("ShowIndividualPost failed: %v", err)
	}

	expected := "ID: 1\nAccount: alice\nNo. endorsements: 1 | No. comments: 1\nfirst post"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestShowIndividualPost_Endorsement(t *testing.T) {
	p := newPlatform()
	mustCreateAccount(t, p, "alice")
	mustCreateAccount(t, p, "bob")
	postID := mustCreatePost(t, p, "alice", "worth sharing")
	endorsementID, err := p.EndorsePost("bob", postID)
	if err != nil {
		t.Fatalf("EndorsePost failed: %v", err)
	}

	got, err := p.ShowIndividualPost(endorsementID)
	if err != nil {
		t.Fatalf("ShowIndividualPost failed: %v", err)
	}

	if got != "EP@bob: worth sharing" {
		t.Errorf("expected %q, got %q", "EP@bob: worth sharing", got)
	}
}

func TestShowIndividualPost_NotFound(t *testing.T) {
	p := newPlatform()

	for _, id := range []int{0, 1, -1} {
		if _, err := p.ShowIndividualPost(id); !errors.Is(err, platform.ErrPostNotFound) {
			t.Errorf("id %d: expected ErrPostNotFound, got %v", id, err)
		}
	}
}

func TestShowPostChildrenDetails(t *testing.T) {
	p := newPlatform()
	mustCreateAccount(t, p, "alice")
	mustCreateAccount(t, p, "bob")
	root := mustCreatePost(t, p, "alice", "root")
	c1, err := p.CommentPost("bob", root, "c1")
	if err != nil {
		t.Fatalf("CommentPost failed: %v", err)
	}
	if _, err := p.CommentPost("alice", c1, "c2"); err != nil {
		t.Fatalf("CommentPost failed: %v", err)
	}
	if _, err := p.CommentPost("bob", root, "c3"); err != nil {
		t.Fatalf("CommentPost failed: %v", err)
	}

	got, err := p.ShowPostChildrenDetails(root)
	if err != nil {
		t.Fatalf("ShowPostChildrenDetails failed: %v", err)
	}

	expected := "ID: 1\nAccount: alice\nNo. endorsements: 0 | No. comments: 2\nroot" +
		"\n|" +
		"\n| > ID: 2" +
		"\n\tAccount: bob" +
		"\n\tNo. endorsements: 0 | No. comments: 1" +
		"\n\tc1" +
		"\n\t|" +
		"\n\t| > ID: 3" +
		"\n\t\tAccount: alice" +
		"\n\t\tNo. endorsements: 0 | No. comments: 0" +
		"\n\t\tc2" +
		"\n|" +
		"\n| > ID: 4" +
		"\n\tAccount: bob" +
		"\n\tNo. endorsements: 0 | No. comments: 0" +
		"\n\tc3"
	if got != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestShowPostChildrenDetails_NoComments(t *testing.T) {
	p := newPlatform()
	mustCreateAccount(t, p, "alice")
	postID := mustCreatePost(t, p, "alice", "alone")

	tree, err := p.ShowPostChildrenDetails(postID)
	if err != nil {
		t.Fatalf("ShowPostChildrenDetails failed: %v", err)
	}
	single, err := p.ShowIndividualPost(postID)
	if err != nil {
		t.Fatalf("ShowIndividualPost failed: %v", err)
	}

	if tree != single {
		t.Errorf("expected tree of a post without comments to equal its summary, got %q", tree)
	}
}

func TestShowPostChildrenDetails_RedactedComment(t *testing.T) {
	p := newPlatform()
	mustCreateAccount(t, p, "alice")
	mustCreateAccount(t, p, "bob")
	root := mustCreatePost(t, p, "alice", "root")
	c1, err := p.CommentPost("bob", root, "regret")
	if err != nil {
		t.Fatalf("CommentPost failed: %v", err)
	}
	if _, err := p.CommentPost("alice", c1, "reply"); err != nil {
		t.Fatalf("CommentPost failed: %v", err)
	}
	if err := p.DeletePost(c1); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}

	got, err := p.ShowPostChildrenDetails(root)
	if err != nil {
		t.Fatalf("ShowPostChildrenDetails failed: %v", err)
	}

	expected := "ID: 1\nAccount: alice\nNo. endorsements: 0 | No. comments: 1\nroot" +
		"\n|" +
		"\n| > ID: 0" +
		"\n\tAccount: bob" +
		"\n\tNo. endorsements: 0 | No. comments: 1" +
		"\n\t" + platform.DefaultConfig().RemovedMessage +
		"\n\t|" +
		"\n\t| > ID: 3" +
		"\n\t\tAccount: alice" +
		"\n\t\tNo. endorsements: 0 | No. comments: 0" +
		"\n\t\treply"
	if got != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestShowPostChildrenDetails_Endorsement(t *testing.T) {
	p := newPlatform()
	mustCreateAccount(t, p, "alice")
	postID := mustCreatePost(t, p, "alice", "hello")
	endorsementID, err := p.EndorsePost("alice", postID)
	if err != nil {
		t.Fatalf("EndorsePost failed: %v", err)
	}

	if _, err := p.ShowPostChildrenDetails(endorsementID); !errors.Is(err, platform.ErrNotActionable) {
		t.Errorf("expected ErrNotActionable, got %v", err)
	}
	if _, err := p.ShowPostChildrenDetails(99); !errors.Is(err, platform.ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
}

func TestThread_DepthFirstOrder(t *testing.T) {
	p := newPlatform()
	mustCreateAccount(t, p, "alice")
	root := mustCreatePost(t, p, "alice", "root")
	c1, _ := p.CommentPost("alice", root, "c1")
	c2, _ := p.CommentPost("alice", c1, "c2")
	c3, _ := p.CommentPost("alice", root, "c3")

	thread, err := p.Thread(root)
	if err != nil {
		t.Fatalf("Thread failed: %v", err)
	}

	type visit struct{ depth, id int }
	var got []visit
	for depth, post := range thread {
		got = append(got, visit{depth, post.ID()})
	}

	expected := []visit{{0, root}, {1, c1}, {2, c2}, {1, c3}}
	if len(got) != len(expected) {
		t.Fatalf("expected %d visits, got %d: %v", len(expected), len(got), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("visit %d: expected %v, got %v", i, expected[i], got[i])
		}
	}
}

func TestThread_StopsEarly(t *testing.T) {
	p := newPlatform()
	mustCreateAccount(t, p, "alice")
	root := mustCreatePost(t, p, "alice", "root")
	for range 5 {
		if _, err := p.CommentPost("alice", root, "reply"); err != nil {
			t.Fatalf("CommentPost failed: %v", err)
		}
	}

	thread, err := p.Thread(root)
	if err != nil {
		t.Fatalf("Thread failed: %v", err)
	}

	n := 0
	for range thread {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("expected iteration to stop after 2 posts, got %d", n)
	}
}
