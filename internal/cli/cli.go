// Package cli maps command-line arguments onto platform operations.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jacentio/socialmedia/platform"
)

// ErrUsage is returned for unknown commands and wrong argument counts.
var ErrUsage = errors.New("usage")

type command struct {
	name    string
	usage   string
	minArgs int
	maxArgs int // -1 for no limit
	mutates bool
	run     func(p *platform.Platform, args []string, w io.Writer) error
}

var commands = []command{
	{"create-account", "<handle> [description...]", 1, -1, true, createAccount},
	{"remove-account", "<handle>", 1, 1, true, removeAccount},
	{"remove-account-id", "<account-id>", 1, 1, true, removeAccountByID},
	{"change-handle", "<old-handle> <new-handle>", 2, 2, true, changeHandle},
	{"update-description", "<handle> <description...>", 2, -1, true, updateDescription},
	{"show-account", "<handle>", 1, 1, false, showAccount},
	{"post", "<handle> <message...>", 2, -1, true, createPost},
	{"endorse", "<handle> <post-id>", 2, 2, true, endorsePost},
	{"comment", "<handle> <post-id> <message...>", 3, -1, true, commentPost},
	{"delete-post", "<post-id>", 1, 1, true, deletePost},
	{"show-post", "<post-id>", 1, 1, false, showPost},
	{"show-thread", "<post-id>", 1, 1, false, showThread},
	{"stats", "", 0, 0, false, stats},
	{"erase", "", 0, 0, true, erase},
}

// Run executes the command named by args[0] against p and writes its output to w.
// It reports whether the platform's state may have changed.
func Run(p *platform.Platform, args []string, w io.Writer) (bool, error) {
	if len(args) == 0 {
		return false, fmt.Errorf("%w: no command given", ErrUsage)
	}
	cmd, ok := lookup(args[0])
	if !ok {
		return false, fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	rest := args[1:]
	if len(rest) < cmd.minArgs || (cmd.maxArgs >= 0 && len(rest) > cmd.maxArgs) {
		return false, fmt.Errorf("%w: %s %s", ErrUsage, cmd.name, cmd.usage)
	}
	if err := cmd.run(p, rest, w); err != nil {
		return false, err
	}
	return cmd.mutates, nil
}

// Usage writes the list of commands to w.
func Usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: socialmedia <command> [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-20s %s\n", cmd.name, cmd.usage)
	}
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a numeric ID", ErrUsage, s)
	}
	return id, nil
}

func createAccount(p *platform.Platform, args []string, w io.Writer) error {
	id, err := p.CreateAccount(args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "created account %d\n", id)
	return nil
}

func removeAccount(p *platform.Platform, args []string, w io.Writer) error {
	if err := p.RemoveAccount(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(w, "removed account %s\n", args[0])
	return nil
}

func removeAccountByID(p *platform.Platform, args []string, w io.Writer) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := p.RemoveAccountByID(id); err != nil {
		return err
	}
	fmt.Fprintf(w, "removed account %d\n", id)
	return nil
}

func changeHandle(p *platform.Platform, args []string, w io.Writer) error {
	if err := p.ChangeAccountHandle(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(w, "renamed %s to %s\n", args[0], args[1])
	return nil
}

func updateDescription(p *platform.Platform, args []string, w io.Writer) error {
	if err := p.UpdateAccountDescription(args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Fprintf(w, "updated %s\n", args[0])
	return nil
}

func showAccount(p *platform.Platform, args []string, w io.Writer) error {
	out, err := p.ShowAccount(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}

func createPost(p *platform.Platform, args []string, w io.Writer) error {
	id, err := p.CreatePost(args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "created post %d\n", id)
	return nil
}

func endorsePost(p *platform.Platform, args []string, w io.Writer) error {
	target, err := parseID(args[1])
	if err != nil {
		return err
	}
	id, err := p.EndorsePost(args[0], target)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "created endorsement %d\n", id)
	return nil
}

func commentPost(p *platform.Platform, args []string, w io.Writer) error {
	target, err := parseID(args[1])
	if err != nil {
		return err
	}
	id, err := p.CommentPost(args[0], target, strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "created comment %d\n", id)
	return nil
}

func deletePost(p *platform.Platform, args []string, w io.Writer) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := p.DeletePost(id); err != nil {
		return err
	}
	fmt.Fprintf(w, "deleted post %d\n", id)
	return nil
}

func showPost(p *platform.Platform, args []string, w io.Writer) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	out, err := p.ShowIndividualPost(id)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}

func showThread(p *platform.Platform, args []string, w io.Writer) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	out, err := p.ShowPostChildrenDetails(id)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}

func stats(p *platform.Platform, _ []string, w io.Writer) error {
	fmt.Fprintf(w, "accounts: %d\n", p.NumberOfAccounts())
	fmt.Fprintf(w, "original posts: %d\n", p.TotalOriginalPosts())
	fmt.Fprintf(w, "endorsements: %d\n", p.TotalEndorsementPosts())
	fmt.Fprintf(w, "comments: %d\n", p.TotalCommentPosts())
	fmt.Fprintf(w, "most endorsements on a post: %d\n", p.MostEndorsedPost())
	fmt.Fprintf(w, "most endorsed account: %d\n", p.MostEndorsedAccount())
	return nil
}

func erase(p *platform.Platform, _ []string, w io.Writer) error {
	p.Erase()
	fmt.Fprintln(w, "erased")
	return nil
}
