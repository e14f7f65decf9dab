package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoIdentity is raised when a mutating operation runs without an author
// identity bound to the gateway. Callers should configure a user first.
var ErrNoIdentity = errors.New("no current user: configure an author name and email")

// Identity is the author bound to every commit the gateway records.
type Identity struct {
	Name  string
	Email string
}

// CommandError is raised whenever the git binary exits non-zero. It carries
// enough context for the caller to decide whether the failure is worth
// surfacing verbatim; no operation is retried automatically (git operations
// are not idempotent to blindly retry).
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = fmt.Sprintf("exit code %d", e.ExitCode)
	}
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), msg)
}

// Gateway executes git against repository paths through a single-worker
// FIFO queue. All operations across the process are totally ordered by the
// queue, regardless of which repository they target.
type Gateway struct {
	bin      string
	lfs      bool
	identity Identity
	queue    *queue
}

// Options configures a Gateway.
type Options struct {
	// Binary is the git executable to invoke. Defaults to "git".
	Binary string
	// LFS enables large-file tracking for the binary payload directory on Init.
	LFS bool
	// Identity is the author bound to repositories on Init and Clone.
	// Left zero, every mutating operation fails with ErrNoIdentity.
	Identity Identity
}

// NewGateway creates a Gateway and starts its worker. The caller must call
// Close when done.
func NewGateway(opts Options) *Gateway {
	bin := opts.Binary
	if bin == "" {
		bin = "git"
	}
	return &Gateway{
		bin:      bin,
		lfs:      opts.LFS,
		identity: opts.Identity,
		queue:    newQueue(),
	}
}

// Close drains the queue and stops the worker.
func (g *Gateway) Close() {
	g.queue.close()
}

// run executes git in dir through the queue and returns captured stdout.
func (g *Gateway) run(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := g.runBytes(ctx, dir, args...)
	return string(out), err
}

// runBytes is run without the string conversion, for binary blob content.
func (g *Gateway) runBytes(ctx context.Context, dir string, args ...string) ([]byte, error) {
	type result struct {
		out []byte
		err error
	}
	ch := make(chan result, 1)
	if err := g.queue.submit(func() {
		out, err := g.exec(ctx, dir, args...)
		ch <- result{out, err}
	}); err != nil {
		return nil, err
	}
	r := <-ch
	return r.out, r.err
}

// exec runs the git binary directly. Only the queue worker calls this.
func (g *Gateway) exec(ctx context.Context, dir string, args ...string) ([]byte, error) {
	full := args
	if dir != "" {
		full = append([]string{"-C", dir}, args...)
	}
	cmd := exec.CommandContext(ctx, g.bin, full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		code := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		return nil, &CommandError{
			Args:     args,
			ExitCode: code,
			Stderr:   stderr.String(),
		}
	}
	return stdout.Bytes(), nil
}

// Init creates an empty repository at path with the given initial branch,
// binds the configured identity, and enables LFS tracking for the binary
// payload directory when configured.
func (g *Gateway) Init(ctx context.Context, path string, initialBranch string) error {
	if !g.HasIdentity() {
		return ErrNoIdentity
	}
	args := []string{"init"}
	if initialBranch != "" {
		args = append(args, "--initial-branch", initialBranch)
	}
	if _, err := g.run(ctx, path, args...); err != nil {
		return err
	}
	if err := g.bindIdentity(ctx, path); err != nil {
		return err
	}
	if g.lfs {
		if _, err := g.run(ctx, path, "lfs", "track", "lfs/**"); err != nil {
			return err
		}
	}
	return nil
}

// CloneOptions configures Clone.
type CloneOptions struct {
	Branch       string
	Depth        int
	SingleBranch bool
}

// Clone materializes a repository from url at path, then binds the
// configured identity so subsequent commits carry the local author.
func (g *Gateway) Clone(ctx context.Context, url, path string, opts CloneOptions) error {
	if !g.HasIdentity() {
		return ErrNoIdentity
	}
	args := []string{"clone"}
	if opts.Branch != "" {
		args = append(args, "--branch", opts.Branch)
	}
	if opts.Depth > 0 {
		args = append(args, "--depth", fmt.Sprintf("%d", opts.Depth))
	}
	if opts.SingleBranch {
		args = append(args, "--single-branch")
	}
	args = append(args, url, path)
	if _, err := g.run(ctx, "", args...); err != nil {
		return err
	}
	return g.bindIdentity(ctx, path)
}

func (g *Gateway) bindIdentity(ctx context.Context, path string) error {
	if g.identity.Name == "" || g.identity.Email == "" {
		return nil
	}
	if _, err := g.run(ctx, path, "config", "user.name", g.identity.Name); err != nil {
		return err
	}
	_, err := g.run(ctx, path, "config", "user.email", g.identity.Email)
	return err
}

// HasIdentity reports whether an author identity is bound to the gateway.
func (g *Gateway) HasIdentity() bool {
	return g.identity.Name != "" && g.identity.Email != ""
}

// Add stages the given files in the repository at path. Deleted paths are
// staged as removals.
func (g *Gateway) Add(ctx context.Context, path string, files ...string) error {
	args := append([]string{"add", "--"}, files...)
	_, err := g.run(ctx, path, args...)
	return err
}

// Commit records the staged changes with the given message. It fails with
// ErrNoIdentity when no author is bound. Empty commits are allowed: the
// squash of an unchanged upgrade branch stages nothing, and the upgrade
// marker commit must still be recorded.
func (g *Gateway) Commit(ctx context.Context, path, message string) error {
	if !g.HasIdentity() {
		return ErrNoIdentity
	}
	_, err := g.run(ctx, path, "commit", "--allow-empty", "--message", message)
	return err
}

// CommitFiles stages files and records them as a single commit inside one
// queued unit, so two concurrent callers' stage/commit pairs can never
// interleave into a combined or empty commit.
func (g *Gateway) CommitFiles(ctx context.Context, path, message string, files ...string) error {
	if !g.HasIdentity() {
		return ErrNoIdentity
	}
	type result struct{ err error }
	ch := make(chan result, 1)
	if err := g.queue.submit(func() {
		addArgs := append([]string{"add", "--"}, files...)
		if _, err := g.exec(ctx, path, addArgs...); err != nil {
			ch <- result{err}
			return
		}
		_, err := g.exec(ctx, path, "commit", "--message", message)
		ch <- result{err}
	}); err != nil {
		return err
	}
	return (<-ch).err
}

// Reset moves HEAD (and, for ModeHard, the working tree) to ref.
func (g *Gateway) Reset(ctx context.Context, path string, mode ResetMode, ref string) error {
	_, err := g.run(ctx, path, "reset", "--"+string(mode), ref)
	return err
}

// ResetMode selects the reset behavior.
type ResetMode string

const (
	ResetSoft ResetMode = "soft"
	ResetHard ResetMode = "hard"
)

// ShowFileAtCommit reads the content of file as of hash without touching
// the working tree. This underlies time-travel reads.
func (g *Gateway) ShowFileAtCommit(ctx context.Context, path, file, hash string) ([]byte, error) {
	return g.runBytes(ctx, path, "show", hash+":"+file)
}

// Fetch updates remote-tracking references from origin.
func (g *Gateway) Fetch(ctx context.Context, path string) error {
	_, err := g.run(ctx, path, "fetch")
	return err
}

// RefExists reports whether ref resolves to a commit. A missing
// origin/<branch> means the branch has never been pushed.
func (g *Gateway) RefExists(ctx context.Context, path, ref string) (bool, error) {
	_, err := g.run(ctx, path, "rev-parse", "--verify", "--quiet", ref)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Pull fetches origin's current branch and integrates it. The branch is
// named explicitly so freshly cloned-from or newly added remotes work
// without upstream tracking configured.
func (g *Gateway) Pull(ctx context.Context, path string) error {
	type result struct{ err error }
	ch := make(chan result, 1)
	if err := g.queue.submit(func() {
		out, err := g.exec(ctx, path, "branch", "--show-current")
		if err != nil {
			ch <- result{err}
			return
		}
		branch := strings.TrimSpace(string(out))
		_, err = g.exec(ctx, path, "pull", "origin", branch)
		ch <- result{err}
	}); err != nil {
		return err
	}
	return (<-ch).err
}

// PushOptions configures Push.
type PushOptions struct {
	All   bool
	Force bool
}

// Push updates the remote with local commits. All-branch pushes set
// upstream tracking so later pulls resolve.
func (g *Gateway) Push(ctx context.Context, path string, opts PushOptions) error {
	args := []string{"push"}
	if opts.Force {
		args = append(args, "--force")
	}
	if opts.All {
		args = append(args, "--all", "--set-upstream", "origin")
	}
	_, err := g.run(ctx, path, args...)
	return err
}

// MergeSquash stages the combined changes of branch onto the current branch
// without committing; the caller records the squash commit.
func (g *Gateway) MergeSquash(ctx context.Context, path, branch string) error {
	_, err := g.run(ctx, path, "merge", "--squash", branch)
	return err
}
