package git

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestQueue(t *testing.T) {
	t.Run("executes tasks in submission order", func(t *testing.T) {
		q := newQueue()

		var mu sync.Mutex
		var order []int
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			i := i
			wg.Add(1)
			q.submit(func() {
				defer wg.Done()
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
			})
		}
		wg.Wait()
		q.close()

		for i, got := range order {
			if got != i {
				t.Fatalf("task %d ran at position %d", got, i)
			}
		}
	})

	t.Run("close waits for in-flight tasks", func(t *testing.T) {
		q := newQueue()

		finished := false
		q.submit(func() {
			time.Sleep(20 * time.Millisecond)
			finished = true
		})
		q.close()

		if !finished {
			t.Error("close() returned before the queued task finished")
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		q := newQueue()
		q.close()
		q.close()
	})

	t.Run("submit after close reports ErrClosed", func(t *testing.T) {
		q := newQueue()
		q.close()
		if err := q.submit(func() {}); !errors.Is(err, ErrClosed) {
			t.Errorf("submit() error = %v, want ErrClosed", err)
		}
	})
}

func TestParseLog(t *testing.T) {
	t.Run("parses multiple records", func(t *testing.T) {
		out := "abc123" + logFieldSep + "Ada" + logFieldSep + "ada@example.com" + logFieldSep +
			"2024-03-09T13:45:00+01:00" + logFieldSep + "HEAD -> work" + logFieldSep + "update project" + logRecordSep +
			"\ndef456" + logFieldSep + "Ada" + logFieldSep + "ada@example.com" + logFieldSep +
			"2024-03-08T09:00:00Z" + logFieldSep + "" + logFieldSep + "create project" + logRecordSep

		commits, err := parseLog(out)
		if err != nil {
			t.Fatalf("parseLog() error = %v", err)
		}
		if len(commits) != 2 {
			t.Fatalf("parseLog() returned %d commits, want 2", len(commits))
		}
		if commits[0].Hash != "abc123" || commits[0].Message != "update project" {
			t.Errorf("first commit = %+v", commits[0])
		}
		if commits[0].Timestamp.Location() != time.UTC {
			t.Error("timestamps must be normalized to UTC")
		}
		if commits[1].Hash != "def456" || commits[1].AuthorEmail != "ada@example.com" {
			t.Errorf("second commit = %+v", commits[1])
		}
	})

	t.Run("extracts snapshot tags from decorations", func(t *testing.T) {
		out := "abc123" + logFieldSep + "Ada" + logFieldSep + "ada@example.com" + logFieldSep +
			"2024-03-08T09:00:00Z" + logFieldSep + "HEAD -> work, tag: v0.12.0, origin/work" + logFieldSep + "upgrade" + logRecordSep

		commits, err := parseLog(out)
		if err != nil {
			t.Fatalf("parseLog() error = %v", err)
		}
		if commits[0].Tag != "v0.12.0" {
			t.Errorf("Tag = %q, want %q", commits[0].Tag, "v0.12.0")
		}
	})

	t.Run("preserves field separators absent from messages", func(t *testing.T) {
		// Messages may contain newlines; %s strips them, but a record
		// missing fields must fail loudly rather than misalign.
		if _, err := parseLog("abc123" + logFieldSep + "Ada" + logRecordSep); err == nil {
			t.Error("parseLog() expected error for malformed record")
		}
	})

	t.Run("empty output yields no commits", func(t *testing.T) {
		commits, err := parseLog("")
		if err != nil {
			t.Fatalf("parseLog() error = %v", err)
		}
		if len(commits) != 0 {
			t.Errorf("parseLog() = %v, want empty", commits)
		}
	})
}

func TestValidateBranchName(t *testing.T) {
	valid := []string{"work", "production", "upgrade-4ee09d2a", "feature/nested", "v1.2.3"}
	for _, name := range valid {
		if err := ValidateBranchName(name); err != nil {
			t.Errorf("ValidateBranchName(%q) error = %v", name, err)
		}
	}

	invalid := []string{
		"", "@", "-work", ".work", "/work", "work/", "work.", "work.lock",
		"a..b", "a@{b", "a//b", "has space", "has~tilde", "has^caret",
		"has:colon", "has?q", "has*star", "has[bracket", `has\slash`,
	}
	for _, name := range invalid {
		if err := ValidateBranchName(name); err == nil {
			t.Errorf("ValidateBranchName(%q) expected error", name)
		}
	}
}

func TestCommandError(t *testing.T) {
	err := &CommandError{
		Args:     []string{"commit", "--message", "x"},
		ExitCode: 128,
		Stderr:   "fatal: not a git repository",
	}
	msg := err.Error()
	if msg == "" {
		t.Fatal("Error() returned an empty message")
	}
	for _, want := range []string{"commit", "128", "not a git repository"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestGatewayAgainstGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not installed")
	}
	ctx := context.Background()
	g := NewGateway(Options{Identity: Identity{Name: "Ada", Email: "ada@example.com"}})
	defer g.Close()

	dir := t.TempDir()
	if err := g.Init(ctx, dir, "work"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "project.json"), []byte("{}\n"), 0644); err != nil {
		t.Fatalf("writing project file: %v", err)
	}
	if err := g.CommitFiles(ctx, dir, "create project", "project.json"); err != nil {
		t.Fatalf("CommitFiles() error = %v", err)
	}

	// A squash merge of an unchanged branch stages nothing; the marker
	// commit must still be recorded.
	if err := g.Commit(ctx, dir, "upgrade project to 0.12.0"); err != nil {
		t.Fatalf("Commit() with nothing staged error = %v", err)
	}

	commits, err := g.Log(ctx, dir, LogOptions{})
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("Log() returned %d commits, want 2", len(commits))
	}
	if commits[0].Message != "upgrade project to 0.12.0" {
		t.Errorf("latest commit = %q, want the upgrade marker", commits[0].Message)
	}

	exists, err := g.RefExists(ctx, dir, "origin/work")
	if err != nil {
		t.Fatalf("RefExists(origin/work) error = %v", err)
	}
	if exists {
		t.Error("origin/work must not exist before a push")
	}
	exists, err = g.RefExists(ctx, dir, "work")
	if err != nil {
		t.Fatalf("RefExists(work) error = %v", err)
	}
	if !exists {
		t.Error("the local branch must resolve")
	}
}
