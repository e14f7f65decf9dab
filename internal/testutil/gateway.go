package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"cs-go/internal/git"
	"cs-go/internal/model"
)

// FakeGateway is an in-memory version-control gateway. It records every
// call and simulates just enough repository state (branches, commits, tags,
// origin) for the lifecycle services, without ever invoking the git binary.
// Explicitly committed files are snapshotted from disk so historical reads
// work.
type FakeGateway struct {
	mu      sync.Mutex
	repos   map[string]*fakeRepo
	counter int

	// Calls records "<method> <path>" in invocation order.
	Calls []string
	// Errs injects an error for a method name ("CommitFiles", "Push", ...).
	Errs map[string]error
}

type fakeRepo struct {
	branch    string
	branches  []string
	commits   []commitRec // newest first
	origin    string
	hasOrigin bool
	tags      map[string]string // tag name -> commit hash
	snapshots map[string]map[string][]byte
	// pushed records, per branch, the head hash at the last push. A branch
	// absent here has no origin/<branch> ref.
	pushed map[string]string
}

type commitRec struct {
	hash    string
	message string
	files   []string
	when    time.Time
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		repos: make(map[string]*fakeRepo),
		Errs:  make(map[string]error),
	}
}

func (g *FakeGateway) record(method, path string) {
	g.Calls = append(g.Calls, method+" "+path)
}

func (g *FakeGateway) fail(method string) error {
	return g.Errs[method]
}

func (g *FakeGateway) repo(path string) (*fakeRepo, error) {
	r, ok := g.repos[path]
	if !ok {
		return nil, fmt.Errorf("not a repository: %s", path)
	}
	return r, nil
}

func (g *FakeGateway) nextHash() string {
	g.counter++
	return fmt.Sprintf("%040d", g.counter)
}

func (g *FakeGateway) Init(_ context.Context, path, initialBranch string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("Init", path)
	if err := g.fail("Init"); err != nil {
		return err
	}
	g.repos[path] = &fakeRepo{
		branch:    initialBranch,
		branches:  []string{initialBranch},
		tags:      make(map[string]string),
		snapshots: make(map[string]map[string][]byte),
		pushed:    make(map[string]string),
	}
	return nil
}

func (g *FakeGateway) Clone(_ context.Context, url, path string, _ git.CloneOptions) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("Clone", path)
	if err := g.fail("Clone"); err != nil {
		return err
	}
	g.repos[path] = &fakeRepo{
		branch:    "work",
		branches:  []string{"work", "production"},
		origin:    url,
		hasOrigin: true,
		tags:      make(map[string]string),
		snapshots: make(map[string]map[string][]byte),
		pushed:    map[string]string{"work": "", "production": ""},
	}
	return nil
}

func (g *FakeGateway) CommitFiles(_ context.Context, path, message string, files ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CommitFiles", path)
	if err := g.fail("CommitFiles"); err != nil {
		return err
	}
	r, err := g.repo(path)
	if err != nil {
		return err
	}

	hash := g.nextHash()
	snap := make(map[string][]byte)
	var committed []string
	for _, f := range files {
		if f == "." {
			// Like git, "." commits only the files present on disk right
			// now; it must not match paths created by later commits.
			filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return err
				}
				rel, rerr := filepath.Rel(path, p)
				if rerr != nil {
					return rerr
				}
				if data, rerr := os.ReadFile(p); rerr == nil {
					snap[rel] = data
					committed = append(committed, rel)
				}
				return nil
			})
			continue
		}
		committed = append(committed, f)
		if data, err := os.ReadFile(filepath.Join(path, f)); err == nil {
			snap[f] = data
		}
	}
	r.snapshots[hash] = snap
	r.commits = append([]commitRec{{
		hash:    hash,
		message: message,
		files:   committed,
		when:    time.Now(),
	}}, r.commits...)
	return nil
}

func (g *FakeGateway) Commit(_ context.Context, path, message string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("Commit", path)
	if err := g.fail("Commit"); err != nil {
		return err
	}
	r, err := g.repo(path)
	if err != nil {
		return err
	}
	r.commits = append([]commitRec{{
		hash:    g.nextHash(),
		message: message,
		when:    time.Now(),
	}}, r.commits...)
	return nil
}

func (g *FakeGateway) Log(_ context.Context, path string, opts git.LogOptions) ([]model.Commit, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("Log", path)
	if err := g.fail("Log"); err != nil {
		return nil, err
	}
	r, err := g.repo(path)
	if err != nil {
		return nil, err
	}

	// Range queries model ahead/behind only: origin/<branch>..HEAD yields
	// the commits past the branch's pushed watermark, the reverse range is
	// empty (the fake holds no remote-side commits).
	if opts.From != "" || opts.To != "" {
		branch, ok := strings.CutPrefix(opts.From, "origin/")
		if !ok {
			return nil, nil
		}
		watermark, pushed := r.pushed[branch]
		var out []model.Commit
		for _, c := range r.commits {
			if pushed && c.hash == watermark {
				break
			}
			out = append(out, model.Commit{
				Hash:      c.hash,
				Message:   c.message,
				Timestamp: c.when,
				Tag:       g.tagFor(r, c.hash),
			})
		}
		return out, nil
	}

	var out []model.Commit
	for _, c := range r.commits {
		if opts.File != "" && !slices.Contains(c.files, opts.File) && !slices.Contains(c.files, ".") {
			continue
		}
		out = append(out, model.Commit{
			Hash:      c.hash,
			Message:   c.message,
			Timestamp: c.when,
			Tag:       g.tagFor(r, c.hash),
		})
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func (g *FakeGateway) tagFor(r *fakeRepo, hash string) string {
	for name, h := range r.tags {
		if h == hash {
			return name
		}
	}
	return ""
}

func (g *FakeGateway) Branches(_ context.Context, path string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("Branches", path)
	r, err := g.repo(path)
	if err != nil {
		return nil, err
	}
	return slices.Clone(r.branches), nil
}

func (g *FakeGateway) CurrentBranch(_ context.Context, path string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CurrentBranch", path)
	r, err := g.repo(path)
	if err != nil {
		return "", err
	}
	return r.branch, nil
}

func (g *FakeGateway) SwitchBranch(_ context.Context, path, name string, create bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("SwitchBranch "+name, path)
	if err := g.fail("SwitchBranch"); err != nil {
		return err
	}
	r, err := g.repo(path)
	if err != nil {
		return err
	}
	if !slices.Contains(r.branches, name) {
		if !create {
			return fmt.Errorf("no such branch: %s", name)
		}
		r.branches = append(r.branches, name)
	} else if create {
		return fmt.Errorf("branch already exists: %s", name)
	}
	r.branch = name
	return nil
}

func (g *FakeGateway) DeleteBranch(_ context.Context, path, name string, _ bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("DeleteBranch "+name, path)
	r, err := g.repo(path)
	if err != nil {
		return err
	}
	if r.branch == name {
		return fmt.Errorf("cannot delete the current branch: %s", name)
	}
	i := slices.Index(r.branches, name)
	if i < 0 {
		return fmt.Errorf("no such branch: %s", name)
	}
	r.branches = slices.Delete(r.branches, i, i+1)
	return nil
}

func (g *FakeGateway) HasOrigin(_ context.Context, path string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("HasOrigin", path)
	r, err := g.repo(path)
	if err != nil {
		return false, err
	}
	return r.hasOrigin, nil
}

func (g *FakeGateway) AddOrigin(_ context.Context, path, url string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("AddOrigin", path)
	r, err := g.repo(path)
	if err != nil {
		return err
	}
	if r.hasOrigin {
		return fmt.Errorf("remote origin already exists")
	}
	r.origin = url
	r.hasOrigin = true
	return nil
}

func (g *FakeGateway) SetOriginURL(_ context.Context, path, url string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("SetOriginURL", path)
	r, err := g.repo(path)
	if err != nil {
		return err
	}
	if !r.hasOrigin {
		return fmt.Errorf("no such remote: origin")
	}
	r.origin = url
	return nil
}

func (g *FakeGateway) GetOriginURL(_ context.Context, path string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("GetOriginURL", path)
	r, err := g.repo(path)
	if err != nil {
		return "", err
	}
	if !r.hasOrigin {
		return "", fmt.Errorf("no such remote: origin")
	}
	return r.origin, nil
}

func (g *FakeGateway) Fetch(_ context.Context, path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("Fetch", path)
	return g.fail("Fetch")
}

func (g *FakeGateway) Pull(_ context.Context, path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("Pull", path)
	return g.fail("Pull")
}

func (g *FakeGateway) Push(_ context.Context, path string, opts git.PushOptions) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("Push", path)
	if err := g.fail("Push"); err != nil {
		return err
	}
	r, err := g.repo(path)
	if err != nil {
		return err
	}
	head := ""
	if len(r.commits) > 0 {
		head = r.commits[0].hash
	}
	if opts.All {
		for _, b := range r.branches {
			r.pushed[b] = head
		}
	} else {
		r.pushed[r.branch] = head
	}
	return nil
}

func (g *FakeGateway) RefExists(_ context.Context, path, ref string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("RefExists "+ref, path)
	if err := g.fail("RefExists"); err != nil {
		return false, err
	}
	r, err := g.repo(path)
	if err != nil {
		return false, err
	}
	if branch, ok := strings.CutPrefix(ref, "origin/"); ok {
		_, pushed := r.pushed[branch]
		return pushed, nil
	}
	return true, nil
}

func (g *FakeGateway) CreateTag(_ context.Context, path, name, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CreateTag "+name, path)
	if err := g.fail("CreateTag"); err != nil {
		return err
	}
	r, err := g.repo(path)
	if err != nil {
		return err
	}
	if _, ok := r.tags[name]; ok {
		return fmt.Errorf("tag already exists: %s", name)
	}
	hash := ""
	if len(r.commits) > 0 {
		hash = r.commits[0].hash
	}
	r.tags[name] = hash
	return nil
}

func (g *FakeGateway) DeleteTag(_ context.Context, path, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("DeleteTag "+name, path)
	r, err := g.repo(path)
	if err != nil {
		return err
	}
	if _, ok := r.tags[name]; !ok {
		return fmt.Errorf("no such tag: %s", name)
	}
	delete(r.tags, name)
	return nil
}

func (g *FakeGateway) Reset(_ context.Context, path string, mode git.ResetMode, ref string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record(fmt.Sprintf("Reset %s %s", mode, ref), path)
	return g.fail("Reset")
}

func (g *FakeGateway) ShowFileAtCommit(_ context.Context, path, file, hash string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("ShowFileAtCommit", path)
	if err := g.fail("ShowFileAtCommit"); err != nil {
		return nil, err
	}
	r, err := g.repo(path)
	if err != nil {
		return nil, err
	}
	snap, ok := r.snapshots[hash]
	if !ok {
		return nil, fmt.Errorf("no such commit: %s", hash)
	}
	data, ok := snap[file]
	if !ok {
		return nil, fmt.Errorf("path %s does not exist in %s", file, hash)
	}
	return data, nil
}

func (g *FakeGateway) MergeSquash(_ context.Context, path, branch string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("MergeSquash "+branch, path)
	return g.fail("MergeSquash")
}

// Commits returns the recorded commit messages for path, newest first.
func (g *FakeGateway) Commits(path string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.repos[path]
	if !ok {
		return nil
	}
	var out []string
	for _, c := range r.commits {
		out = append(out, c.message)
	}
	return out
}

// Tags returns the recorded tag names for path.
func (g *FakeGateway) Tags(path string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.repos[path]
	if !ok {
		return nil
	}
	var out []string
	for name := range r.tags {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
