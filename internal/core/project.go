package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"cs-go/internal/git"
	"cs-go/internal/model"
	"cs-go/internal/schema"
)

const (
	// BranchWork is the standing branch for active editing.
	BranchWork = "work"
	// BranchProduction is the standing branch for published state.
	BranchProduction = "production"
)

// gitignore keeps hidden files out of commits except the markers the store
// itself relies on.
const gitignore = ".*\n!.gitignore\n!.gitkeep\n!.gitattributes\n"

// CreateProjectInput is the creation shape for a Project.
type CreateProjectInput struct {
	Name        string
	Description string
	Settings    model.ProjectSettings
}

// CreateProject allocates a repository for a new project, writes its
// metadata, records the initial commit, and sets up the work and
// production branches. On any failure after the id is allocated, the
// partially created directory is removed before the error is returned.
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (*model.Project, error) {
	project := &model.Project{
		ObjectRecord: model.ObjectRecord{
			ID:         s.idgen.New(),
			ObjectType: model.ObjectTypeProject,
			Created:    s.clock.Now().UTC(),
		},
		Name:          in.Name,
		Description:   in.Description,
		Settings:      in.Settings,
		Status:        model.ProjectStatusTodo,
		Version:       "0.1.0",
		EngineVersion: s.engineVersion,
	}

	if err := s.createProjectFiles(ctx, project); err != nil {
		// Compensate: never leave an uncommitted partial project behind.
		os.RemoveAll(s.layout.ProjectDir(project.ID))
		return nil, err
	}

	s.logger.Info("project created", "id", project.ID, "name", project.Name)
	return project, nil
}

func (s *Service) createProjectFiles(ctx context.Context, project *model.Project) error {
	dir := s.layout.ProjectDir(project.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}
	if err := s.gateway.Init(ctx, dir, BranchWork); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	// Empty directories survive being committed via placeholder files.
	for _, sub := range []string{s.layout.AssetsDir(project.ID), s.layout.LFSDir(project.ID), s.layout.CollectionsDir(project.ID)} {
		if err := os.MkdirAll(sub, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", sub, err)
		}
		if err := os.WriteFile(filepath.Join(sub, ".gitkeep"), nil, 0644); err != nil {
			return fmt.Errorf("writing placeholder: %w", err)
		}
	}

	if err := s.codec.Create(project, s.layout.ProjectFile(project.ID), schema.Project()); err != nil {
		return err
	}
	if err := s.gateway.CommitFiles(ctx, dir, "create project", "."); err != nil {
		return err
	}

	// Branch off production at the initial commit, then return to work.
	if err := s.gateway.SwitchBranch(ctx, dir, BranchProduction, true); err != nil {
		return err
	}
	return s.gateway.SwitchBranch(ctx, dir, BranchWork, false)
}

// ReadProject returns the project by id, enriched with the commit history
// of its metadata file and the full repository history.
func (s *Service) ReadProject(ctx context.Context, id string) (*model.Project, error) {
	project, err := s.readProjectFile(id)
	if err != nil {
		return nil, err
	}
	dir := s.layout.ProjectDir(id)
	if project.History, err = s.gateway.Log(ctx, dir, git.LogOptions{File: "project.json"}); err != nil {
		return nil, err
	}
	if project.FullHistory, err = s.gateway.Log(ctx, dir, git.LogOptions{}); err != nil {
		return nil, err
	}
	return project, nil
}

// ReadProjectAt reads the project metadata as of a historical commit,
// without touching the working tree or the cache.
func (s *Service) ReadProjectAt(ctx context.Context, id, commitHash string) (*model.Project, error) {
	raw, err := s.gateway.ShowFileAtCommit(ctx, s.layout.ProjectDir(id), "project.json", commitHash)
	if err != nil {
		return nil, err
	}
	var project model.Project
	if err := json.Unmarshal(raw, &project); err != nil {
		return nil, fmt.Errorf("decoding historical project: %w", err)
	}
	if err := schema.Project().Validate(&project); err != nil {
		return nil, err
	}
	return &project, nil
}

// readProjectFile reads and validates project.json without history.
func (s *Service) readProjectFile(id string) (*model.Project, error) {
	var project model.Project
	if err := s.codec.Read(s.layout.ProjectFile(id), schema.Project(), &project); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &project, nil
}

// UpdateProjectInput carries the mutable project fields. Nil fields are
// left unchanged.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Settings    *model.ProjectSettings
	Status      *model.ProjectStatus
	Version     *string
}

// UpdateProject applies a read-merge-write update and commits it.
func (s *Service) UpdateProject(ctx context.Context, id string, in UpdateProjectInput) (*model.Project, error) {
	project, err := s.readProjectFile(id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		project.Name = *in.Name
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if in.Settings != nil {
		project.Settings = *in.Settings
	}
	if in.Status != nil {
		project.Status = *in.Status
	}
	if in.Version != nil {
		project.Version = *in.Version
	}
	now := s.clock.Now().UTC()
	project.Updated = &now

	if err := s.codec.Update(project, s.layout.ProjectFile(id), schema.Project()); err != nil {
		return nil, err
	}
	if err := s.gateway.CommitFiles(ctx, s.layout.ProjectDir(id), "update project", "project.json"); err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject removes a project's working copy. Deletion is refused
// unless the project has no remote and force is set, or the project has a
// remote with zero unpushed local commits.
func (s *Service) DeleteProject(ctx context.Context, id string, force bool) error {
	if _, err := s.readProjectFile(id); err != nil {
		return err
	}
	dir := s.layout.ProjectDir(id)

	hasOrigin, err := s.gateway.HasOrigin(ctx, dir)
	if err != nil {
		return err
	}
	if !hasOrigin {
		if !force {
			return fmt.Errorf("refusing to delete the only copy of project %s: %w", id, ErrNoRemote)
		}
	} else {
		changes, err := s.GetChanges(ctx, id)
		if err != nil {
			return err
		}
		if len(changes.Ahead) > 0 {
			return fmt.Errorf("project %s has %d unpushed commits: %w", id, len(changes.Ahead), ErrNotSynchronized)
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing project directory: %w", err)
	}
	// The tree went away without per-file deletes; drop its cache entries
	// so a later read of the same id reports not-found.
	s.codec.FlushPrefix(dir)
	s.logger.Info("project deleted", "id", id)
	return nil
}

// ListProjects returns a page of projects and the total count.
func (s *Service) ListProjects(ctx context.Context, opts ListOptions) ([]*model.Project, int, error) {
	refs, err := s.index.ListReferences(model.ObjectTypeProject, "", "")
	if err != nil {
		return nil, 0, err
	}
	projects := make([]*model.Project, 0, len(refs))
	for _, ref := range refs {
		project, err := s.ReadProject(ctx, ref.ID)
		if err != nil {
			return nil, 0, err
		}
		if !matchesFilter(project.Name, opts.Filter) {
			continue
		}
		projects = append(projects, project)
	}
	sortBy(projects, opts.SortBy,
		func(p *model.Project) string { return p.Name },
		func(p *model.Project) model.ObjectRecord { return p.ObjectRecord })
	total := len(projects)
	lo, hi := paginate(total, opts)
	return projects[lo:hi], total, nil
}

// CountProjects returns the number of stored projects without hydrating them.
func (s *Service) CountProjects(ctx context.Context) (int, error) {
	refs, err := s.index.ListReferences(model.ObjectTypeProject, "", "")
	if err != nil {
		return 0, err
	}
	return len(refs), nil
}

// CloneProject materializes a project from a remote repository. The
// directory is named after the project id recorded in the clone.
func (s *Service) CloneProject(ctx context.Context, url string) (*model.Project, error) {
	tmp := filepath.Join(s.layout.ProjectsDir, ".clone-"+s.idgen.New())
	if err := s.gateway.Clone(ctx, url, tmp, git.CloneOptions{}); err != nil {
		return nil, err
	}
	cleanup := true
	defer func() {
		if cleanup {
			os.RemoveAll(tmp)
		}
	}()

	raw, err := s.codec.UnsafeRead(filepath.Join(tmp, "project.json"))
	if err != nil {
		return nil, fmt.Errorf("cloned repository has no readable project.json: %w", err)
	}
	id, _ := raw["id"].(string)
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("cloned project.json has no valid id")
	}
	dest := s.layout.ProjectDir(id)
	if _, err := os.Stat(dest); err == nil {
		return nil, fmt.Errorf("project %s already exists locally: %w", id, fs.ErrExist)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return nil, fmt.Errorf("moving cloned project into place: %w", err)
	}
	cleanup = false

	s.logger.Info("project cloned", "id", id, "url", url)
	return s.ReadProject(ctx, id)
}

// ProjectBranches lists the project's local branches.
func (s *Service) ProjectBranches(ctx context.Context, id string) ([]string, error) {
	return s.gateway.Branches(ctx, s.layout.ProjectDir(id))
}

// CurrentProjectBranch returns the branch the project's HEAD points at.
func (s *Service) CurrentProjectBranch(ctx context.Context, id string) (string, error) {
	return s.gateway.CurrentBranch(ctx, s.layout.ProjectDir(id))
}

// SwitchProjectBranch checks out the named branch, creating it when create
// is set. The codec cache is flushed: the switch rewrites the working tree
// underneath cached paths.
func (s *Service) SwitchProjectBranch(ctx context.Context, id, branch string, create bool) error {
	if err := s.gateway.SwitchBranch(ctx, s.layout.ProjectDir(id), branch, create); err != nil {
		return err
	}
	s.codec.Flush()
	return nil
}

// GetProjectOriginURL returns the project's origin URL, or ErrNoRemote.
func (s *Service) GetProjectOriginURL(ctx context.Context, id string) (string, error) {
	dir := s.layout.ProjectDir(id)
	hasOrigin, err := s.gateway.HasOrigin(ctx, dir)
	if err != nil {
		return "", err
	}
	if !hasOrigin {
		return "", fmt.Errorf("project %s: %w", id, ErrNoRemote)
	}
	return s.gateway.GetOriginURL(ctx, dir)
}

// SetProjectOriginURL configures the project's origin, adding the remote on
// first use and updating the URL afterwards.
func (s *Service) SetProjectOriginURL(ctx context.Context, id, url string) error {
	dir := s.layout.ProjectDir(id)
	hasOrigin, err := s.gateway.HasOrigin(ctx, dir)
	if err != nil {
		return err
	}
	if hasOrigin {
		return s.gateway.SetOriginURL(ctx, dir, url)
	}
	return s.gateway.AddOrigin(ctx, dir, url)
}

// Changes describes how the current branch relates to its remote
// counterpart.
type Changes struct {
	Ahead  []model.Commit // local commits the remote does not have
	Behind []model.Commit // remote commits the local branch does not have
}

// GetChanges fetches and returns the ahead/behind commit lists between the
// current branch and origin/<branch>. Requires a remote.
func (s *Service) GetChanges(ctx context.Context, id string) (*Changes, error) {
	dir := s.layout.ProjectDir(id)
	hasOrigin, err := s.gateway.HasOrigin(ctx, dir)
	if err != nil {
		return nil, err
	}
	if !hasOrigin {
		return nil, fmt.Errorf("project %s: %w", id, ErrNoRemote)
	}
	if err := s.gateway.Fetch(ctx, dir); err != nil {
		return nil, err
	}
	branch, err := s.gateway.CurrentBranch(ctx, dir)
	if err != nil {
		return nil, err
	}
	remote := "origin/" + branch
	exists, err := s.gateway.RefExists(ctx, dir, remote)
	if err != nil {
		return nil, err
	}
	if !exists {
		// The branch has never been pushed: every local commit is ahead.
		ahead, err := s.gateway.Log(ctx, dir, git.LogOptions{})
		if err != nil {
			return nil, err
		}
		return &Changes{Ahead: ahead}, nil
	}
	ahead, err := s.gateway.Log(ctx, dir, git.LogOptions{From: remote, To: "HEAD"})
	if err != nil {
		return nil, err
	}
	behind, err := s.gateway.Log(ctx, dir, git.LogOptions{From: "HEAD", To: remote})
	if err != nil {
		return nil, err
	}
	return &Changes{Ahead: ahead, Behind: behind}, nil
}

// Synchronize pulls the remote state and pushes all local branches. The
// pull is skipped when the current branch has never been pushed, since an
// empty remote has nothing to integrate.
func (s *Service) Synchronize(ctx context.Context, id string) error {
	dir := s.layout.ProjectDir(id)
	hasOrigin, err := s.gateway.HasOrigin(ctx, dir)
	if err != nil {
		return err
	}
	if !hasOrigin {
		return fmt.Errorf("project %s: %w", id, ErrNoRemote)
	}
	branch, err := s.gateway.CurrentBranch(ctx, dir)
	if err != nil {
		return err
	}
	exists, err := s.gateway.RefExists(ctx, dir, "origin/"+branch)
	if err != nil {
		return err
	}
	if exists {
		if err := s.gateway.Pull(ctx, dir); err != nil {
			return err
		}
	}
	return s.gateway.Push(ctx, dir, git.PushOptions{All: true})
}

// Snapshot tags the project's current commit with a fresh UUID name and
// the given message, for point-in-time recall.
func (s *Service) Snapshot(ctx context.Context, id, message string) (string, error) {
	name := s.idgen.New()
	if err := s.gateway.CreateTag(ctx, s.layout.ProjectDir(id), name, message); err != nil {
		return "", err
	}
	s.logger.Info("snapshot created", "project", id, "tag", name)
	return name, nil
}
