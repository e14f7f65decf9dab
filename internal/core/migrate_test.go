package core_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"cs-go/internal/core"
	"cs-go/internal/model"
)

// iconMigration backfills the icon field that collections written by
// older engines are missing.
func iconMigration(to string) core.Migration {
	return core.Migration{
		To: to,
		Apply: func(objectType model.ObjectType, data map[string]any) (map[string]any, error) {
			if objectType == model.ObjectTypeCollection {
				data["icon"] = "article"
			}
			return data, nil
		},
	}
}

func TestUpgrade(t *testing.T) {
	ctx := context.Background()

	t.Run("migrates an old project in place", func(t *testing.T) {
		old := newFixtureEngine(t, "0.11.0")
		project := old.createProject(t, "website")
		collection := old.createCollection(t, project.ID, textField())
		if _, err := old.svc.CreateEntry(ctx, project.ID, collection.ID, []model.Value{
			textValue(collection.FieldDefinitions[0].ID, "en", "hello"),
		}); err != nil {
			t.Fatalf("CreateEntry() error = %v", err)
		}

		f := old.reopen(t, core.Version)
		f.svc.RegisterMigration(iconMigration(core.Version))

		if err := f.svc.Upgrade(ctx, project.ID, false); err != nil {
			t.Fatalf("Upgrade() error = %v", err)
		}

		got, err := f.svc.ReadProject(ctx, project.ID)
		if err != nil {
			t.Fatalf("ReadProject() error = %v", err)
		}
		if got.EngineVersion != core.Version {
			t.Errorf("EngineVersion = %q, want %q", got.EngineVersion, core.Version)
		}

		migrated, err := f.svc.ReadCollection(ctx, project.ID, collection.ID)
		if err != nil {
			t.Fatalf("ReadCollection() error = %v", err)
		}
		if migrated.Icon != "article" {
			t.Errorf("Icon = %q, want the migrated value", migrated.Icon)
		}

		dir := f.layout.ProjectDir(project.ID)
		if !slices.Contains(f.gw.Tags(dir), "v"+core.Version) {
			t.Errorf("tags = %v, want the upgrade tag", f.gw.Tags(dir))
		}
		current, err := f.gw.CurrentBranch(ctx, dir)
		if err != nil {
			t.Fatalf("CurrentBranch() error = %v", err)
		}
		if current != "work" {
			t.Errorf("current branch = %q, want work", current)
		}
		branches, err := f.gw.Branches(ctx, dir)
		if err != nil {
			t.Fatalf("Branches() error = %v", err)
		}
		for _, b := range branches {
			if strings.HasPrefix(b, "upgrade-") {
				t.Errorf("upgrade branch %q survived", b)
			}
		}
	})

	t.Run("current project without force", func(t *testing.T) {
		f := newFixture(t)
		project := f.createProject(t, "website")
		if err := f.svc.Upgrade(ctx, project.ID, false); !errors.Is(err, core.ErrAlreadyCurrent) {
			t.Errorf("Upgrade() error = %v, want ErrAlreadyCurrent", err)
		}
	})

	t.Run("current project with force re-runs the pipeline", func(t *testing.T) {
		f := newFixture(t)
		project := f.createProject(t, "website")
		if err := f.svc.Upgrade(ctx, project.ID, true); err != nil {
			t.Fatalf("Upgrade(force) error = %v", err)
		}
		dir := f.layout.ProjectDir(project.ID)
		if !slices.Contains(f.gw.Tags(dir), "v"+core.Version) {
			t.Errorf("tags = %v, want the upgrade tag", f.gw.Tags(dir))
		}
		// Nothing changed, so the only new commit is the upgrade marker; an
		// "update project" commit here would be empty.
		if got := f.gw.Commits(dir); slices.Contains(got, "update project") {
			t.Errorf("commits = %v, an unchanged re-run must not rewrite the project file", got)
		}
	})

	t.Run("force re-runs after an upgrade moves the tag", func(t *testing.T) {
		old := newFixtureEngine(t, "0.11.0")
		project := old.createProject(t, "website")

		f := old.reopen(t, core.Version)
		if err := f.svc.Upgrade(ctx, project.ID, false); err != nil {
			t.Fatalf("Upgrade() error = %v", err)
		}
		if err := f.svc.Upgrade(ctx, project.ID, true); err != nil {
			t.Fatalf("Upgrade(force) after upgrade error = %v", err)
		}
		dir := f.layout.ProjectDir(project.ID)
		tags := f.gw.Tags(dir)
		var seen int
		for _, tag := range tags {
			if tag == "v"+core.Version {
				seen++
			}
		}
		if seen != 1 {
			t.Errorf("tags = %v, want exactly one %q", tags, "v"+core.Version)
		}
	})

	t.Run("refuses a project from a newer engine", func(t *testing.T) {
		newer := newFixtureEngine(t, "9.0.0")
		project := newer.createProject(t, "website")

		f := newer.reopen(t, core.Version)
		if err := f.svc.Upgrade(ctx, project.ID, false); !errors.Is(err, core.ErrProjectNewer) {
			t.Errorf("Upgrade() error = %v, want ErrProjectNewer", err)
		}
	})

	t.Run("a failing step rolls back", func(t *testing.T) {
		old := newFixtureEngine(t, "0.11.0")
		project := old.createProject(t, "website")
		old.createCollection(t, project.ID, textField())

		f := old.reopen(t, core.Version)
		boom := errors.New("unmappable field")
		f.svc.RegisterMigration(core.Migration{
			To: core.Version,
			Apply: func(objectType model.ObjectType, data map[string]any) (map[string]any, error) {
				if objectType == model.ObjectTypeCollection {
					return nil, boom
				}
				return data, nil
			},
		})

		err := f.svc.Upgrade(ctx, project.ID, false)
		if !errors.Is(err, boom) {
			t.Fatalf("Upgrade() error = %v, want the step failure", err)
		}

		dir := f.layout.ProjectDir(project.ID)
		if slices.Contains(f.gw.Tags(dir), "v"+core.Version) {
			t.Error("upgrade tag must not exist after rollback")
		}
		current, berr := f.gw.CurrentBranch(ctx, dir)
		if berr != nil {
			t.Fatalf("CurrentBranch() error = %v", berr)
		}
		if current != "work" {
			t.Errorf("current branch = %q, want work", current)
		}
		branches, berr := f.gw.Branches(ctx, dir)
		if berr != nil {
			t.Fatalf("Branches() error = %v", berr)
		}
		for _, b := range branches {
			if strings.HasPrefix(b, "upgrade-") {
				t.Errorf("upgrade branch %q survived rollback", b)
			}
		}

		got, rerr := f.svc.ReadProject(ctx, project.ID)
		if rerr != nil {
			t.Fatalf("ReadProject() error = %v", rerr)
		}
		if got.EngineVersion != "0.11.0" {
			t.Errorf("EngineVersion = %q, must be unchanged", got.EngineVersion)
		}
	})
}

func TestListOutdated(t *testing.T) {
	ctx := context.Background()
	old := newFixtureEngine(t, "0.11.0")
	stale := old.createProject(t, "stale")

	f := old.reopen(t, core.Version)
	f.createProject(t, "fresh")

	outdated, err := f.svc.ListOutdated(ctx)
	if err != nil {
		t.Fatalf("ListOutdated() error = %v", err)
	}
	if len(outdated) != 1 {
		t.Fatalf("ListOutdated() = %v, want one project", outdated)
	}
	if outdated[0].ID != stale.ID || outdated[0].EngineVersion != "0.11.0" {
		t.Errorf("outdated = %+v", outdated[0])
	}
}
