package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"cs-go/internal/git"
	"cs-go/internal/model"
	"cs-go/internal/schema"
)

// migrationState tracks where an upgrade attempt is. The states make the
// branch-isolate-then-merge-or-discard pattern explicit: rollback is a
// named transition, not an implicit catch block.
type migrationState int

const (
	stateIdle migrationState = iota
	stateBranched
	stateTransforming
	stateMerging
	stateDone
)

func (st migrationState) String() string {
	switch st {
	case stateIdle:
		return "idle"
	case stateBranched:
		return "branched"
	case stateTransforming:
		return "transforming"
	case stateMerging:
		return "merging"
	case stateDone:
		return "done"
	}
	return "unknown"
}

// Migration is one schema-coercion step. Apply receives an object's raw,
// unvalidated content and returns it reshaped for the To version. Steps
// evolve independently of the engine; the store only sequences them.
type Migration struct {
	// To is the engine version this step migrates objects up to.
	To string
	// Apply reshapes one object of the given type.
	Apply func(objectType model.ObjectType, data map[string]any) (map[string]any, error)
}

// RegisterMigration appends a schema-coercion step. Steps run in
// registration order for every object whose project was written before
// their To version.
func (s *Service) RegisterMigration(m Migration) {
	s.migrations = append(s.migrations, m)
}

// Upgrade migrates a project from its recorded engine version to the
// running one. The whole upgrade happens on an isolated branch that is
// squash-merged back on success and discarded on any failure, leaving the
// base branch exactly as it was before the attempt.
func (s *Service) Upgrade(ctx context.Context, projectID string, force bool) error {
	// The project's shape may predate the current schema; read unvalidated.
	raw, err := s.codec.UnsafeRead(s.layout.ProjectFile(projectID))
	if err != nil {
		return err
	}
	recordedStr, _ := raw["engineVersion"].(string)
	recorded, err := semver.NewVersion(recordedStr)
	if err != nil {
		return fmt.Errorf("project %s has no readable engine version: %w", projectID, err)
	}
	running := semver.MustParse(s.engineVersion)
	if recorded.GreaterThan(running) {
		return fmt.Errorf("project %s was written by %s, engine is %s: %w", projectID, recorded, running, ErrProjectNewer)
	}
	if recorded.Equal(running) && !force {
		return fmt.Errorf("project %s: %w", projectID, ErrAlreadyCurrent)
	}

	dir := s.layout.ProjectDir(projectID)
	baseBranch, err := s.gateway.CurrentBranch(ctx, dir)
	if err != nil {
		return err
	}
	upgradeBranch := "upgrade-" + s.idgen.New()
	if err := s.SwitchProjectBranch(ctx, projectID, upgradeBranch, true); err != nil {
		return err
	}
	s.logger.Info("upgrade started", "project", projectID, "from", recorded.String(), "to", running.String(), "branch", upgradeBranch)

	if err := s.transformAll(ctx, projectID, recorded); err != nil {
		return s.rollback(ctx, projectID, baseBranch, upgradeBranch, stateTransforming, err)
	}
	if err := s.finalize(ctx, projectID, raw, recorded, baseBranch, upgradeBranch); err != nil {
		return s.rollback(ctx, projectID, baseBranch, upgradeBranch, stateMerging, err)
	}

	s.logger.Info("upgrade complete", "project", projectID, "version", running.String())
	return nil
}

// transformAll migrates every asset, collection and entry through the
// registered steps, persisting each through the normal update path.
func (s *Service) transformAll(ctx context.Context, projectID string, from *semver.Version) error {
	assetRefs, err := s.index.ListReferences(model.ObjectTypeAsset, projectID, "")
	if err != nil {
		return err
	}
	for _, ref := range assetRefs {
		path := s.layout.AssetFile(projectID, ref.ID)
		if err := s.transformObject(ctx, projectID, model.ObjectTypeAsset, path, from, schema.Asset(), &model.Asset{}); err != nil {
			return err
		}
	}

	colRefs, err := s.index.ListReferences(model.ObjectTypeCollection, projectID, "")
	if err != nil {
		return err
	}
	for _, ref := range colRefs {
		path := s.layout.CollectionFile(projectID, ref.ID)
		if err := s.transformObject(ctx, projectID, model.ObjectTypeCollection, path, from, schema.Collection(), &model.Collection{}); err != nil {
			return err
		}
		entryRefs, err := s.index.ListReferences(model.ObjectTypeEntry, projectID, ref.ID)
		if err != nil {
			return err
		}
		for _, entryRef := range entryRefs {
			entryPath := s.layout.EntryFile(projectID, ref.ID, entryRef.ID)
			if err := s.transformObject(ctx, projectID, model.ObjectTypeEntry, entryPath, from, schema.Entry(), &model.Entry{}); err != nil {
				return err
			}
		}
	}
	return nil
}

// transformObject migrates one object file: raw read, step chain, decode
// into the current shape, validated write, commit.
func (s *Service) transformObject(ctx context.Context, projectID string, objectType model.ObjectType, path string, from *semver.Version, v schema.Validator, out any) error {
	raw, err := s.codec.UnsafeRead(path)
	if err != nil {
		return err
	}
	migrated, changed, err := s.applySteps(objectType, raw, from)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := decodeInto(migrated, out); err != nil {
		return err
	}
	if err := s.codec.Update(out, path, v); err != nil {
		return err
	}
	rel, err := s.layout.Rel(projectID, path)
	if err != nil {
		return err
	}
	return s.gateway.CommitFiles(ctx, s.layout.ProjectDir(projectID), fmt.Sprintf("update %s", objectType), rel)
}

// applySteps runs every registered step newer than from, in order.
func (s *Service) applySteps(objectType model.ObjectType, data map[string]any, from *semver.Version) (map[string]any, bool, error) {
	changed := false
	for _, m := range s.migrations {
		to, err := semver.NewVersion(m.To)
		if err != nil {
			return nil, false, fmt.Errorf("migration step has invalid version %q: %w", m.To, err)
		}
		if !to.GreaterThan(from) {
			continue
		}
		if data, err = m.Apply(objectType, data); err != nil {
			return nil, false, fmt.Errorf("migrating %s to %s: %w", objectType, m.To, err)
		}
		changed = true
	}
	return data, changed, nil
}

// finalize migrates the project file itself, records the new engine
// version, squash-merges the upgrade branch, tags the result and deletes
// the branch.
func (s *Service) finalize(ctx context.Context, projectID string, raw map[string]any, from *semver.Version, baseBranch, upgradeBranch string) error {
	migrated, changed, err := s.applySteps(model.ObjectTypeProject, raw, from)
	if err != nil {
		return err
	}
	running := semver.MustParse(s.engineVersion)
	dir := s.layout.ProjectDir(projectID)

	// A forced re-run of a current project changes nothing; committing the
	// byte-identical project file would be an empty commit and fail.
	if changed || !from.Equal(running) {
		migrated["engineVersion"] = s.engineVersion
		var project model.Project
		if err := decodeInto(migrated, &project); err != nil {
			return err
		}
		path := s.layout.ProjectFile(projectID)
		if err := s.codec.Update(&project, path, schema.Project()); err != nil {
			return err
		}
		if err := s.gateway.CommitFiles(ctx, dir, "update project", "project.json"); err != nil {
			return err
		}
	}

	if err := s.SwitchProjectBranch(ctx, projectID, baseBranch, false); err != nil {
		return err
	}
	if err := s.gateway.MergeSquash(ctx, dir, upgradeBranch); err != nil {
		return err
	}
	if err := s.gateway.Commit(ctx, dir, fmt.Sprintf("upgrade project to %s", s.engineVersion)); err != nil {
		return err
	}
	tag := "v" + s.engineVersion
	if from.Equal(running) {
		// A previous upgrade already tagged this version; move the tag to
		// the re-run's commit.
		if err := s.gateway.DeleteTag(ctx, dir, tag); err != nil {
			s.logger.Debug("no previous upgrade tag to replace", "project", projectID, "tag", tag)
		}
	}
	if err := s.gateway.CreateTag(ctx, dir, tag, fmt.Sprintf("project upgraded to %s", s.engineVersion)); err != nil {
		return err
	}
	// A squashed branch is not detected as merged; force the delete.
	if err := s.gateway.DeleteBranch(ctx, dir, upgradeBranch, true); err != nil {
		return err
	}
	s.codec.Flush()
	return nil
}

// rollback abandons a failed upgrade: discard uncommitted changes, return
// to the base branch, delete the upgrade branch, re-raise the original
// error. The base branch is untouched afterwards.
func (s *Service) rollback(ctx context.Context, projectID, baseBranch, upgradeBranch string, state migrationState, cause error) error {
	dir := s.layout.ProjectDir(projectID)
	s.logger.Warn("upgrade failed, rolling back", "project", projectID, "state", state.String(), "error", cause)

	if err := s.gateway.Reset(ctx, dir, git.ResetHard, "HEAD"); err != nil {
		s.logger.Error("rollback reset failed", "project", projectID, "error", err)
	}
	if err := s.gateway.SwitchBranch(ctx, dir, baseBranch, false); err != nil {
		s.logger.Error("rollback branch switch failed", "project", projectID, "error", err)
	}
	if err := s.gateway.DeleteBranch(ctx, dir, upgradeBranch, true); err != nil {
		s.logger.Error("rollback branch delete failed", "project", projectID, "error", err)
	}
	s.codec.Flush()
	return cause
}

// OutdatedProject identifies a project whose on-disk shape was written by
// an older engine.
type OutdatedProject struct {
	ID            string
	Name          string
	EngineVersion string
}

// ListOutdated returns the projects whose recorded engine version is
// behind the running one. Projects with an unreadable version are skipped;
// an inventory is best-effort.
func (s *Service) ListOutdated(ctx context.Context) ([]OutdatedProject, error) {
	refs, err := s.index.ListReferences(model.ObjectTypeProject, "", "")
	if err != nil {
		return nil, err
	}
	running := semver.MustParse(s.engineVersion)
	var outdated []OutdatedProject
	for _, ref := range refs {
		raw, err := s.codec.UnsafeRead(s.layout.ProjectFile(ref.ID))
		if err != nil {
			continue
		}
		recordedStr, _ := raw["engineVersion"].(string)
		recorded, err := semver.NewVersion(recordedStr)
		if err != nil || !recorded.LessThan(running) {
			continue
		}
		name, _ := raw["name"].(string)
		outdated = append(outdated, OutdatedProject{ID: ref.ID, Name: name, EngineVersion: recorded.String()})
	}
	return outdated, nil
}

// decodeInto round-trips a raw object through JSON into a typed shape.
func decodeInto(data map[string]any, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding migrated object: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding migrated object: %w", err)
	}
	return nil
}
