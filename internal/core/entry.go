package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"cs-go/internal/git"
	"cs-go/internal/model"
	"cs-go/internal/schema"
)

// CreateEntry validates values against the parent collection's field
// definitions and persists a new entry. A validation failure aborts before
// anything is written.
func (s *Service) CreateEntry(ctx context.Context, projectID, collectionID string, values []model.Value) (*model.Entry, error) {
	if err := s.validateValues(projectID, collectionID, values); err != nil {
		return nil, err
	}

	entry := &model.Entry{
		ObjectRecord: model.ObjectRecord{
			ID:         s.idgen.New(),
			ObjectType: model.ObjectTypeEntry,
			Created:    s.clock.Now().UTC(),
		},
		Values: values,
	}

	path := s.layout.EntryFile(projectID, collectionID, entry.ID)
	if err := s.codec.Create(entry, path, schema.Entry()); err != nil {
		return nil, err
	}
	rel, err := s.layout.Rel(projectID, path)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.CommitFiles(ctx, s.layout.ProjectDir(projectID), "create entry", rel); err != nil {
		if derr := s.codec.Delete(path); derr != nil {
			s.logger.Warn("cleanup after failed commit", "path", path, "error", derr)
		}
		return nil, err
	}

	s.logger.Info("entry created", "project", projectID, "collection", collectionID, "id", entry.ID)
	return entry, nil
}

// validateValues runs the field-driven validator for the collection's
// definitions over the given values, using the project's supported
// languages.
func (s *Service) validateValues(projectID, collectionID string, values []model.Value) error {
	project, err := s.readProjectFile(projectID)
	if err != nil {
		return err
	}
	collection, err := s.readCollectionFile(projectID, collectionID)
	if err != nil {
		return err
	}
	return schema.ValidateEntryValues(collection, project.Settings.Language.Supported, values)
}

// ReadEntry returns the entry by id, with its commit history.
func (s *Service) ReadEntry(ctx context.Context, projectID, collectionID, id string) (*model.Entry, error) {
	entry, err := s.readEntryFile(projectID, collectionID, id)
	if err != nil {
		return nil, err
	}
	rel, err := s.layout.Rel(projectID, s.layout.EntryFile(projectID, collectionID, id))
	if err != nil {
		return nil, err
	}
	entry.History, err = s.gateway.Log(ctx, s.layout.ProjectDir(projectID), git.LogOptions{File: rel})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ReadEntryAt reads the entry as of a historical commit.
func (s *Service) ReadEntryAt(ctx context.Context, projectID, collectionID, id, commitHash string) (*model.Entry, error) {
	rel, err := s.layout.Rel(projectID, s.layout.EntryFile(projectID, collectionID, id))
	if err != nil {
		return nil, err
	}
	raw, err := s.gateway.ShowFileAtCommit(ctx, s.layout.ProjectDir(projectID), rel, commitHash)
	if err != nil {
		return nil, err
	}
	var entry model.Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decoding historical entry: %w", err)
	}
	if err := schema.Entry().Validate(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Service) readEntryFile(projectID, collectionID, id string) (*model.Entry, error) {
	var entry model.Entry
	if err := s.codec.Read(s.layout.EntryFile(projectID, collectionID, id), schema.Entry(), &entry); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("entry %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &entry, nil
}

// UpdateEntry replaces the entry's values after validating them. A
// validation failure leaves the stored entry unchanged.
func (s *Service) UpdateEntry(ctx context.Context, projectID, collectionID, id string, values []model.Value) (*model.Entry, error) {
	entry, err := s.readEntryFile(projectID, collectionID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateValues(projectID, collectionID, values); err != nil {
		return nil, err
	}
	entry.Values = values
	now := s.clock.Now().UTC()
	entry.Updated = &now

	path := s.layout.EntryFile(projectID, collectionID, id)
	if err := s.codec.Update(entry, path, schema.Entry()); err != nil {
		return nil, err
	}
	rel, err := s.layout.Rel(projectID, path)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.CommitFiles(ctx, s.layout.ProjectDir(projectID), "update entry", rel); err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteEntry removes the entry's file and commits the removal.
func (s *Service) DeleteEntry(ctx context.Context, projectID, collectionID, id string) error {
	path := s.layout.EntryFile(projectID, collectionID, id)
	if err := s.codec.Delete(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("entry %s: %w", id, ErrNotFound)
		}
		return err
	}
	rel, err := s.layout.Rel(projectID, path)
	if err != nil {
		return err
	}
	if err := s.gateway.CommitFiles(ctx, s.layout.ProjectDir(projectID), "delete entry", rel); err != nil {
		return err
	}
	s.logger.Info("entry deleted", "project", projectID, "collection", collectionID, "id", id)
	return nil
}

// ListEntries returns a page of the collection's entries and the total
// count. Entries have no display name; sorting falls back to timestamps.
func (s *Service) ListEntries(ctx context.Context, projectID, collectionID string, opts ListOptions) ([]*model.Entry, int, error) {
	refs, err := s.index.ListReferences(model.ObjectTypeEntry, projectID, collectionID)
	if err != nil {
		return nil, 0, err
	}
	entries := make([]*model.Entry, 0, len(refs))
	for _, ref := range refs {
		entry, err := s.ReadEntry(ctx, projectID, collectionID, ref.ID)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	sortBy(entries, opts.SortBy,
		func(e *model.Entry) string { return e.ID },
		func(e *model.Entry) model.ObjectRecord { return e.ObjectRecord })
	total := len(entries)
	lo, hi := paginate(total, opts)
	return entries[lo:hi], total, nil
}

// CountEntries returns the number of entries without hydrating them.
func (s *Service) CountEntries(ctx context.Context, projectID, collectionID string) (int, error) {
	refs, err := s.index.ListReferences(model.ObjectTypeEntry, projectID, collectionID)
	if err != nil {
		return 0, err
	}
	return len(refs), nil
}
