package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"cs-go/internal/git"
	"cs-go/internal/model"
	"cs-go/internal/schema"
)

// CreateCollectionInput is the creation shape for a Collection. Field
// definitions without an id are assigned a fresh one.
type CreateCollectionInput struct {
	Name             model.TranslatableNames
	Slug             model.Slugs
	Description      model.TranslatableString
	Icon             string
	FieldDefinitions []model.FieldDefinition
}

// CreateCollection writes a new collection schema under the project and
// commits it. Fails when the project does not exist.
func (s *Service) CreateCollection(ctx context.Context, projectID string, in CreateCollectionInput) (*model.Collection, error) {
	if _, err := s.readProjectFile(projectID); err != nil {
		return nil, err
	}

	defs := make([]model.FieldDefinition, len(in.FieldDefinitions))
	copy(defs, in.FieldDefinitions)
	for i := range defs {
		if defs[i].ID == "" {
			defs[i].ID = s.idgen.New()
		}
	}

	collection := &model.Collection{
		ObjectRecord: model.ObjectRecord{
			ID:         s.idgen.New(),
			ObjectType: model.ObjectTypeCollection,
			Created:    s.clock.Now().UTC(),
		},
		Name:             in.Name,
		Slug:             in.Slug,
		Description:      in.Description,
		Icon:             in.Icon,
		FieldDefinitions: defs,
	}

	path := s.layout.CollectionFile(projectID, collection.ID)
	if err := s.codec.Create(collection, path, schema.Collection()); err != nil {
		os.RemoveAll(s.layout.CollectionDir(projectID, collection.ID))
		return nil, err
	}
	rel, err := s.layout.Rel(projectID, path)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.CommitFiles(ctx, s.layout.ProjectDir(projectID), "create collection", rel); err != nil {
		// Compensate with the service's own delete to avoid leaving an
		// uncommitted partial object in the working tree.
		s.deleteCollectionFiles(projectID, collection.ID)
		return nil, err
	}

	s.logger.Info("collection created", "project", projectID, "id", collection.ID)
	return collection, nil
}

// ReadCollection returns the collection by id, with its commit history.
func (s *Service) ReadCollection(ctx context.Context, projectID, id string) (*model.Collection, error) {
	collection, err := s.readCollectionFile(projectID, id)
	if err != nil {
		return nil, err
	}
	rel, err := s.layout.Rel(projectID, s.layout.CollectionFile(projectID, id))
	if err != nil {
		return nil, err
	}
	collection.History, err = s.gateway.Log(ctx, s.layout.ProjectDir(projectID), git.LogOptions{File: rel})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

// ReadCollectionAt reads the collection as of a historical commit, without
// touching the working tree or the cache.
func (s *Service) ReadCollectionAt(ctx context.Context, projectID, id, commitHash string) (*model.Collection, error) {
	rel, err := s.layout.Rel(projectID, s.layout.CollectionFile(projectID, id))
	if err != nil {
		return nil, err
	}
	raw, err := s.gateway.ShowFileAtCommit(ctx, s.layout.ProjectDir(projectID), rel, commitHash)
	if err != nil {
		return nil, err
	}
	var collection model.Collection
	if err := json.Unmarshal(raw, &collection); err != nil {
		return nil, fmt.Errorf("decoding historical collection: %w", err)
	}
	if err := schema.Collection().Validate(&collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

func (s *Service) readCollectionFile(projectID, id string) (*model.Collection, error) {
	var collection model.Collection
	if err := s.codec.Read(s.layout.CollectionFile(projectID, id), schema.Collection(), &collection); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("collection %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &collection, nil
}

// UpdateCollectionInput carries the mutable collection fields. Nil fields
// are left unchanged.
type UpdateCollectionInput struct {
	Name             *model.TranslatableNames
	Slug             *model.Slugs
	Description      *model.TranslatableString
	Icon             *string
	FieldDefinitions *[]model.FieldDefinition
}

// UpdateCollection applies a read-merge-write update and commits it. The
// new shape is validated before anything touches disk.
func (s *Service) UpdateCollection(ctx context.Context, projectID, id string, in UpdateCollectionInput) (*model.Collection, error) {
	collection, err := s.readCollectionFile(projectID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		collection.Name = *in.Name
	}
	if in.Slug != nil {
		collection.Slug = *in.Slug
	}
	if in.Description != nil {
		collection.Description = *in.Description
	}
	if in.Icon != nil {
		collection.Icon = *in.Icon
	}
	if in.FieldDefinitions != nil {
		defs := *in.FieldDefinitions
		for i := range defs {
			if defs[i].ID == "" {
				defs[i].ID = s.idgen.New()
			}
		}
		collection.FieldDefinitions = defs
	}
	now := s.clock.Now().UTC()
	collection.Updated = &now

	path := s.layout.CollectionFile(projectID, id)
	if err := s.codec.Update(collection, path, schema.Collection()); err != nil {
		return nil, err
	}
	rel, err := s.layout.Rel(projectID, path)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.CommitFiles(ctx, s.layout.ProjectDir(projectID), "update collection", rel); err != nil {
		return nil, err
	}
	return collection, nil
}

// DeleteCollection removes the collection and every entry it holds, then
// commits the removal.
func (s *Service) DeleteCollection(ctx context.Context, projectID, id string) error {
	if _, err := s.readCollectionFile(projectID, id); err != nil {
		return err
	}
	if err := s.deleteCollectionFiles(projectID, id); err != nil {
		return err
	}
	rel, err := s.layout.Rel(projectID, s.layout.CollectionDir(projectID, id))
	if err != nil {
		return err
	}
	if err := s.gateway.CommitFiles(ctx, s.layout.ProjectDir(projectID), "delete collection", rel); err != nil {
		return err
	}
	s.logger.Info("collection deleted", "project", projectID, "id", id)
	return nil
}

// deleteCollectionFiles removes the collection directory, going through the
// codec file by file so cache entries are dropped with the files.
func (s *Service) deleteCollectionFiles(projectID, id string) error {
	refs, err := s.index.ListReferences(model.ObjectTypeEntry, projectID, id)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if err := s.codec.Delete(s.layout.EntryFile(projectID, id, ref.ID)); err != nil {
			return err
		}
	}
	if err := s.codec.Delete(s.layout.CollectionFile(projectID, id)); err != nil {
		return err
	}
	if err := os.RemoveAll(s.layout.CollectionDir(projectID, id)); err != nil {
		return fmt.Errorf("removing collection directory: %w", err)
	}
	return nil
}

// ListCollections returns a page of the project's collections and the
// total count. Sorting and filtering by name use the singular slug.
func (s *Service) ListCollections(ctx context.Context, projectID string, opts ListOptions) ([]*model.Collection, int, error) {
	refs, err := s.index.ListReferences(model.ObjectTypeCollection, projectID, "")
	if err != nil {
		return nil, 0, err
	}
	collections := make([]*model.Collection, 0, len(refs))
	for _, ref := range refs {
		collection, err := s.ReadCollection(ctx, projectID, ref.ID)
		if err != nil {
			return nil, 0, err
		}
		if !matchesFilter(collection.Slug.Singular, opts.Filter) {
			continue
		}
		collections = append(collections, collection)
	}
	sortBy(collections, opts.SortBy,
		func(c *model.Collection) string { return c.Slug.Singular },
		func(c *model.Collection) model.ObjectRecord { return c.ObjectRecord })
	total := len(collections)
	lo, hi := paginate(total, opts)
	return collections[lo:hi], total, nil
}

// CountCollections returns the number of collections without hydrating them.
func (s *Service) CountCollections(ctx context.Context, projectID string) (int, error) {
	refs, err := s.index.ListReferences(model.ObjectTypeCollection, projectID, "")
	if err != nil {
		return 0, err
	}
	return len(refs), nil
}
