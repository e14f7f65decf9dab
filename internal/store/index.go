package store

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"cs-go/internal/model"
)

// Index reconstructs typed identity for every stored object by scanning
// directories for names matching the store's convention, without reading
// file content. Listings are best-effort inventories, not integrity
// checks: names that cannot satisfy the expected identity shape are
// silently excluded.
type Index struct {
	layout Layout
}

// NewIndex creates an Index over the given layout.
func NewIndex(layout Layout) *Index {
	return &Index{layout: layout}
}

// ListReferences enumerates stored objects of the given type. Every type
// except project requires projectID; entry additionally requires
// collectionID. A missing scope parameter is an error, not an empty result.
func (x *Index) ListReferences(objectType model.ObjectType, projectID, collectionID string) ([]model.FileReference, error) {
	switch objectType {
	case model.ObjectTypeProject:
		return x.scanFolders(x.layout.ProjectsDir)
	case model.ObjectTypeCollection:
		if projectID == "" {
			return nil, fmt.Errorf("listing collections: %w", errMissingProject)
		}
		return x.scanFolders(x.layout.CollectionsDir(projectID))
	case model.ObjectTypeAsset:
		if projectID == "" {
			return nil, fmt.Errorf("listing assets: %w", errMissingProject)
		}
		return x.scanFiles(x.layout.LFSDir(projectID), "")
	case model.ObjectTypeEntry:
		if projectID == "" {
			return nil, fmt.Errorf("listing entries: %w", errMissingProject)
		}
		if collectionID == "" {
			return nil, fmt.Errorf("listing entries: %w", errMissingCollection)
		}
		return x.scanFiles(x.layout.CollectionDir(projectID, collectionID), "collection.json")
	default:
		return nil, fmt.Errorf("unknown object type %q", objectType)
	}
}

var (
	errMissingProject    = fmt.Errorf("project id is required")
	errMissingCollection = fmt.Errorf("collection id is required")
)

// scanFolders lists subdirectories whose bare name is a valid id.
func (x *Index) scanFolders(dir string) ([]model.FileReference, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	var refs []model.FileReference
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := uuid.Parse(e.Name()); err != nil {
			continue
		}
		refs = append(refs, model.FileReference{ID: e.Name()})
	}
	return refs, nil
}

// scanFiles lists files matching the two- or three-segment naming
// convention, skipping exclude (e.g. the collection's own schema file).
func (x *Index) scanFiles(dir, exclude string) ([]model.FileReference, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	var refs []model.FileReference
	for _, e := range entries {
		if e.IsDir() || e.Name() == exclude {
			continue
		}
		ref, ok := ParseFileName(e.Name())
		if !ok {
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// ParseFileName recovers a FileReference from a file name following the
// convention "<id>.<extension>" or "<id>.<language>.<extension>". The
// second return is false for names that do not satisfy the identity shape
// (hidden files, non-UUID ids, too many segments).
func ParseFileName(name string) (model.FileReference, bool) {
	if strings.HasPrefix(name, ".") {
		return model.FileReference{}, false
	}
	parts := strings.Split(name, ".")
	var ref model.FileReference
	switch len(parts) {
	case 2:
		ref = model.FileReference{ID: parts[0], Extension: parts[1]}
	case 3:
		ref = model.FileReference{ID: parts[0], Language: parts[1], Extension: parts[2]}
	default:
		return model.FileReference{}, false
	}
	if _, err := uuid.Parse(ref.ID); err != nil {
		return model.FileReference{}, false
	}
	return ref, true
}
