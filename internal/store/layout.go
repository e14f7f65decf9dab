// Package store implements the on-disk persistence for stored objects: the
// schema-validated JSON file codec with its read-through cache, the naming
// convention layout, and the reference index that enumerates objects
// without reading their content.
package store

import "path/filepath"

// Layout derives every storage path from the projects directory. Per
// project root:
//
//	project.json
//	assets/<id>.json          (metadata)
//	lfs/<id>.<ext>            (binary payloads)
//	collections/<id>/collection.json
//	collections/<id>/<entryId>.json
type Layout struct {
	ProjectsDir string
}

func (l Layout) ProjectDir(projectID string) string {
	return filepath.Join(l.ProjectsDir, projectID)
}

func (l Layout) ProjectFile(projectID string) string {
	return filepath.Join(l.ProjectDir(projectID), "project.json")
}

func (l Layout) AssetsDir(projectID string) string {
	return filepath.Join(l.ProjectDir(projectID), "assets")
}

func (l Layout) AssetFile(projectID, assetID string) string {
	return filepath.Join(l.AssetsDir(projectID), assetID+".json")
}

func (l Layout) LFSDir(projectID string) string {
	return filepath.Join(l.ProjectDir(projectID), "lfs")
}

func (l Layout) AssetContent(projectID, assetID, extension string) string {
	return filepath.Join(l.LFSDir(projectID), assetID+"."+extension)
}

func (l Layout) CollectionsDir(projectID string) string {
	return filepath.Join(l.ProjectDir(projectID), "collections")
}

func (l Layout) CollectionDir(projectID, collectionID string) string {
	return filepath.Join(l.CollectionsDir(projectID), collectionID)
}

func (l Layout) CollectionFile(projectID, collectionID string) string {
	return filepath.Join(l.CollectionDir(projectID, collectionID), "collection.json")
}

func (l Layout) EntryFile(projectID, collectionID, entryID string) string {
	return filepath.Join(l.CollectionDir(projectID, collectionID), entryID+".json")
}

// Rel returns path relative to the project root, for staging and
// per-file log lookups.
func (l Layout) Rel(projectID, path string) (string, error) {
	return filepath.Rel(l.ProjectDir(projectID), path)
}
