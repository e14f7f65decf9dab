package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cs-go/internal/model"
)

// ProjectExport is a denormalized project: every collection with its
// entries, and every asset, inlined alongside the project metadata.
type ProjectExport struct {
	Project     *model.Project     `json:"project"`
	Collections []CollectionExport `json:"collections"`
	Assets      []*model.Asset     `json:"assets"`
}

// CollectionExport pairs a collection with all of its entries.
type CollectionExport struct {
	Collection *model.Collection `json:"collection"`
	Entries    []*model.Entry    `json:"entries"`
}

// ExportProject hydrates a project and everything it owns.
func (s *Service) ExportProject(ctx context.Context, id string) (*ProjectExport, error) {
	project, err := s.ReadProject(ctx, id)
	if err != nil {
		return nil, err
	}
	collections, _, err := s.ListCollections(ctx, id, ListOptions{})
	if err != nil {
		return nil, err
	}
	export := &ProjectExport{Project: project, Collections: make([]CollectionExport, 0, len(collections))}
	for _, collection := range collections {
		entries, _, err := s.ListEntries(ctx, id, collection.ID, ListOptions{})
		if err != nil {
			return nil, err
		}
		export.Collections = append(export.Collections, CollectionExport{Collection: collection, Entries: entries})
	}
	if export.Assets, _, err = s.ListAssets(ctx, id, ListOptions{}); err != nil {
		return nil, err
	}
	return export, nil
}

// ExportToJSON serializes a denormalized project.
func (s *Service) ExportToJSON(ctx context.Context, id string) ([]byte, error) {
	export, err := s.ExportProject(ctx, id)
	if err != nil {
		return nil, err
	}
	raw, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding project export: %w", err)
	}
	return raw, nil
}

// SearchHit locates one object matching a search query.
type SearchHit struct {
	ObjectType   model.ObjectType
	ID           string
	CollectionID string
	Match        string
}

// SearchProject scans a project's objects for a case-insensitive substring
// match. A plain directory scan, consistent with the store having no
// indexes beyond the filesystem.
func (s *Service) SearchProject(ctx context.Context, id, query string) ([]SearchHit, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	export, err := s.ExportProject(ctx, id)
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	if containsFold(export.Project.Name, query) || containsFold(export.Project.Description, query) {
		hits = append(hits, SearchHit{ObjectType: model.ObjectTypeProject, ID: id, Match: export.Project.Name})
	}
	for _, asset := range export.Assets {
		if containsFold(asset.Name, query) || containsFold(asset.Description, query) {
			hits = append(hits, SearchHit{ObjectType: model.ObjectTypeAsset, ID: asset.ID, Match: asset.Name})
		}
	}
	for _, ce := range export.Collections {
		if collectionMatches(ce.Collection, query) {
			hits = append(hits, SearchHit{ObjectType: model.ObjectTypeCollection, ID: ce.Collection.ID, Match: ce.Collection.Slug.Singular})
		}
		for _, entry := range ce.Entries {
			if match, ok := entryMatches(entry, query); ok {
				hits = append(hits, SearchHit{ObjectType: model.ObjectTypeEntry, ID: entry.ID, CollectionID: ce.Collection.ID, Match: match})
			}
		}
	}
	return hits, nil
}

func collectionMatches(c *model.Collection, query string) bool {
	if containsFold(c.Slug.Singular, query) || containsFold(c.Slug.Plural, query) {
		return true
	}
	for _, name := range []model.TranslatableString{c.Name.Singular, c.Name.Plural, c.Description} {
		for _, translation := range name {
			if containsFold(translation, query) {
				return true
			}
		}
	}
	return false
}

func entryMatches(e *model.Entry, query string) (string, bool) {
	for _, value := range e.Values {
		for _, content := range value.Content {
			if text, ok := content.(string); ok && containsFold(text, query) {
				return text, true
			}
		}
	}
	return "", false
}

func containsFold(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}
