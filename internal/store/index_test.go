package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"cs-go/internal/model"
	"cs-go/internal/store"
)

const (
	projectA    = "11111111-1111-4111-8111-111111111111"
	collectionA = "22222222-2222-4222-8222-222222222222"
	entryA      = "33333333-3333-4333-8333-333333333333"
	assetA      = "44444444-4444-4444-8444-444444444444"
)

// seedTree lays out one project with a collection, an entry and an asset
// payload, plus noise files the index must skip.
func seedTree(t *testing.T) store.Layout {
	t.Helper()
	layout := store.Layout{ProjectsDir: t.TempDir()}

	dirs := []string{
		layout.ProjectDir(projectA),
		layout.CollectionDir(projectA, collectionA),
		layout.LFSDir(projectA),
		filepath.Join(layout.ProjectsDir, "not-a-uuid"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}

	files := []string{
		layout.CollectionFile(projectA, collectionA),
		layout.EntryFile(projectA, collectionA, entryA),
		layout.AssetContent(projectA, assetA, "png"),
		filepath.Join(layout.LFSDir(projectA), ".gitkeep"),
		filepath.Join(layout.LFSDir(projectA), "README"),
	}
	for _, f := range files {
		if err := os.WriteFile(f, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return layout
}

func TestIndex_ListReferences(t *testing.T) {
	layout := seedTree(t)
	idx := store.NewIndex(layout)

	t.Run("lists projects by folder name", func(t *testing.T) {
		refs, err := idx.ListReferences(model.ObjectTypeProject, "", "")
		if err != nil {
			t.Fatalf("ListReferences() error = %v", err)
		}
		if len(refs) != 1 || refs[0].ID != projectA {
			t.Errorf("ListReferences() = %v, want one ref for %s", refs, projectA)
		}
	})

	t.Run("lists collections within a project", func(t *testing.T) {
		refs, err := idx.ListReferences(model.ObjectTypeCollection, projectA, "")
		if err != nil {
			t.Fatalf("ListReferences() error = %v", err)
		}
		if len(refs) != 1 || refs[0].ID != collectionA {
			t.Errorf("ListReferences() = %v, want one ref for %s", refs, collectionA)
		}
	})

	t.Run("lists entries excluding the schema file", func(t *testing.T) {
		refs, err := idx.ListReferences(model.ObjectTypeEntry, projectA, collectionA)
		if err != nil {
			t.Fatalf("ListReferences() error = %v", err)
		}
		if len(refs) != 1 || refs[0].ID != entryA {
			t.Errorf("ListReferences() = %v, want one ref for %s", refs, entryA)
		}
	})

	t.Run("lists asset payloads with extensions", func(t *testing.T) {
		refs, err := idx.ListReferences(model.ObjectTypeAsset, projectA, "")
		if err != nil {
			t.Fatalf("ListReferences() error = %v", err)
		}
		if len(refs) != 1 || refs[0].ID != assetA || refs[0].Extension != "png" {
			t.Errorf("ListReferences() = %v, want one png ref for %s", refs, assetA)
		}
	})

	t.Run("missing scope parameters are errors", func(t *testing.T) {
		if _, err := idx.ListReferences(model.ObjectTypeCollection, "", ""); err == nil {
			t.Error("ListReferences() expected error without project id")
		}
		if _, err := idx.ListReferences(model.ObjectTypeEntry, projectA, ""); err == nil {
			t.Error("ListReferences() expected error without collection id")
		}
	})

	t.Run("unknown scopes return empty listings", func(t *testing.T) {
		refs, err := idx.ListReferences(model.ObjectTypeEntry, projectA, entryA)
		if err != nil {
			t.Fatalf("ListReferences() error = %v", err)
		}
		if len(refs) != 0 {
			t.Errorf("ListReferences() = %v, want empty", refs)
		}
	})
}

func TestParseFileName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want model.FileReference
		ok   bool
	}{
		{"id and extension", entryA + ".json", model.FileReference{ID: entryA, Extension: "json"}, true},
		{"id language extension", entryA + ".en.json", model.FileReference{ID: entryA, Language: "en", Extension: "json"}, true},
		{"hidden file", ".gitkeep", model.FileReference{}, false},
		{"non-uuid id", "collection.json", model.FileReference{}, false},
		{"too many segments", entryA + ".en.backup.json", model.FileReference{}, false},
		{"bare name", "README", model.FileReference{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := store.ParseFileName(tc.in)
			if ok != tc.ok {
				t.Fatalf("ParseFileName(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			}
			if got != tc.want {
				t.Errorf("ParseFileName(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}
