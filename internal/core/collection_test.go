package core_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"cs-go/internal/core"
	"cs-go/internal/model"
)

func TestCreateCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns ids to field definitions and commits", func(t *testing.T) {
		f := newFixture(t)
		project := f.createProject(t, "website")

		collection := f.createCollection(t, project.ID, textField())
		if collection.FieldDefinitions[0].ID == "" {
			t.Error("field definition was not assigned an id")
		}
		if _, err := os.Stat(f.layout.CollectionFile(project.ID, collection.ID)); err != nil {
			t.Errorf("collection file missing: %v", err)
		}

		commits := f.gw.Commits(f.layout.ProjectDir(project.ID))
		if commits[0] != "create collection" {
			t.Errorf("latest commit = %q, want %q", commits[0], "create collection")
		}
	})

	t.Run("fails for a missing project", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateCollection(ctx, "00000000-0000-4000-8000-000000000099", core.CreateCollectionInput{})
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("CreateCollection() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("cleans up when the commit fails", func(t *testing.T) {
		f := newFixture(t)
		project := f.createProject(t, "website")
		f.gw.Errs["CommitFiles"] = errors.New("disk full")

		_, err := f.svc.CreateCollection(ctx, project.ID, core.CreateCollectionInput{
			Name: model.TranslatableNames{
				Singular: model.TranslatableString{"en": "Post"},
				Plural:   model.TranslatableString{"en": "Posts"},
			},
			Slug: model.Slugs{Singular: "post", Plural: "posts"},
		})
		if err == nil {
			t.Fatal("CreateCollection() expected error")
		}
		count, countErr := f.svc.CountCollections(ctx, project.ID)
		if countErr != nil {
			t.Fatalf("CountCollections() error = %v", countErr)
		}
		if count != 0 {
			t.Errorf("CountCollections() = %d after failed create, want 0", count)
		}
	})
}

func TestUpdateCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	project := f.createProject(t, "website")
	collection := f.createCollection(t, project.ID, textField())

	icon := "pencil"
	got, err := f.svc.UpdateCollection(ctx, project.ID, collection.ID, core.UpdateCollectionInput{Icon: &icon})
	if err != nil {
		t.Fatalf("UpdateCollection() error = %v", err)
	}
	if got.Icon != "pencil" {
		t.Errorf("Icon = %q, want %q", got.Icon, "pencil")
	}
	if got.Slug != collection.Slug {
		t.Error("untouched fields must survive")
	}
	if got.Updated == nil {
		t.Error("Updated must be stamped")
	}

	t.Run("replacement definitions get fresh ids", func(t *testing.T) {
		defs := []model.FieldDefinition{textField(), textField()}
		got, err := f.svc.UpdateCollection(ctx, project.ID, collection.ID, core.UpdateCollectionInput{FieldDefinitions: &defs})
		if err != nil {
			t.Fatalf("UpdateCollection() error = %v", err)
		}
		for i, def := range got.FieldDefinitions {
			if def.ID == "" {
				t.Errorf("fieldDefinitions[%d] has no id", i)
			}
		}
	})
}

func TestDeleteCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	project := f.createProject(t, "website")
	collection := f.createCollection(t, project.ID, textField())
	defID := collection.FieldDefinitions[0].ID

	entry, err := f.svc.CreateEntry(ctx, project.ID, collection.ID, []model.Value{textValue(defID, "en", "hello")})
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}

	if err := f.svc.DeleteCollection(ctx, project.ID, collection.ID); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}

	if _, err := os.Stat(f.layout.CollectionDir(project.ID, collection.ID)); !os.IsNotExist(err) {
		t.Error("collection directory still exists")
	}
	if _, err := f.svc.ReadCollection(ctx, project.ID, collection.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("ReadCollection() error = %v, want ErrNotFound", err)
	}
	// Entries go with their collection, including cached copies.
	if _, err := f.svc.ReadEntry(ctx, project.ID, collection.ID, entry.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("ReadEntry() error = %v, want ErrNotFound", err)
	}
}

func TestListCollections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	project := f.createProject(t, "website")

	slugs := []string{"post", "page", "author"}
	for _, slug := range slugs {
		_, err := f.svc.CreateCollection(ctx, project.ID, core.CreateCollectionInput{
			Name: model.TranslatableNames{
				Singular: model.TranslatableString{"en": slug},
				Plural:   model.TranslatableString{"en": slug + "s"},
			},
			Slug: model.Slugs{Singular: slug, Plural: slug + "s"},
		})
		if err != nil {
			t.Fatalf("CreateCollection(%s) error = %v", slug, err)
		}
	}

	collections, total, err := f.svc.ListCollections(ctx, project.ID, core.ListOptions{SortBy: "name"})
	if err != nil {
		t.Fatalf("ListCollections() error = %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	want := []string{"author", "page", "post"}
	for i, c := range collections {
		if c.Slug.Singular != want[i] {
			t.Errorf("collections[%d] = %q, want %q", i, c.Slug.Singular, want[i])
		}
	}
	if len(collections[0].History) == 0 {
		t.Error("listed collections must carry their history")
	}
}
