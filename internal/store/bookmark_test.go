package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBookmarkRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bookmarks()
	ctx := context.Background()

	first := &Bookmark{URL: "https://go.dev", Title: "Go"}
	if err := repo.Add(ctx, first); err != nil {
		t.Fatalf("failed to add bookmark: %v", err)
	}
	if first.ID == "" {
		t.Fatal("ID should be assigned")
	}

	untitled := &Bookmark{URL: "https://example.org"}
	if err := repo.Add(ctx, untitled); err != nil {
		t.Fatalf("failed to add bookmark: %v", err)
	}
	if untitled.Title != "https://example.org" {
		t.Errorf("expected URL as default title, got %q", untitled.Title)
	}

	if err := repo.Add(ctx, &Bookmark{URL: "https://go.dev", Title: "Again"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(list) != 2 || list[0].URL != "https://go.dev" || list[1].URL != "https://example.org" {
		t.Errorf("unexpected bookmarks: %+v", list)
	}

	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := repo.Delete(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByURL(ctx, "https://go.dev"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBookmarkRepository_Import(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bookmarks()
	ctx := context.Background()

	if err := repo.Add(ctx, &Bookmark{URL: "https://go.dev", Title: "Go"}); err != nil {
		t.Fatalf("failed to add bookmark: %v", err)
	}

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	n, err := repo.Import(ctx, []*Bookmark{
		{ID: "b-1", URL: "https://go.dev", Title: "Duplicate"},
		{ID: "b-2", URL: "https://pkg.go.dev", Title: "Packages", CreatedAt: created},
		nil,
		{URL: ""},
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 imported bookmark, got %d", n)
	}

	b, err := repo.GetByURL(ctx, "https://pkg.go.dev")
	if err != nil {
		t.Fatalf("imported bookmark missing: %v", err)
	}
	if b.ID != "b-2" || !b.CreatedAt.Equal(created) {
		t.Errorf("import should keep id and creation time, got %+v", b)
	}

	again, err := repo.Import(ctx, []*Bookmark{{ID: "b-2", URL: "https://pkg.go.dev"}})
	if err != nil || again != 0 {
		t.Errorf("re-import should be a no-op, got %d, %v", again, err)
	}
}
