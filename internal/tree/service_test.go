package tree

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/checksum"
	"github.com/starford/othala/internal/graph"
)

func testService(t *testing.T) *Service {
	t.Helper()

	path := filepath.Join(t.TempDir(), "graph.db")
	store, err := graph.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return NewService(store)
}

func mustFolder(t *testing.T, svc *Service, parentID, name string) *graph.Node {
	t.Helper()
	n, err := svc.CreateNode(context.Background(), parentID, name, true, false)
	if err != nil {
		t.Fatalf("create folder %q: %v", name, err)
	}
	return n
}

func mustArticle(t *testing.T, svc *Service, parentID, name, content string) *graph.Node {
	t.Helper()
	n, err := svc.CreateNode(context.Background(), parentID, name, false, false)
	if err != nil {
		t.Fatalf("create article %q: %v", name, err)
	}
	if content != "" {
		if err := svc.UpdateContent(context.Background(), n.ID, content, graph.FormatMarkdown); err != nil {
			t.Fatalf("set content for %q: %v", name, err)
		}
	}
	return n
}

func TestGetNodeRendersMarkdown(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	n := mustArticle(t, svc, graph.RootID, "notes.md", "# Hello")

	detail, err := svc.GetNode(ctx, n.ID)
	if err != nil {
		t.Fatalf("get node: %v", err)
	}
	if detail.ContentMarkdown != "# Hello" {
		t.Errorf("ContentMarkdown = %q, want raw source", detail.ContentMarkdown)
	}
	if want := "<h1>Hello</h1>"; !strings.Contains(detail.ContentHTML, want) {
		t.Errorf("ContentHTML = %q, want it to contain %q", detail.ContentHTML, want)
	}
	if detail.Files == nil {
		t.Error("Files should be an empty slice, not nil")
	}
	if want := checksum.Sum([]byte("# Hello")); detail.Checksum != want {
		t.Errorf("Checksum = %q, want %q", detail.Checksum, want)
	}
}

func TestGetNodeMissing(t *testing.T) {
	svc := testService(t)

	if _, err := svc.GetNode(context.Background(), "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListChildrenEmptyIsNotNil(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	f := mustFolder(t, svc, graph.RootID, "Empty")
	children, err := svc.ListChildren(ctx, f.ID)
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if children == nil {
		t.Error("children should be an empty slice, not nil")
	}
	if len(children) != 0 {
		t.Errorf("len(children) = %d, want 0", len(children))
	}

	if _, err := svc.ListChildren(ctx, "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func writeTempJSON(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
