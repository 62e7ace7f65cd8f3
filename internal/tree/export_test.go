package tree

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/graph"
)

func TestExportImportRoundTrip(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a := mustFolder(t, svc, graph.RootID, "A")
	attached, err := svc.CreateNode(ctx, a.ID, "Ref", true, true)
	if err != nil {
		t.Fatalf("create attached: %v", err)
	}
	mustArticle(t, svc, attached.ID, "ref.md", "reference body")
	mustArticle(t, svc, a.ID, "doc.md", "doc body")

	records, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("len(records) = %d, want 4: %+v", len(records), records)
	}

	if err := svc.Store().Wipe(ctx); err != nil {
		t.Fatalf("wipe: %v", err)
	}
	if err := svc.Import(ctx, records); err != nil {
		t.Fatalf("import: %v", err)
	}

	id, err := svc.Resolve(ctx, "A/Ref/ref.md", ResolveStrict)
	if err != nil {
		t.Fatalf("resolve after import: %v", err)
	}
	got, err := svc.GetNode(ctx, id)
	if err != nil {
		t.Fatalf("get node: %v", err)
	}
	if got.Content != "reference body" {
		t.Errorf("content = %q", got.Content)
	}

	refID, err := svc.Resolve(ctx, "A/Ref", ResolveStrict)
	if err != nil {
		t.Fatalf("resolve folder: %v", err)
	}
	ref, err := svc.GetNode(ctx, refID)
	if err != nil {
		t.Fatalf("get folder: %v", err)
	}
	if !ref.IsFolder || !ref.IsAttached {
		t.Errorf("attached flag lost on import: %+v", ref.Node)
	}
}

func TestExportSkipsReadOnlySubtrees(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	mustArticle(t, svc, graph.RootID, "mine.md", "keep")
	synced, err := svc.UpsertByName(ctx, graph.RootID, "Companies", UpsertFields{IsFolder: true, ReadOnly: true})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// A non-read-only node below a read-only one is still excluded: the
	// filter applies along the whole path.
	if _, err := svc.UpsertByName(ctx, synced.ID, "Acme", UpsertFields{IsFolder: true}); err != nil {
		t.Fatalf("upsert child: %v", err)
	}

	records, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(records) != 1 || records[0].Path != "mine.md" {
		t.Fatalf("records = %+v, want only mine.md", records)
	}
}

func TestImportUnorderedInput(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	// Children listed before their parents; import must sort them.
	records := []ExportRecord{
		{Path: "A/B/deep.md", Content: "x", IsFolder: false},
		{Path: "A/B", IsFolder: true},
		{Path: "A", IsFolder: true},
	}
	if err := svc.Import(ctx, records); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := svc.Resolve(ctx, "A/B/deep.md", ResolveStrict); err != nil {
		t.Fatalf("resolve: %v", err)
	}
}

func TestImportMissingParentFails(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	records := []ExportRecord{
		{Path: "Missing/orphan.md", Content: "x"},
	}
	if err := svc.Import(ctx, records); !errors.Is(err, apperr.ErrInconsistentData) {
		t.Fatalf("err = %v, want ErrInconsistentData", err)
	}

	// The failed batch must not leave partial state behind.
	children, err := svc.ListChildren(ctx, graph.RootID)
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if len(children) != 0 {
		t.Errorf("partial import leaked nodes: %+v", children)
	}
}

func TestImportUpdatesExistingNodes(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	n := mustArticle(t, svc, graph.RootID, "doc.md", "old")

	if err := svc.Import(ctx, []ExportRecord{{Path: "doc.md", Content: "new"}}); err != nil {
		t.Fatalf("import: %v", err)
	}
	got, err := svc.GetNode(ctx, n.ID)
	if err != nil {
		t.Fatalf("get node: %v", err)
	}
	if got.Content != "new" {
		t.Errorf("content = %q, want new (existing id reused)", got.Content)
	}
}
