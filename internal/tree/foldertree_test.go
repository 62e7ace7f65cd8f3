package tree

import (
	"context"
	"testing"

	"github.com/starford/othala/internal/graph"
)

func TestFolderTree(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a := mustFolder(t, svc, graph.RootID, "A")
	sub := mustFolder(t, svc, a.ID, "Sub")
	if _, err := svc.CreateNode(ctx, graph.RootID, "Ref", true, true); err != nil {
		t.Fatalf("create attached: %v", err)
	}
	// Articles never appear in the folder tree.
	mustArticle(t, svc, a.ID, "doc.md", "")

	root, err := svc.FolderTree(ctx)
	if err != nil {
		t.Fatalf("folder tree: %v", err)
	}
	if root.ID != graph.RootID || root.Name != graph.RootName {
		t.Fatalf("root = %+v", root)
	}
	if len(root.Children) != 2 {
		t.Fatalf("root children = %+v, want A and Ref", root.Children)
	}
	// Name-ascending within a level.
	if root.Children[0].Name != "A" || root.Children[1].Name != "Ref" {
		t.Errorf("ordering: %q, %q", root.Children[0].Name, root.Children[1].Name)
	}
	if !root.Children[1].IsAttached {
		t.Error("Ref should carry its attached flag")
	}

	aNode := root.Children[0]
	if len(aNode.Children) != 1 || aNode.Children[0].ID != sub.ID {
		t.Fatalf("A children = %+v, want Sub only", aNode.Children)
	}
	if aNode.Children[0].Children == nil {
		t.Error("leaf folder children should be an empty slice, not nil")
	}
}
