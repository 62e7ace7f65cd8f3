package graph

import (
	"context"
	"database/sql"
	"os"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dbFile, err := os.CreateTemp(t.TempDir(), "othala-graph-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()

	s, err := Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreate(t *testing.T, s *Store, parentID string, n Node) {
	t.Helper()
	ctx := context.Background()
	if n.Format == "" {
		n.Format = FormatMarkdown
	}
	if err := InsertNode(ctx, s.DB(), n); err != nil {
		t.Fatalf("InsertNode(%s): %v", n.ID, err)
	}
	if err := LinkParent(ctx, s.DB(), parentID, n.ID); err != nil {
		t.Fatalf("LinkParent(%s): %v", n.ID, err)
	}
}

func TestOpenBootstrapsRoot(t *testing.T) {
	s := testStore(t)
	root, err := GetNode(context.Background(), s.DB(), RootID)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if root == nil {
		t.Fatal("root node missing after Open")
	}
	if !root.IsFolder || root.Name != RootName {
		t.Errorf("root = %+v", root)
	}
}

func TestChildrenOrdering(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mustCreate(t, s, RootID, Node{ID: "a", Name: "zeta.md"})
	mustCreate(t, s, RootID, Node{ID: "b", Name: "Beta", IsFolder: true})
	mustCreate(t, s, RootID, Node{ID: "c", Name: "Alpha", IsFolder: true})

	kids, err := Children(ctx, s.DB(), RootID)
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	if len(kids) != 3 {
		t.Fatalf("len = %d, want 3", len(kids))
	}
	// Folders first, then names ascending.
	want := []string{"Alpha", "Beta", "zeta.md"}
	for i, w := range want {
		if kids[i].Name != w {
			t.Errorf("kids[%d].Name = %q, want %q", i, kids[i].Name, w)
		}
	}
}

func TestResolvePathJoinChain(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mustCreate(t, s, RootID, Node{ID: "d", Name: "Docs", IsFolder: true})
	mustCreate(t, s, "d", Node{ID: "g", Name: "Guides", IsFolder: true})
	mustCreate(t, s, "g", Node{ID: "i", Name: "Intro.md", Content: "hello"})

	id, err := ResolvePath(ctx, s.DB(), []string{"Docs", "Guides", "Intro.md"})
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if id != "i" {
		t.Errorf("id = %q, want i", id)
	}

	// Empty path resolves to the root itself.
	id, err = ResolvePath(ctx, s.DB(), nil)
	if err != nil {
		t.Fatalf("ResolvePath(empty): %v", err)
	}
	if id != RootID {
		t.Errorf("id = %q, want root", id)
	}

	// Missing segment yields no match.
	id, err = ResolvePath(ctx, s.DB(), []string{"Docs", "Nope"})
	if err != nil {
		t.Fatalf("ResolvePath(missing): %v", err)
	}
	if id != "" {
		t.Errorf("id = %q, want empty", id)
	}
}

func TestAncestorChain(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mustCreate(t, s, RootID, Node{ID: "d", Name: "Docs", IsFolder: true})
	mustCreate(t, s, "d", Node{ID: "i", Name: "Intro.md"})

	chain, err := AncestorChain(ctx, s.DB(), "i")
	if err != nil {
		t.Fatalf("AncestorChain: %v", err)
	}
	var names []string
	for _, n := range chain {
		names = append(names, n.Name)
	}
	want := []string{RootName, "Docs", "Intro.md"}
	if len(names) != len(want) {
		t.Fatalf("chain = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("chain[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	chain, err = AncestorChain(ctx, s.DB(), "ghost")
	if err != nil {
		t.Fatalf("AncestorChain(ghost): %v", err)
	}
	if len(chain) != 0 {
		t.Errorf("chain for missing node = %v", chain)
	}
}

func TestPathExists(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mustCreate(t, s, RootID, Node{ID: "d", Name: "Docs", IsFolder: true})
	mustCreate(t, s, "d", Node{ID: "sub", Name: "Sub", IsFolder: true})

	for _, tc := range []struct {
		src, dst string
		want     bool
	}{
		{"d", "sub", true},
		{"d", "d", true},
		{"sub", "d", false},
		{RootID, "sub", true},
	} {
		got, err := PathExists(ctx, s.DB(), tc.src, tc.dst)
		if err != nil {
			t.Fatalf("PathExists(%s,%s): %v", tc.src, tc.dst, err)
		}
		if got != tc.want {
			t.Errorf("PathExists(%s,%s) = %v, want %v", tc.src, tc.dst, got, tc.want)
		}
	}
}

func TestDeleteSubtreeRemovesEverything(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mustCreate(t, s, RootID, Node{ID: "d", Name: "Docs", IsFolder: true})
	mustCreate(t, s, "d", Node{ID: "sub", Name: "Sub", IsFolder: true})
	mustCreate(t, s, "sub", Node{ID: "leaf", Name: "leaf.md"})
	if err := InsertFile(ctx, s.DB(), "leaf", File{ID: "f1", Filename: "f1.png", OriginalFilename: "pic.png"}); err != nil {
		t.Fatalf("InsertFile: %v", err)
	}

	if err := s.WithTx(ctx, func(tx *sql.Tx) error {
		return DeleteSubtree(ctx, tx, "d")
	}); err != nil {
		t.Fatalf("DeleteSubtree: %v", err)
	}

	for _, id := range []string{"d", "sub", "leaf"} {
		n, err := GetNode(ctx, s.DB(), id)
		if err != nil {
			t.Fatalf("GetNode(%s): %v", id, err)
		}
		if n != nil {
			t.Errorf("node %s still exists after subtree delete", id)
		}
	}

	var edges int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM edges`).Scan(&edges); err != nil {
		t.Fatal(err)
	}
	if edges != 0 {
		t.Errorf("dangling edges = %d, want 0", edges)
	}
	var files int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&files); err != nil {
		t.Fatal(err)
	}
	if files != 0 {
		t.Errorf("dangling files = %d, want 0", files)
	}
}

func TestDeleteSubtreeSparesSiblings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mustCreate(t, s, RootID, Node{ID: "gone", Name: "Gone", IsFolder: true})
	mustCreate(t, s, "gone", Node{ID: "gone-leaf", Name: "bye.md"})
	mustCreate(t, s, RootID, Node{ID: "keep", Name: "Keep", IsFolder: true})
	mustCreate(t, s, "keep", Node{ID: "keep-leaf", Name: "stay.md"})
	if err := InsertFile(ctx, s.DB(), "keep-leaf", File{ID: "kf", Filename: "kf.pdf", OriginalFilename: "kept.pdf"}); err != nil {
		t.Fatalf("InsertFile: %v", err)
	}

	if err := s.WithTx(ctx, func(tx *sql.Tx) error {
		return DeleteSubtree(ctx, tx, "gone")
	}); err != nil {
		t.Fatalf("DeleteSubtree: %v", err)
	}

	kids, err := Children(ctx, s.DB(), RootID)
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	if len(kids) != 1 || kids[0].ID != "keep" {
		t.Fatalf("root children = %+v, want only keep", kids)
	}
	if id, err := ResolvePath(ctx, s.DB(), []string{"Keep", "stay.md"}); err != nil || id != "keep-leaf" {
		t.Fatalf("ResolvePath = %q, %v", id, err)
	}
	files, err := FilesFor(ctx, s.DB(), "keep-leaf")
	if err != nil {
		t.Fatalf("FilesFor: %v", err)
	}
	if len(files) != 1 || files[0].ID != "kf" {
		t.Errorf("surviving files = %+v, want kf", files)
	}
}

func TestWipeRecreatesRoot(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mustCreate(t, s, RootID, Node{ID: "d", Name: "Docs", IsFolder: true})
	if err := s.Wipe(ctx); err != nil {
		t.Fatalf("Wipe: %v", err)
	}

	root, err := GetNode(ctx, s.DB(), RootID)
	if err != nil {
		t.Fatal(err)
	}
	if root == nil {
		t.Fatal("root missing after wipe")
	}
	kids, err := Children(ctx, s.DB(), RootID)
	if err != nil {
		t.Fatal(err)
	}
	if len(kids) != 0 {
		t.Errorf("children after wipe = %d, want 0", len(kids))
	}
}

func TestSearchSubtreeScoped(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mustCreate(t, s, RootID, Node{ID: "a", Name: "Alpha", IsFolder: true})
	mustCreate(t, s, RootID, Node{ID: "b", Name: "Beta", IsFolder: true})
	mustCreate(t, s, "a", Node{ID: "a1", Name: "notes.md", Content: "email configuration"})
	mustCreate(t, s, "b", Node{ID: "b1", Name: "notes.md", Content: "email configuration"})

	hits, err := SearchSubtree(ctx, s.DB(), "a", "EMAIL", 15)
	if err != nil {
		t.Fatalf("SearchSubtree: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "a1" {
		t.Errorf("hits = %+v, want just a1", hits)
	}
}
