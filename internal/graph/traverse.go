package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// subtreeCTE enumerates a node and everything reachable from it over
// PARENT_OF edges. Bind the starting id, then EdgeParentOf.
const subtreeCTE = `
WITH RECURSIVE sub(id) AS (
	SELECT ?
	UNION ALL
	SELECT e.target FROM sub JOIN edges e ON e.source = sub.id AND e.kind = ?
)`

// ResolvePath resolves a sequence of child names starting from the root by
// building one join chain with a distinctly-bound parameter per segment.
// Returns empty string when any segment has no matching child.
func ResolvePath(ctx context.Context, q Querier, segments []string) (string, error) {
	var b strings.Builder
	args := make([]any, 0, len(segments)*2+1)

	b.WriteString("SELECT n")
	fmt.Fprintf(&b, "%d", len(segments))
	b.WriteString(".id FROM nodes n0")
	for i := range segments {
		fmt.Fprintf(&b, `
			JOIN edges e%[1]d ON e%[1]d.source = n%[2]d.id AND e%[1]d.kind = ?
			JOIN nodes n%[1]d ON n%[1]d.id = e%[1]d.target AND n%[1]d.name = ?`, i+1, i)
		args = append(args, EdgeParentOf, segments[i])
	}
	b.WriteString(" WHERE n0.id = ?")
	args = append(args, RootID)

	var id string
	err := q.QueryRowContext(ctx, b.String(), args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("graph: resolve path: %w", err)
	}
	return id, nil
}

// AncestorChain returns the nodes from root down to id inclusive, in
// root-to-leaf order. Returns nil when id does not exist.
func AncestorChain(ctx context.Context, q Querier, id string) ([]Node, error) {
	rows, err := q.QueryContext(ctx, `
		WITH RECURSIVE up(id, depth) AS (
			SELECT ?, 0
			UNION ALL
			SELECT e.source, up.depth + 1
			FROM up JOIN edges e ON e.target = up.id AND e.kind = ?
		)
		SELECT `+nodeColumnsPrefixed("n")+`
		FROM up JOIN nodes n ON n.id = up.id
		ORDER BY up.depth DESC
	`, id, EdgeParentOf)
	if err != nil {
		return nil, fmt.Errorf("graph: ancestor chain: %w", err)
	}
	defer rows.Close()
	return collectNodes(rows)
}

// PathExists reports whether target is reachable from source over zero or
// more PARENT_OF hops. source == target counts as reachable.
func PathExists(ctx context.Context, q Querier, source, target string) (bool, error) {
	if source == target {
		return true, nil
	}
	var one int
	err := q.QueryRowContext(ctx, subtreeCTE+`
		SELECT 1 FROM sub WHERE id = ? LIMIT 1
	`, source, EdgeParentOf, target).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("graph: path exists: %w", err)
	}
	return true, nil
}

// ArticlesUnder returns every non-folder node reachable from folderID over
// one or more PARENT_OF hops, by name ascending.
func ArticlesUnder(ctx context.Context, q Querier, folderID string) ([]Node, error) {
	rows, err := q.QueryContext(ctx, subtreeCTE+`
		SELECT `+nodeColumnsPrefixed("n")+`
		FROM sub JOIN nodes n ON n.id = sub.id
		WHERE n.id != ? AND n.is_folder = 0
		ORDER BY n.name
	`, folderID, EdgeParentOf, folderID)
	if err != nil {
		return nil, fmt.Errorf("graph: articles under: %w", err)
	}
	defer rows.Close()
	return collectNodes(rows)
}

// DeleteSubtree removes id, every node reachable from it, all edges touching
// those nodes, and any file records they own. Must run inside a transaction.
// Each statement re-derives the subtree from the CTE instead of binding one
// parameter per id, so the size of the subtree never hits SQLite's
// host-parameter cap. Node rows go first; the edge cleanup then sweeps
// everything left dangling, without reading the edge table it mutates.
func DeleteSubtree(ctx context.Context, q Querier, id string) error {
	if _, err := q.ExecContext(ctx, subtreeCTE+`
		DELETE FROM files WHERE id IN (
			SELECT target FROM edges WHERE kind = ? AND source IN (SELECT id FROM sub)
		)`, id, EdgeParentOf, EdgeHasFile); err != nil {
		return fmt.Errorf("graph: delete files: %w", err)
	}
	if _, err := q.ExecContext(ctx, subtreeCTE+`
		DELETE FROM nodes WHERE id IN (SELECT id FROM sub)
	`, id, EdgeParentOf); err != nil {
		return fmt.Errorf("graph: delete nodes: %w", err)
	}
	if _, err := q.ExecContext(ctx, `
		DELETE FROM edges
		WHERE source NOT IN (SELECT id FROM nodes)
		   OR (kind = ? AND target NOT IN (SELECT id FROM nodes))
	`, EdgeParentOf); err != nil {
		return fmt.Errorf("graph: delete edges: %w", err)
	}
	return nil
}

// ExportRow is one serialized tree entry: the slash-joined path from root
// (root itself excluded) plus content and flags.
type ExportRow struct {
	Path       string `json:"path"`
	Content    string `json:"content"`
	IsFolder   bool   `json:"is_folder"`
	IsAttached bool   `json:"is_attached"`
}

// ExportRows walks every PARENT_OF path from root whose nodes are all
// non-read-only and returns one row per reachable node. The read-only
// filter applies at every level, so a writable node under a read-only
// folder is excluded too.
func ExportRows(ctx context.Context, q Querier) ([]ExportRow, error) {
	rows, err := q.QueryContext(ctx, `
		WITH RECURSIVE t(id, path) AS (
			SELECT n.id, n.name
			FROM edges e JOIN nodes n ON n.id = e.target
			WHERE e.source = ? AND e.kind = ? AND n.read_only = 0
			UNION ALL
			SELECT n.id, t.path || '/' || n.name
			FROM t
			JOIN edges e ON e.source = t.id AND e.kind = ?
			JOIN nodes n ON n.id = e.target
			WHERE n.read_only = 0
		)
		SELECT t.path, n.content, n.is_folder, n.is_attached
		FROM t JOIN nodes n ON n.id = t.id
		ORDER BY t.path
	`, RootID, EdgeParentOf, EdgeParentOf)
	if err != nil {
		return nil, fmt.Errorf("graph: export rows: %w", err)
	}
	defer rows.Close()

	var out []ExportRow
	for rows.Next() {
		var r ExportRow
		if err := rows.Scan(&r.Path, &r.Content, &r.IsFolder, &r.IsAttached); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FolderEdge is one parent/child relationship between folders, as consumed
// by the in-memory folder tree builder.
type FolderEdge struct {
	ParentID   string
	ID         string
	Name       string
	IsAttached bool
}

// FolderEdges returns every PARENT_OF edge whose child is a folder, ordered
// by child name, in a single query.
func FolderEdges(ctx context.Context, q Querier) ([]FolderEdge, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT e.source, n.id, n.name, n.is_attached
		FROM edges e JOIN nodes n ON n.id = e.target
		WHERE e.kind = ? AND n.is_folder = 1
		ORDER BY n.name
	`, EdgeParentOf)
	if err != nil {
		return nil, fmt.Errorf("graph: folder edges: %w", err)
	}
	defer rows.Close()

	var out []FolderEdge
	for rows.Next() {
		var fe FolderEdge
		if err := rows.Scan(&fe.ParentID, &fe.ID, &fe.Name, &fe.IsAttached); err != nil {
			return nil, err
		}
		out = append(out, fe)
	}
	return out, rows.Err()
}

// SearchSubtree returns nodes under startID (the start node excluded only
// when it is the root) whose name or content contains query,
// case-insensitively, up to limit matches.
func SearchSubtree(ctx context.Context, q Querier, startID, query string, limit int) ([]Node, error) {
	like := "%" + escapeLike(strings.ToLower(query)) + "%"
	rows, err := q.QueryContext(ctx, subtreeCTE+`
		SELECT `+nodeColumnsPrefixed("n")+`
		FROM sub JOIN nodes n ON n.id = sub.id
		WHERE n.id != ?
		  AND (lower(n.name) LIKE ? ESCAPE '\' OR lower(n.content) LIKE ? ESCAPE '\')
		LIMIT ?
	`, startID, EdgeParentOf, RootID, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("graph: search: %w", err)
	}
	defer rows.Close()
	return collectNodes(rows)
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
