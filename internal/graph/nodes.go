package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Node is a typed record for a ContextItem in the tree.
type Node struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsFolder   bool   `json:"is_folder"`
	IsAttached bool   `json:"is_attached"`
	ReadOnly   bool   `json:"read_only"`
	Content    string `json:"content,omitempty"`
	Format     string `json:"content_format,omitempty"`
}

// Content formats.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

const nodeColumns = `id, name, is_folder, is_attached, read_only, content, content_format`

func scanNode(scanner interface{ Scan(dest ...any) error }) (Node, error) {
	var n Node
	err := scanner.Scan(&n.ID, &n.Name, &n.IsFolder, &n.IsAttached, &n.ReadOnly, &n.Content, &n.Format)
	if err != nil {
		return n, err
	}
	// Nodes written before the format field existed default to markdown.
	// Normalised here, once, at read time.
	if n.Format == "" {
		n.Format = FormatMarkdown
	}
	return n, nil
}

// GetNode returns a node by id, or nil when it does not exist.
func GetNode(ctx context.Context, q Querier, id string) (*Node, error) {
	row := q.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("graph: get node: %w", err)
	}
	return &n, nil
}

// ChildByName returns the child of parentID named name, or nil.
func ChildByName(ctx context.Context, q Querier, parentID, name string) (*Node, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+nodeColumnsPrefixed("n")+`
		FROM edges e
		JOIN nodes n ON n.id = e.target
		WHERE e.source = ? AND e.kind = ? AND n.name = ?
	`, parentID, EdgeParentOf, name)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("graph: child by name: %w", err)
	}
	return &n, nil
}

// Children returns the direct children of parentID, folders first, then by
// name ascending.
func Children(ctx context.Context, q Querier, parentID string) ([]Node, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+nodeColumnsPrefixed("n")+`
		FROM edges e
		JOIN nodes n ON n.id = e.target
		WHERE e.source = ? AND e.kind = ?
		ORDER BY n.is_folder DESC, n.name
	`, parentID, EdgeParentOf)
	if err != nil {
		return nil, fmt.Errorf("graph: children: %w", err)
	}
	defer rows.Close()
	return collectNodes(rows)
}

// InsertNode creates a node record. Linking it under a parent is a separate
// edge operation.
func InsertNode(ctx context.Context, q Querier, n Node) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO nodes (id, name, is_folder, is_attached, read_only, content, content_format)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.Name, n.IsFolder, n.IsAttached, n.ReadOnly, n.Content, n.Format)
	if err != nil {
		return fmt.Errorf("graph: insert node: %w", err)
	}
	return nil
}

// SetContent overwrites the content and format of a node.
func SetContent(ctx context.Context, q Querier, id, content, format string) error {
	_, err := q.ExecContext(ctx, `UPDATE nodes SET content = ?, content_format = ? WHERE id = ?`,
		content, format, id)
	if err != nil {
		return fmt.Errorf("graph: set content: %w", err)
	}
	return nil
}

// SetName renames a node.
func SetName(ctx context.Context, q Querier, id, name string) error {
	_, err := q.ExecContext(ctx, `UPDATE nodes SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("graph: set name: %w", err)
	}
	return nil
}

// UpdateNodeFields overwrites the mutable fields of an existing node, the
// upsert-on-match path of the sync primitive.
func UpdateNodeFields(ctx context.Context, q Querier, n Node) error {
	_, err := q.ExecContext(ctx, `
		UPDATE nodes
		SET name = ?, is_folder = ?, is_attached = ?, read_only = ?, content = ?, content_format = ?
		WHERE id = ?
	`, n.Name, n.IsFolder, n.IsAttached, n.ReadOnly, n.Content, n.Format, n.ID)
	if err != nil {
		return fmt.Errorf("graph: update node fields: %w", err)
	}
	return nil
}

// LinkParent creates the PARENT_OF edge from parentID to childID.
func LinkParent(ctx context.Context, q Querier, parentID, childID string) error {
	_, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO edges (source, target, kind) VALUES (?, ?, ?)`,
		parentID, childID, EdgeParentOf)
	if err != nil {
		return fmt.Errorf("graph: link parent: %w", err)
	}
	return nil
}

// UnlinkParent removes the PARENT_OF edge pointing at childID.
func UnlinkParent(ctx context.Context, q Querier, childID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM edges WHERE target = ? AND kind = ?`, childID, EdgeParentOf)
	if err != nil {
		return fmt.Errorf("graph: unlink parent: %w", err)
	}
	return nil
}

// ParentOf returns the id of the node's parent, or empty string for the
// root (or an orphan).
func ParentOf(ctx context.Context, q Querier, childID string) (string, error) {
	var parentID string
	err := q.QueryRowContext(ctx, `SELECT source FROM edges WHERE target = ? AND kind = ?`,
		childID, EdgeParentOf).Scan(&parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("graph: parent of: %w", err)
	}
	return parentID, nil
}

// CountIDPrefix counts nodes whose id starts with prefix. Used by the sync
// status report.
func CountIDPrefix(ctx context.Context, q Querier, prefix string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes WHERE id LIKE ? ESCAPE '\'`,
		escapeLike(prefix)+"%").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("graph: count prefix: %w", err)
	}
	return n, nil
}

func nodeColumnsPrefixed(alias string) string {
	return alias + ".id, " + alias + ".name, " + alias + ".is_folder, " +
		alias + ".is_attached, " + alias + ".read_only, " + alias + ".content, " + alias + ".content_format"
}

func collectNodes(rows *sql.Rows) ([]Node, error) {
	var out []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
