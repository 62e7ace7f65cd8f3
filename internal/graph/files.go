package graph

import (
	"context"
	"fmt"
)

// File is a typed record for an uploaded blob attached to a node. The blob
// bytes live in the external upload store under Filename; OriginalFilename
// is kept for display and download.
type File struct {
	ID               string `json:"id"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
}

// InsertFile records a file and links it to its owning node with a HAS_FILE
// edge.
func InsertFile(ctx context.Context, q Querier, nodeID string, f File) error {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO files (id, filename, original_filename) VALUES (?, ?, ?)
	`, f.ID, f.Filename, f.OriginalFilename); err != nil {
		return fmt.Errorf("graph: insert file: %w", err)
	}
	if _, err := q.ExecContext(ctx, `
		INSERT INTO edges (source, target, kind) VALUES (?, ?, ?)
	`, nodeID, f.ID, EdgeHasFile); err != nil {
		return fmt.Errorf("graph: link file: %w", err)
	}
	return nil
}

// FilesFor returns every file attached to nodeID.
func FilesFor(ctx context.Context, q Querier, nodeID string) ([]File, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT f.id, f.filename, f.original_filename
		FROM edges e JOIN files f ON f.id = e.target
		WHERE e.source = ? AND e.kind = ?
		ORDER BY f.original_filename
	`, nodeID, EdgeHasFile)
	if err != nil {
		return nil, fmt.Errorf("graph: files for: %w", err)
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.Filename, &f.OriginalFilename); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
