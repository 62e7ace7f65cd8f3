package tree

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/graph"
)

// ExportRecord is one entry of a tree dump: the slash-joined path from root
// (root excluded), the content, and the structural flags. Ids are not
// exported; import mints fresh ones.
type ExportRecord = graph.ExportRow

// Export serializes every non-read-only node reachable from root. The
// read-only filter applies along the whole path, so subtrees owned by sync
// never leak into a user data dump.
func (s *Service) Export(ctx context.Context) ([]ExportRecord, error) {
	rows, err := graph.ExportRows(ctx, s.store.DB())
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []ExportRecord{}
	}
	return rows, nil
}

// sortRecords orders records so every parent path lands before any of its
// children. Comparing segment slices (rather than raw path strings) keeps
// the guarantee even for names containing characters that sort below '/'.
func sortRecords(records []ExportRecord) {
	slices.SortFunc(records, func(a, b ExportRecord) int {
		return slices.Compare(strings.Split(a.Path, "/"), strings.Split(b.Path, "/"))
	})
}

// Import replays a tree dump in parent-before-child order inside a single
// transaction: either the whole batch lands or none of it does. Each
// record's ancestors are re-resolved by name; a missing ancestor means the
// input is corrupt and aborts the batch with InconsistentData.
func (s *Service) Import(ctx context.Context, records []ExportRecord) error {
	sorted := make([]ExportRecord, len(records))
	copy(sorted, records)
	sortRecords(sorted)

	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range sorted {
			if err := importRecord(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func importRecord(ctx context.Context, tx *sql.Tx, rec ExportRecord) error {
	segments := strings.Split(rec.Path, "/")
	name := segments[len(segments)-1]
	if name == "" {
		return fmt.Errorf("import: empty path: %w", apperr.ErrInconsistentData)
	}

	// Walk the ancestor segments from root. Every one of them must have
	// been created by an earlier record.
	parentID := graph.RootID
	for _, folderName := range segments[:len(segments)-1] {
		child, err := graph.ChildByName(ctx, tx, parentID, folderName)
		if err != nil {
			return err
		}
		if child == nil {
			return fmt.Errorf("import: parent folder %q not found for item %q: %w",
				folderName, name, apperr.ErrInconsistentData)
		}
		parentID = child.ID
	}

	isAttached := rec.IsAttached && rec.IsFolder
	content := rec.Content
	if rec.IsFolder {
		content = ""
	}

	existing, err := graph.ChildByName(ctx, tx, parentID, name)
	if err != nil {
		return err
	}
	if existing != nil {
		return graph.UpdateNodeFields(ctx, tx, graph.Node{
			ID:         existing.ID,
			Name:       name,
			IsFolder:   rec.IsFolder,
			IsAttached: isAttached,
			ReadOnly:   existing.ReadOnly,
			Content:    content,
			Format:     graph.FormatMarkdown,
		})
	}

	newID := uuid.NewString()
	if err := graph.InsertNode(ctx, tx, graph.Node{
		ID:         newID,
		Name:       name,
		IsFolder:   rec.IsFolder,
		IsAttached: isAttached,
		Content:    content,
		Format:     graph.FormatMarkdown,
	}); err != nil {
		return err
	}
	return graph.LinkParent(ctx, tx, parentID, newID)
}
