package tree

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/graph"
	"github.com/starford/othala/internal/render"
)

// CreateNode creates a fresh node under parentID. Fails with Conflict when
// a sibling already carries the same name, with NotFound when the parent
// does not exist.
func (s *Service) CreateNode(ctx context.Context, parentID, name string, isFolder, isAttached bool) (*graph.Node, error) {
	if name == "" {
		return nil, fmt.Errorf("create node: empty name: %w", apperr.ErrInvalidInput)
	}
	// Attachment points are folders only.
	if isAttached && !isFolder {
		isAttached = false
	}
	node := graph.Node{
		ID:         uuid.NewString(),
		Name:       name,
		IsFolder:   isFolder,
		IsAttached: isAttached,
		Format:     graph.FormatMarkdown,
	}

	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		parent, err := graph.GetNode(ctx, tx, parentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return fmt.Errorf("create node: parent %s: %w", parentID, apperr.ErrNotFound)
		}
		existing, err := graph.ChildByName(ctx, tx, parentID, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("create node: %q already exists under %s: %w", name, parentID, apperr.ErrConflict)
		}
		if err := graph.InsertNode(ctx, tx, node); err != nil {
			return err
		}
		return graph.LinkParent(ctx, tx, parentID, node.ID)
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// UpdateContent overwrites a node's content. HTML input is sanitized
// against the allow-list before it is persisted; markdown is stored as-is
// and converted only at display time.
func (s *Service) UpdateContent(ctx context.Context, nodeID, content, format string) error {
	if format != graph.FormatHTML {
		format = graph.FormatMarkdown
	}
	if format == graph.FormatHTML {
		content = render.Sanitize(content)
	}
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		n, err := graph.GetNode(ctx, tx, nodeID)
		if err != nil {
			return err
		}
		if n == nil {
			return fmt.Errorf("update content of %s: %w", nodeID, apperr.ErrNotFound)
		}
		return graph.SetContent(ctx, tx, nodeID, content, format)
	})
}

// Rename changes a node's display name, subject to the same per-parent
// uniqueness rule as creation.
func (s *Service) Rename(ctx context.Context, nodeID, name string) error {
	if name == "" {
		return fmt.Errorf("rename: empty name: %w", apperr.ErrInvalidInput)
	}
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		n, err := graph.GetNode(ctx, tx, nodeID)
		if err != nil {
			return err
		}
		if n == nil {
			return fmt.Errorf("rename %s: %w", nodeID, apperr.ErrNotFound)
		}
		parentID, err := graph.ParentOf(ctx, tx, nodeID)
		if err != nil {
			return err
		}
		if parentID != "" {
			sibling, err := graph.ChildByName(ctx, tx, parentID, name)
			if err != nil {
				return err
			}
			if sibling != nil && sibling.ID != nodeID {
				return fmt.Errorf("rename to %q: %w", name, apperr.ErrConflict)
			}
		}
		return graph.SetName(ctx, tx, nodeID, name)
	})
}

// MoveNode reparents nodeID under newParentID. The cycle check and the
// detach/attach pair run in one transaction, so no caller ever observes a
// detached node.
func (s *Service) MoveNode(ctx context.Context, nodeID, newParentID string) error {
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if nodeID == graph.RootID {
			return fmt.Errorf("move: cannot move the root: %w", apperr.ErrInvalidOperation)
		}
		n, err := graph.GetNode(ctx, tx, nodeID)
		if err != nil {
			return err
		}
		if n == nil {
			return fmt.Errorf("move: node %s does not exist: %w", nodeID, apperr.ErrInvalidOperation)
		}
		parent, err := graph.GetNode(ctx, tx, newParentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return fmt.Errorf("move: target %s: %w", newParentID, apperr.ErrNotFound)
		}
		if !parent.IsFolder {
			return fmt.Errorf("move: target %s is not a folder: %w", newParentID, apperr.ErrInvalidOperation)
		}
		// A PARENT_OF path from the node to the target means the target is
		// the node itself or one of its descendants.
		cyclic, err := graph.PathExists(ctx, tx, nodeID, newParentID)
		if err != nil {
			return err
		}
		if cyclic {
			return fmt.Errorf("move %s under %s: %w", nodeID, newParentID, apperr.ErrCycleDetected)
		}
		// Name uniqueness holds in the destination too.
		sibling, err := graph.ChildByName(ctx, tx, newParentID, n.Name)
		if err != nil {
			return err
		}
		if sibling != nil && sibling.ID != nodeID {
			return fmt.Errorf("move: %q already exists under %s: %w", n.Name, newParentID, apperr.ErrConflict)
		}
		if err := graph.UnlinkParent(ctx, tx, nodeID); err != nil {
			return err
		}
		return graph.LinkParent(ctx, tx, newParentID, nodeID)
	})
}

// DeleteNode deletes nodeID and its whole subtree, detaching every edge
// including HAS_FILE. Deleting a nonexistent id is a no-op, so the
// operation is safe to retry. The root is guarded here.
func (s *Service) DeleteNode(ctx context.Context, nodeID string) error {
	if nodeID == graph.RootID {
		return fmt.Errorf("delete: cannot delete the root: %w", apperr.ErrInvalidOperation)
	}
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		n, err := graph.GetNode(ctx, tx, nodeID)
		if err != nil {
			return err
		}
		if n == nil {
			return nil
		}
		return graph.DeleteSubtree(ctx, tx, nodeID)
	})
}

// UpsertFields are the mutable fields applied by UpsertByName.
type UpsertFields struct {
	IsFolder   bool
	IsAttached bool
	ReadOnly   bool
	Content    string
}

// UpsertByName is the idempotent sync primitive: find a child of parentID
// named name and refresh its fields, or mint a deterministic id from the
// parent id and name and create it. Manually created nodes are matched by
// the same name lookup, so sync runs never duplicate them.
func (s *Service) UpsertByName(ctx context.Context, parentID, name string, fields UpsertFields) (*graph.Node, error) {
	if fields.IsAttached && !fields.IsFolder {
		fields.IsAttached = false
	}
	var node graph.Node
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		parent, err := graph.GetNode(ctx, tx, parentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return fmt.Errorf("upsert under %s: %w", parentID, apperr.ErrNotFound)
		}
		existing, err := graph.ChildByName(ctx, tx, parentID, name)
		if err != nil {
			return err
		}
		node = graph.Node{
			Name:       name,
			IsFolder:   fields.IsFolder,
			IsAttached: fields.IsAttached,
			ReadOnly:   fields.ReadOnly,
			Content:    fields.Content,
			Format:     graph.FormatMarkdown,
		}
		if existing != nil {
			node.ID = existing.ID
			return graph.UpdateNodeFields(ctx, tx, node)
		}
		node.ID = DeterministicID(parentID, name)
		if err := graph.InsertNode(ctx, tx, node); err != nil {
			return err
		}
		return graph.LinkParent(ctx, tx, parentID, node.ID)
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// DeterministicID derives a stable id from the parent id and child name,
// so repeated sync runs address the same node.
func DeterministicID(parentID, name string) string {
	sanitized := strings.ReplaceAll(name, " ", "_")
	sanitized = strings.ReplaceAll(sanitized, "/", "_")
	return parentID + "_" + sanitized
}

// RegisterFile records an uploaded blob against nodeID. The blob bytes are
// already persisted by the upload store; this only writes the graph side.
func (s *Service) RegisterFile(ctx context.Context, nodeID string, f *graph.File) error {
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		n, err := graph.GetNode(ctx, tx, nodeID)
		if err != nil {
			return err
		}
		if n == nil {
			return fmt.Errorf("attach file to %s: %w", nodeID, apperr.ErrNotFound)
		}
		return graph.InsertFile(ctx, tx, nodeID, *f)
	})
}
