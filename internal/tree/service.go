// Package tree implements the knowledge-tree engine on top of the graph
// store: path resolution, structural mutations with invariant checks,
// context aggregation, export/import, and search.
package tree

import (
	"context"
	"fmt"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/checksum"
	"github.com/starford/othala/internal/graph"
	"github.com/starford/othala/internal/render"
)

// Service owns all tree operations. Every mutation runs inside one store
// transaction so the read-check-write sequences stay atomic under
// concurrent callers.
type Service struct {
	store *graph.Store
}

// NewService creates a tree service over the given graph store.
func NewService(store *graph.Store) *Service {
	return &Service{store: store}
}

// Store exposes the underlying graph store for collaborators that need
// raw access (sync status counting, health checks).
func (s *Service) Store() *graph.Store {
	return s.store
}

// NodeDetail is the full representation of a node: the stored record, its
// attached files, and display-ready HTML.
type NodeDetail struct {
	graph.Node
	// ContentHTML is the sanitized display form of the content.
	ContentHTML string `json:"content_html"`
	// ContentMarkdown carries the raw markdown source when the stored
	// format is markdown, for editing round trips.
	ContentMarkdown string `json:"content_markdown,omitempty"`
	// Checksum is the SHA-256 of the stored content. Clients can compare
	// it across reads to detect concurrent edits.
	Checksum string       `json:"checksum"`
	Files    []graph.File `json:"files"`
}

// GetNode returns the node record, its file list, and rendered content.
func (s *Service) GetNode(ctx context.Context, nodeID string) (*NodeDetail, error) {
	n, err := graph.GetNode(ctx, s.store.DB(), nodeID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, apperr.ErrNotFound
	}
	files, err := graph.FilesFor(ctx, s.store.DB(), nodeID)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []graph.File{}
	}

	d := &NodeDetail{Node: *n, Checksum: checksum.Sum([]byte(n.Content)), Files: files}
	if n.Format == graph.FormatHTML {
		d.ContentHTML = render.Sanitize(n.Content)
	} else {
		d.ContentHTML = render.Markdown(n.Content)
		d.ContentMarkdown = n.Content
	}
	return d, nil
}

// ListChildren returns the direct children of nodeID, folders first and
// then by name ascending. Fails with NotFound when the node is missing.
func (s *Service) ListChildren(ctx context.Context, nodeID string) ([]graph.Node, error) {
	n, err := graph.GetNode(ctx, s.store.DB(), nodeID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("list children of %s: %w", nodeID, apperr.ErrNotFound)
	}
	kids, err := graph.Children(ctx, s.store.DB(), nodeID)
	if err != nil {
		return nil, err
	}
	if kids == nil {
		kids = []graph.Node{}
	}
	return kids, nil
}
