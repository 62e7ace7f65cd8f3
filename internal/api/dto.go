package api

import (
	"github.com/starford/othala/internal/graph"
	"github.com/starford/othala/internal/tree"
)

// CreateNodeRequest is the request body for creating a node.
type CreateNodeRequest struct {
	ParentID   string `json:"parent_id"`
	Name       string `json:"name"`
	IsFolder   bool   `json:"is_folder"`
	IsAttached bool   `json:"is_attached"`
}

// UpdateNodeRequest is the request body for updating a node. All fields
// are optional; absent ones are left untouched.
type UpdateNodeRequest struct {
	Name    *string `json:"name,omitempty"`
	Content *string `json:"content,omitempty"`
	Format  string  `json:"content_format,omitempty"`
}

// MoveNodeRequest is the request body for moving a node.
type MoveNodeRequest struct {
	TargetID string `json:"target_id"`
}

// NodeDetail is the full node response type (aliased from the domain layer).
type NodeDetail = tree.NodeDetail

// BrowseResponse bundles everything the tree view needs for one location:
// the resolved node, its children, and the breadcrumb trail.
type BrowseResponse struct {
	Node     *NodeDetail  `json:"node"`
	Children []graph.Node `json:"children"`
	Crumbs   []tree.Crumb `json:"crumbs"`
}

// ChildrenResponse wraps a child listing.
type ChildrenResponse struct {
	Children []graph.Node `json:"children"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []tree.SearchHit `json:"results"`
}

// ContextResponse carries an assembled context document.
type ContextResponse struct {
	Context string `json:"context"`
}

// ContextTreeResponse lists attached folders visible from a node.
type ContextTreeResponse struct {
	Folders []tree.AttachedFolder `json:"folders"`
}

// FileUploadResponse is returned after a successful attachment upload.
type FileUploadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// ImportRequest is the request body for an admin tree import.
type ImportRequest struct {
	Records []tree.ExportRecord `json:"records"`
}
