package tree

import (
	"context"

	"github.com/starford/othala/internal/graph"
)

// Folder is one entry of the nested folder hierarchy.
type Folder struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	IsAttached bool      `json:"is_attached"`
	Children   []*Folder `json:"children"`
}

// FolderTree fetches every folder edge in one query and assembles the
// nested hierarchy in memory, so building the tree costs one round trip
// instead of one per level. The flat edge list is fully materialized first
// because a parent can appear after its children in scan order.
func (s *Service) FolderTree(ctx context.Context) (*Folder, error) {
	edges, err := graph.FolderEdges(ctx, s.store.DB())
	if err != nil {
		return nil, err
	}

	byParent := make(map[string][]*Folder)
	for _, e := range edges {
		byParent[e.ParentID] = append(byParent[e.ParentID], &Folder{
			ID:         e.ID,
			Name:       e.Name,
			IsAttached: e.IsAttached,
		})
	}

	var attach func(parentID string) []*Folder
	attach = func(parentID string) []*Folder {
		children := byParent[parentID]
		if children == nil {
			children = []*Folder{}
		}
		for _, c := range children {
			c.Children = attach(c.ID)
		}
		return children
	}

	return &Folder{
		ID:       graph.RootID,
		Name:     graph.RootName,
		Children: attach(graph.RootID),
	}, nil
}
