package tree

import (
	"context"
	"strings"

	"github.com/starford/othala/internal/graph"
)

// searchLimit caps the number of hits per query.
const searchLimit = 15

// SearchHit is one search match with both a display path and a URL path
// ready for navigation.
type SearchHit struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsFolder   bool   `json:"is_folder"`
	FolderPath string `json:"folder_path"`
	URLPath    string `json:"url_path"`
}

// Search finds nodes under startID whose name or content contains query,
// case-insensitively. An empty startID scopes the search to the whole
// tree. Matching is plain substring containment; there is no ranking.
func (s *Service) Search(ctx context.Context, query, startID string) ([]SearchHit, error) {
	if query == "" {
		return []SearchHit{}, nil
	}
	if startID == "" {
		startID = graph.RootID
	}

	nodes, err := graph.SearchSubtree(ctx, s.store.DB(), startID, query, searchLimit)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(nodes))
	for _, n := range nodes {
		crumbs, err := s.PathOf(ctx, n.ID)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(crumbs)-1)
		for _, c := range crumbs[1:] {
			names = append(names, c.Name)
		}
		display := "root"
		if len(names) > 0 {
			display = strings.Join(names, " / ")
		}
		hits = append(hits, SearchHit{
			ID:         n.ID,
			Name:       n.Name,
			IsFolder:   n.IsFolder,
			FolderPath: display,
			URLPath:    JoinPath(names),
		})
	}
	return hits, nil
}
