package tree

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/graph"
)

// AttachedFolder identifies an attachment point visible from a node's
// ancestry.
type AttachedFolder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ContextTree lists the attached folders hanging off any ancestor of
// nodeID (the node itself included). These are the folders a caller may
// exclude from BuildContext.
func (s *Service) ContextTree(ctx context.Context, nodeID string) ([]AttachedFolder, error) {
	chain, err := graph.AncestorChain(ctx, s.store.DB(), nodeID)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("context tree of %s: %w", nodeID, apperr.ErrNotFound)
	}

	var out []AttachedFolder
	seen := make(map[string]struct{})
	for _, ancestor := range chain {
		kids, err := graph.Children(ctx, s.store.DB(), ancestor.ID)
		if err != nil {
			return nil, err
		}
		for _, k := range kids {
			if !k.IsFolder || !k.IsAttached {
				continue
			}
			if _, ok := seen[k.ID]; ok {
				continue
			}
			seen[k.ID] = struct{}{}
			out = append(out, AttachedFolder{ID: k.ID, Name: k.Name})
		}
	}
	if out == nil {
		out = []AttachedFolder{}
	}
	return out, nil
}

// contextArticle is one collected article plus the attached folder it came
// from (empty for direct children).
type contextArticle struct {
	name    string
	content string
	source  string
}

// BuildContext walks the ancestor chain of nodeID and assembles the
// depth-ordered context document: at each level the direct non-attached
// articles plus everything under the level's attached folders (excluded
// ids skipped), shallowest level first so a consumer reads general context
// before specific context. A trailing section lists files attached to the
// node itself.
func (s *Service) BuildContext(ctx context.Context, nodeID string, excludedAttachedIDs []string) (string, error) {
	chain, err := graph.AncestorChain(ctx, s.store.DB(), nodeID)
	if err != nil {
		return "", err
	}
	if len(chain) == 0 {
		return "", fmt.Errorf("context of %s: %w", nodeID, apperr.ErrNotFound)
	}

	var parts []string
	for depth, ancestor := range chain {
		articles, err := s.levelArticles(ctx, ancestor.ID, excludedAttachedIDs)
		if err != nil {
			return "", err
		}
		if len(articles) == 0 {
			continue
		}

		heading := strings.Repeat("#", depth+1)
		parts = append(parts, fmt.Sprintf("%s Context: %s", heading, ancestor.Name))

		items := make([]string, 0, len(articles))
		for _, a := range articles {
			header := "File: " + a.name
			if a.source != "" {
				header += fmt.Sprintf(" (from attached folder: %s)", a.source)
			}
			body := a.content
			if body == "" {
				body = "> No content."
			}
			items = append(items, header+"\n\n"+body)
		}
		parts = append(parts, strings.Join(items, "\n\n"))
	}

	files, err := graph.FilesFor(ctx, s.store.DB(), nodeID)
	if err != nil {
		return "", err
	}
	if len(files) > 0 {
		parts = append(parts, fmt.Sprintf("## Attached Files for %s", chain[len(chain)-1].Name))
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = "- " + f.Filename
		}
		parts = append(parts, strings.Join(names, "\n"))
	}

	return strings.Join(parts, "\n\n"), nil
}

// levelArticles collects the context contributions of one ancestor level:
// direct non-folder, non-attached children, then every article reachable
// under each attached folder child not explicitly excluded, tagged with
// that folder's name.
func (s *Service) levelArticles(ctx context.Context, levelID string, excluded []string) ([]contextArticle, error) {
	kids, err := graph.Children(ctx, s.store.DB(), levelID)
	if err != nil {
		return nil, err
	}

	var out []contextArticle
	for _, k := range kids {
		if !k.IsFolder && !k.IsAttached {
			out = append(out, contextArticle{name: k.Name, content: k.Content})
		}
	}
	for _, k := range kids {
		if !k.IsFolder || !k.IsAttached {
			continue
		}
		if slices.Contains(excluded, k.ID) {
			continue
		}
		articles, err := graph.ArticlesUnder(ctx, s.store.DB(), k.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range articles {
			out = append(out, contextArticle{name: a.Name, content: a.Content, source: k.Name})
		}
	}
	return out, nil
}
