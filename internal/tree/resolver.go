package tree

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/graph"
)

// ResolvePolicy controls what happens when a path segment has no matching
// child.
type ResolvePolicy int

const (
	// ResolveStrict fails with NotFound on the first unresolvable segment.
	ResolveStrict ResolvePolicy = iota
	// ResolveBrowse falls back to the root, the behaviour of interactive
	// browsing where a stale URL should land somewhere sensible.
	ResolveBrowse
)

// SplitPath splits a slash-delimited URL path into percent-decoded
// segments, dropping empty ones. A segment that fails to decode is kept
// verbatim.
func SplitPath(path string) []string {
	var out []string
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		if dec, err := url.PathUnescape(part); err == nil {
			part = dec
		}
		out = append(out, part)
	}
	return out
}

// JoinPath percent-encodes each name and joins them with slashes, the
// inverse of SplitPath. Encoding covers '/' and reserved URL characters so
// arbitrary node names round-trip.
func JoinPath(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = url.PathEscape(n)
	}
	return strings.Join(parts, "/")
}

// Resolve converts a slash-delimited, percent-encoded path into a node id
// with a single multi-hop query.
func (s *Service) Resolve(ctx context.Context, path string, policy ResolvePolicy) (string, error) {
	segments := SplitPath(path)
	id, err := graph.ResolvePath(ctx, s.store.DB(), segments)
	if err != nil {
		return "", err
	}
	if id == "" {
		if policy == ResolveBrowse {
			return graph.RootID, nil
		}
		return "", fmt.Errorf("resolve %q: %w", path, apperr.ErrNotFound)
	}
	return id, nil
}

// Crumb is one step of a breadcrumb trail.
type Crumb struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PathOf returns the breadcrumb trail from root to nodeID inclusive. The
// root's own name is the first entry.
func (s *Service) PathOf(ctx context.Context, nodeID string) ([]Crumb, error) {
	chain, err := graph.AncestorChain(ctx, s.store.DB(), nodeID)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("path of %s: %w", nodeID, apperr.ErrNotFound)
	}
	crumbs := make([]Crumb, len(chain))
	for i, n := range chain {
		crumbs[i] = Crumb{ID: n.ID, Name: n.Name}
	}
	return crumbs, nil
}

// URLPathOf returns the percent-encoded URL path for a node, excluding the
// root segment.
func (s *Service) URLPathOf(ctx context.Context, nodeID string) (string, error) {
	crumbs, err := s.PathOf(ctx, nodeID)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(crumbs)-1)
	for _, c := range crumbs[1:] {
		names = append(names, c.Name)
	}
	return JoinPath(names), nil
}
