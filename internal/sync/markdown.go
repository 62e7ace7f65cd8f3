package sync

import (
	"fmt"
	"strings"
)

// contactMarkdown renders a user's contact card. Empty fields are omitted
// rather than rendered as blank rows.
func contactMarkdown(u User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", u.Name)
	if u.Title != "" {
		fmt.Fprintf(&b, "- **Title:** %s\n", u.Title)
	}
	if u.Email != "" {
		fmt.Fprintf(&b, "- **Email:** %s\n", u.Email)
	}
	if u.Phone != "" {
		fmt.Fprintf(&b, "- **Phone:** %s\n", u.Phone)
	}
	return strings.TrimRight(b.String(), "\n")
}

// assetMarkdown renders a managed device record.
func assetMarkdown(a Asset) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", a.Hostname)
	if a.Type != "" {
		fmt.Fprintf(&b, "- **Type:** %s\n", a.Type)
	}
	if a.OS != "" {
		fmt.Fprintf(&b, "- **OS:** %s\n", a.OS)
	}
	if a.Serial != "" {
		fmt.Fprintf(&b, "- **Serial:** %s\n", a.Serial)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ticketMarkdown renders a ticket with its conversation thread, notes
// marked as internal.
func ticketMarkdown(t Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Ticket #%d: %s\n\n", t.ID, t.Subject)
	fmt.Fprintf(&b, "**Status:** %s\n", t.Status)
	if t.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Summary)
	}
	if len(t.Conversations) > 0 {
		b.WriteString("\n## Conversation\n")
		for _, c := range t.Conversations {
			label := c.Author
			if c.IsNote {
				label += " (internal note)"
			}
			fmt.Fprintf(&b, "\n### %s (%s)\n\n%s\n", label, c.CreatedAt, c.Body)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
