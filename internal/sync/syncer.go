package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/othala/internal/graph"
	"github.com/starford/othala/internal/tree"
)

// companiesRoot is the name of the synced subtree under root. Everything
// below it is read-only and excluded from user export/import.
const companiesRoot = "Companies"

// Syncer mirrors upstream records into the knowledge tree via idempotent
// upsert-by-name, so repeated runs converge instead of duplicating.
type Syncer struct {
	client *Client
	svc    *tree.Service
	logger *slog.Logger
}

// NewSyncer creates a Syncer.
func NewSyncer(client *Client, svc *tree.Service, logger *slog.Logger) *Syncer {
	return &Syncer{client: client, svc: svc, logger: logger}
}

// folder upserts a read-only folder and returns its id.
func (s *Syncer) folder(ctx context.Context, parentID, name string, attached bool) (string, error) {
	n, err := s.svc.UpsertByName(ctx, parentID, name, tree.UpsertFields{
		IsFolder:   true,
		IsAttached: attached,
		ReadOnly:   true,
	})
	if err != nil {
		return "", err
	}
	return n.ID, nil
}

// article upserts a read-only article with the given markdown body.
func (s *Syncer) article(ctx context.Context, parentID, name, content string) error {
	_, err := s.svc.UpsertByName(ctx, parentID, name, tree.UpsertFields{
		ReadOnly: true,
		Content:  content,
	})
	return err
}

// SyncCompanies mirrors companies, their users, and their assets:
//
//	Companies/
//	  <Company>/
//	    Users/<User>/Contact.md
//	    Assets/<hostname>.md
//
// Returns the number of upserted nodes.
func (s *Syncer) SyncCompanies(ctx context.Context) (int, error) {
	companies, err := s.client.Companies(ctx)
	if err != nil {
		return 0, err
	}

	rootID, err := s.folder(ctx, graph.RootID, companiesRoot, false)
	if err != nil {
		return 0, err
	}

	count := 1
	for _, co := range companies {
		coID, err := s.folder(ctx, rootID, co.Name, false)
		if err != nil {
			return count, fmt.Errorf("sync: company %q: %w", co.Name, err)
		}
		count++

		users, err := s.client.Users(ctx, co.ID)
		if err != nil {
			return count, err
		}
		if len(users) > 0 {
			usersID, err := s.folder(ctx, coID, "Users", false)
			if err != nil {
				return count, err
			}
			count++
			for _, u := range users {
				userID, err := s.folder(ctx, usersID, u.Name, false)
				if err != nil {
					return count, fmt.Errorf("sync: user %q: %w", u.Name, err)
				}
				if err := s.article(ctx, userID, "Contact.md", contactMarkdown(u)); err != nil {
					return count, err
				}
				count += 2
			}
		}

		assets, err := s.client.Assets(ctx, co.ID)
		if err != nil {
			return count, err
		}
		if len(assets) > 0 {
			assetsID, err := s.folder(ctx, coID, "Assets", false)
			if err != nil {
				return count, err
			}
			count++
			for _, a := range assets {
				if err := s.article(ctx, assetsID, a.Hostname+".md", assetMarkdown(a)); err != nil {
					return count, fmt.Errorf("sync: asset %q: %w", a.Hostname, err)
				}
				count++
			}
		}

		s.logger.Info("sync: company mirrored",
			slog.String("company", co.Name),
			slog.Int("users", len(users)),
			slog.Int("assets", len(assets)))
	}
	return count, nil
}

// SyncTickets mirrors each company's open tickets into an attached Tickets
// folder, so they surface in context documents built anywhere under the
// company. Tickets tied to a contact are additionally mirrored into an
// attached Tickets folder under that contact. Requires SyncCompanies to
// have run at least once.
func (s *Syncer) SyncTickets(ctx context.Context) (int, error) {
	companies, err := s.client.Companies(ctx)
	if err != nil {
		return 0, err
	}

	rootID, err := s.folder(ctx, graph.RootID, companiesRoot, false)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, co := range companies {
		tickets, err := s.client.Tickets(ctx, co.ID)
		if err != nil {
			return count, err
		}
		if len(tickets) == 0 {
			continue
		}

		coID, err := s.folder(ctx, rootID, co.Name, false)
		if err != nil {
			return count, err
		}
		ticketsID, err := s.folder(ctx, coID, "Tickets", true)
		if err != nil {
			return count, err
		}
		count++

		users, err := s.client.Users(ctx, co.ID)
		if err != nil {
			return count, err
		}
		userName := make(map[int]string, len(users))
		for _, u := range users {
			userName[u.ID] = u.Name
		}
		userTickets := make(map[int]string)

		for _, t := range tickets {
			name := fmt.Sprintf("Ticket_%d.md", t.ID)
			body := ticketMarkdown(t)
			if err := s.article(ctx, ticketsID, name, body); err != nil {
				return count, fmt.Errorf("sync: ticket %d: %w", t.ID, err)
			}
			count++

			uname, ok := userName[t.UserID]
			if !ok {
				continue
			}
			userTicketsID, ok := userTickets[t.UserID]
			if !ok {
				usersID, err := s.folder(ctx, coID, "Users", false)
				if err != nil {
					return count, err
				}
				userID, err := s.folder(ctx, usersID, uname, false)
				if err != nil {
					return count, err
				}
				userTicketsID, err = s.folder(ctx, userID, "Tickets", true)
				if err != nil {
					return count, err
				}
				userTickets[t.UserID] = userTicketsID
				count++
			}
			if err := s.article(ctx, userTicketsID, name, body); err != nil {
				return count, fmt.Errorf("sync: ticket %d for %q: %w", t.ID, uname, err)
			}
			count++
		}

		s.logger.Info("sync: tickets mirrored",
			slog.String("company", co.Name),
			slog.Int("tickets", len(tickets)))
	}
	return count, nil
}

// Status reports how much synced state currently exists: total synced
// nodes plus the company count.
func (s *Syncer) Status(ctx context.Context) (map[string]int, error) {
	db := s.svc.Store().DB()

	companiesID := tree.DeterministicID(graph.RootID, companiesRoot)
	total, err := graph.CountIDPrefix(ctx, db, companiesID)
	if err != nil {
		return nil, err
	}

	companies := 0
	if total > 0 {
		kids, err := graph.Children(ctx, db, companiesID)
		if err != nil {
			return nil, err
		}
		companies = len(kids)
	}

	return map[string]int{
		"synced_nodes": total,
		"companies":    companies,
	}, nil
}
