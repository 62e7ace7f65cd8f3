// Package sync imports companies, users, assets, and tickets from an
// upstream service desk into a read-only subtree of the knowledge tree.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Company is one upstream customer record.
type Company struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// User is one upstream contact at a company.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Title string `json:"title"`
}

// Asset is one upstream managed device.
type Asset struct {
	ID       int    `json:"id"`
	Hostname string `json:"hostname"`
	Type     string `json:"type"`
	Serial   string `json:"serial"`
	OS       string `json:"os"`
}

// Conversation is one entry in a ticket's thread.
type Conversation struct {
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
	Body      string `json:"body"`
	IsNote    bool   `json:"is_note"`
}

// Ticket is one upstream support ticket with its thread. UserID is zero
// when the ticket is not tied to a contact.
type Ticket struct {
	ID            int            `json:"id"`
	CompanyID     int            `json:"company_id"`
	UserID        int            `json:"user_id"`
	Subject       string         `json:"subject"`
	Status        string         `json:"status"`
	Summary       string         `json:"summary"`
	Conversations []Conversation `json:"conversations"`
}

// Client is a minimal read-only client for the upstream API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the upstream at baseURL authenticating
// with token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("sync: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sync: get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sync: get %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sync: decode %s: %w", path, err)
	}
	return nil
}

// Companies fetches every upstream company.
func (c *Client) Companies(ctx context.Context) ([]Company, error) {
	var out []Company
	if err := c.get(ctx, "/api/companies", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Users fetches the contacts of one company.
func (c *Client) Users(ctx context.Context, companyID int) ([]User, error) {
	var out []User
	q := url.Values{"company_id": {strconv.Itoa(companyID)}}
	if err := c.get(ctx, "/api/users", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Assets fetches the managed devices of one company.
func (c *Client) Assets(ctx context.Context, companyID int) ([]Asset, error) {
	var out []Asset
	q := url.Values{"company_id": {strconv.Itoa(companyID)}}
	if err := c.get(ctx, "/api/assets", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Tickets fetches every open ticket of one company, threads included.
func (c *Client) Tickets(ctx context.Context, companyID int) ([]Ticket, error) {
	var out []Ticket
	q := url.Values{"company_id": {strconv.Itoa(companyID)}}
	if err := c.get(ctx, "/api/tickets", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}
