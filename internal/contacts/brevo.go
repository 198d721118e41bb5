// Package contacts fetches the mailing-list recipient set from the Brevo
// contacts API. The orchestrator consumes the flattened list of addresses;
// paging is internal.
package contacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"ipowatch/internal/config"
	"ipowatch/internal/types"
)

// pageResponse models the subset of the Brevo list-contacts payload the
// notifier cares about.
type pageResponse struct {
	Contacts []struct {
		Email string `json:"email"`
	} `json:"contacts"`
	Count int `json:"count"`
}

// Client is a paged Brevo contacts reader. All requests run through a
// circuit breaker so a flapping upstream fails the run quickly instead of
// grinding through every page with a 30-second timeout each.
type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	cfg     config.ContactsConfig
	logger  types.Logger
}

// NewClient creates a contacts Client from configuration. The HTTP timeout
// bounds each page request; exceeding it fails the run.
func NewClient(cfg config.ContactsConfig, logger types.Logger) *Client {
	if logger == nil {
		logger = types.NopLogger{}
	}
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "brevo-contacts",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: cb,
		cfg:     cfg,
		logger:  logger,
	}
}

// FetchRecipients pages through the configured contact list and returns the
// non-empty email addresses in list order. Any transport or decode failure
// maps to upstream_contacts_unavailable and aborts the run.
func (c *Client) FetchRecipients(ctx context.Context) ([]string, error) {
	var recipients []string
	offset := 0
	for {
		page, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		for _, contact := range page.Contacts {
			if contact.Email != "" {
				recipients = append(recipients, contact.Email)
			}
		}
		c.logger.Debug("fetched contacts page",
			"batch", len(page.Contacts), "offset", offset)
		if len(page.Contacts) < c.cfg.PageSize {
			return recipients, nil
		}
		offset += c.cfg.PageSize
	}
}

func (c *Client) fetchPage(ctx context.Context, offset int) (*pageResponse, error) {
	url := fmt.Sprintf("%s/v3/contacts/lists/%s/contacts?limit=%d&offset=%d",
		c.cfg.BaseURL, c.cfg.ListID, c.cfg.PageSize, offset)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamContacts,
			"building contacts request failed", err)
	}
	req.Header.Set("api-key", c.cfg.APIKey.Unmask())
	req.Header.Set("accept", "application/json")

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, rerr := c.http.Do(req)
		if rerr != nil {
			return nil, rerr
		}
		if r.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(r.Body, 512))
			r.Body.Close()
			return nil, fmt.Errorf("contacts API returned %d: %s", r.StatusCode, body)
		}
		return r, nil
	})
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeUpstreamContacts,
			"contact list fetch failed", err, map[string]any{"offset": offset})
	}
	defer resp.Body.Close()

	var page pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamContacts,
			"contacts response decode failed", err)
	}
	return &page, nil
}
