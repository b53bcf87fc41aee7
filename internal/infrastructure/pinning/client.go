// Package pinning implements the remote trending cache on top of the
// protocol's HTTP pinning API. Records are pinned as JSON documents tagged
// with the cache name; the newest pin under a tag is the current record
// and its pin date gives the record's age.
package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"fundStatApp/internal/domain/model"
	"fundStatApp/internal/domain/repository"
)

// Client talks to the pinning API and the content gateway.
type Client struct {
	apiURL     string // e.g. https://api.example.money/api
	gatewayURL string // e.g. https://ipfs.io
	http       *http.Client
}

func NewClient(apiURL, gatewayURL string) *Client {
	return &Client{
		apiURL:     apiURL,
		gatewayURL: gatewayURL,
		http:       &http.Client{Timeout: 30 * time.Second},
	}
}

var _ repository.TrendingCache = (*Client)(nil)

type pinListResponse struct {
	Count int `json:"count"`
	Rows  []struct {
		PinHash    string    `json:"ipfs_pin_hash"`
		DatePinned time.Time `json:"date_pinned"`
	} `json:"rows"`
}

type pinRequest struct {
	Data    interface{} `json:"data"`
	Options struct {
		PinataMetadata struct {
			Name      string            `json:"name"`
			KeyValues map[string]string `json:"keyvalues"`
		} `json:"pinataMetadata"`
	} `json:"options"`
}

// GetTrending resolves the newest pin tagged name, fetches its content
// from the gateway and decodes the trending records. Absent or malformed
// records are reported as absent.
func (c *Client) GetTrending(ctx context.Context, name string) ([]model.TrendingProject, time.Duration, error) {
	listURL := fmt.Sprintf("%s/ipfs/pin?tag=%s", c.apiURL, url.QueryEscape(name))
	var list pinListResponse
	if err := c.getJSON(ctx, listURL, &list); err != nil {
		return nil, 0, fmt.Errorf("list pins for %s: %w", name, err)
	}
	if list.Count == 0 || len(list.Rows) == 0 {
		return nil, 0, nil
	}

	// Rows come newest first; take the most recent pin.
	newest := list.Rows[0]
	for _, row := range list.Rows[1:] {
		if row.DatePinned.After(newest.DatePinned) {
			newest = row
		}
	}

	contentURL := fmt.Sprintf("%s/ipfs/%s", c.gatewayURL, newest.PinHash)
	var records []model.TrendingProject
	if err := c.getJSON(ctx, contentURL, &records); err != nil {
		// A pin whose content cannot be fetched or parsed is useless;
		// treat it as a missing record so the caller recomputes.
		return nil, 0, nil
	}
	return records, time.Since(newest.DatePinned), nil
}

// PutTrending pins the records as a new JSON document tagged name.
func (c *Client) PutTrending(ctx context.Context, name string, records []model.TrendingProject) error {
	var req pinRequest
	req.Data = records
	req.Options.PinataMetadata.Name = name + ".json"
	req.Options.PinataMetadata.KeyValues = map[string]string{"tag": name}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal pin request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/ipfs/pin", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build pin request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("pin %s: %w", name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pin %s: status %d", name, resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
