package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultPageSize is the page size used by exhaustive queries.
const DefaultPageSize = 1000

// Client issues queries against a subgraph endpoint.
type Client struct {
	url      string
	http     *http.Client
	pageSize int
}

// NewClient creates a subgraph client. pageSize <= 0 selects
// DefaultPageSize.
func NewClient(url string, pageSize int) *Client {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Client{
		url:      url,
		http:     &http.Client{Timeout: 30 * time.Second},
		pageSize: pageSize,
	}
}

type graphResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Query runs a single page query and returns the raw records.
func (c *Client) Query(ctx context.Context, q *Query) ([]json.RawMessage, error) {
	if q == nil {
		return nil, nil
	}

	body, err := json.Marshal(map[string]string{"query": q.build()})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query subgraph: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subgraph returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var gr graphResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(gr.Errors) > 0 {
		return nil, fmt.Errorf("subgraph error: %s", gr.Errors[0].Message)
	}

	records, ok := gr.Data[q.collection()]
	if !ok {
		return nil, fmt.Errorf("response missing %q", q.collection())
	}

	var list []json.RawMessage
	if err := json.Unmarshal(records, &list); err != nil {
		return nil, fmt.Errorf("decode %q records: %w", q.collection(), err)
	}
	return list, nil
}

// QueryExhaustive retrieves every record matching q by walking pages of
// the client's page size in strictly increasing order, concatenating until
// a short or empty page signals exhaustion. Any page failure aborts the
// whole fetch; there is no partial-result fallback. A nil descriptor means
// the caller opted out and yields nil.
func (c *Client) QueryExhaustive(ctx context.Context, q *Query) ([]json.RawMessage, error) {
	if q == nil {
		return nil, nil
	}

	var all []json.RawMessage
	for page := 0; ; page++ {
		pageQuery := *q
		pageQuery.First = c.pageSize
		pageQuery.Skip = page * c.pageSize

		records, err := c.Query(ctx, &pageQuery)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		all = append(all, records...)
		if len(records) < c.pageSize {
			return all, nil
		}
	}
}
