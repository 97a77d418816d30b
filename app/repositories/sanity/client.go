// Package sanity talks to the Sanity content lake over its HTTP API: GROQ
// queries for reads and the mutation endpoint for writes.
package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultAPIVersion = "2021-08-11"

	apiHost        = "api.sanity.io"
	cdnHost        = "apicdn.sanity.io"
	defaultTimeout = 30 * time.Second
)

var ErrConfParamMissing = errors.New("sanity configuration parameter missing")

// Config holds the connection parameters of a project dataset.
type Config struct {
	ProjectID  string
	Dataset    string
	Token      string
	APIVersion string
	UseCDN     bool
}

// Client is a minimal Sanity HTTP API client.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a client for the configured project. A nil httpClient
// gets a default one with a 30s timeout.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("%w: project id", ErrConfParamMissing)
	}
	if cfg.Dataset == "" {
		return nil, fmt.Errorf("%w: dataset", ErrConfParamMissing)
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient}, nil
}

// baseURL returns the versioned API root. Mutations always use the live API
// host; only reads may go through the CDN.
func (c *Client) baseURL(cdn bool) string {
	host := apiHost
	if cdn {
		host = cdnHost
	}
	return fmt.Sprintf("https://%s.%s/v%s", c.cfg.ProjectID, host, c.cfg.APIVersion)
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
}

// Fetch runs a GROQ query with the given parameters and decodes the result
// into out. A null result leaves out untouched.
func (c *Client) Fetch(ctx context.Context, query string, params map[string]any, out any) error {
	values := url.Values{}
	values.Set("query", query)
	for name, v := range params {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode query param %s: %w", name, err)
		}
		values.Set("$"+name, string(b))
	}

	u := fmt.Sprintf("%s/data/query/%s?%s", c.baseURL(c.cfg.UseCDN), url.PathEscape(c.cfg.Dataset), values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create query request: %w", err)
	}

	var resp queryResponse
	if err := c.do(req, &resp); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("decode query result: %w", err)
	}
	return nil
}

type mutateRequest struct {
	Mutations []map[string]any `json:"mutations"`
}

type mutateResponse struct {
	TransactionID string `json:"transactionId"`
	Results       []struct {
		ID        string          `json:"id"`
		Operation string          `json:"operation"`
		Document  json.RawMessage `json:"document"`
	} `json:"results"`
}

// Create writes doc as a new document and returns its id. When out is not
// nil the stored document is decoded into it.
func (c *Client) Create(ctx context.Context, doc any, out any) (string, error) {
	body, err := json.Marshal(mutateRequest{
		Mutations: []map[string]any{{"create": doc}},
	})
	if err != nil {
		return "", fmt.Errorf("encode mutation: %w", err)
	}

	values := url.Values{}
	values.Set("returnIds", "true")
	values.Set("returnDocuments", "true")
	values.Set("visibility", "sync")
	u := fmt.Sprintf("%s/data/mutate/%s?%s", c.baseURL(false), url.PathEscape(c.cfg.Dataset), values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create mutation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp mutateResponse
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("mutate: %w", err)
	}
	if len(resp.Results) == 0 {
		return "", fmt.Errorf("mutate: empty result for transaction %q", resp.TransactionID)
	}

	res := resp.Results[0]
	if out != nil && len(res.Document) > 0 && string(res.Document) != "null" {
		if err := json.Unmarshal(res.Document, out); err != nil {
			return "", fmt.Errorf("decode created document: %w", err)
		}
	}
	return res.ID, nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
