// Package domainsdb queries the domainsdb.info search API for domains matching a keyword.
package domainsdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JacobBogossian/DomainTracker/internal/model"
)

const (
	DefaultBaseURL = "https://api.domainsdb.info/v1"
	// DefaultPage is 2, not 1. The first page of results is never requested; this
	// matches the historical data in existing event tables and is kept until the
	// tracked history can be rebaselined.
	DefaultPage    = 2
	DefaultLimit   = 50
	DefaultTimeout = 30 * time.Second
)

// ErrMalformedResponse is returned when the body is not the expected JSON document
var ErrMalformedResponse = errors.New("malformed search response")

// StatusError reports a non-2xx response from the search API
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search API returned status %s", e.Status)
}

// Config holds the search request parameters
type Config struct {
	BaseURL string
	Page    int
	Limit   int
	Timeout time.Duration
}

// DefaultConfig returns the parameters the tracker has always used
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Page:    DefaultPage,
		Limit:   DefaultLimit,
		Timeout: DefaultTimeout,
	}
}

// Client fetches snapshots from the search API
type Client struct {
	httpClient *http.Client
	cfg        Config
}

// NewClient creates a client. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Page <= 0 {
		cfg.Page = defaults.Page
	}
	if cfg.Limit <= 0 {
		cfg.Limit = defaults.Limit
	}
	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
	}
}

type searchResponse struct {
	Domains *[]struct {
		Domain string `json:"domain"`
	} `json:"domains"`
}

// SearchURL builds the request URL for keyword
func (c *Client) SearchURL(keyword string) string {
	query := url.Values{}
	query.Set("page", strconv.Itoa(c.cfg.Page))
	query.Set("limit", strconv.Itoa(c.cfg.Limit))
	query.Set("domain", keyword)
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + "/domains/search?" + query.Encode()
}

// Search returns the set of domains the API currently reports for keyword.
// A 404 is the API's way of saying nothing matched and yields an empty set.
func (c *Client) Search(ctx context.Context, keyword string) (model.DomainSet, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SearchURL(keyword), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query search API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return model.NewDomainSet(), nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if body.Domains == nil {
		return nil, fmt.Errorf("%w: missing domains array", ErrMalformedResponse)
	}

	domains := model.NewDomainSet()
	for _, item := range *body.Domains {
		if item.Domain == "" {
			continue
		}
		domains.Add(item.Domain)
	}

	return domains, nil
}
