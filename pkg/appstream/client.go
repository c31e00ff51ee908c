// Package appstream fetches application metadata from a Flathub-compatible API.
package appstream

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public Flathub API.
const DefaultBaseURL = "https://flathub.org/api/v2"

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Retries   int
	UserAgent string
}

// Component is the subset of an appstream component shown to users.
type Component struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Summary       string            `json:"summary"`
	Description   string            `json:"description"`
	Icon          string            `json:"icon"`
	DeveloperName string            `json:"developer_name"`
	License       string            `json:"project_license"`
	URLs          map[string]string `json:"urls"`
	Screenshots   []Screenshot      `json:"screenshots"`
}

// Screenshot lists the available sizes of one screenshot, keyed by "WxH".
type Screenshot struct {
	Caption string            `json:"caption"`
	Sizes   map[string]string `json:"sizes"`
}

// Client is safe for concurrent use.
type Client struct {
	http   *resty.Client
	policy *bluemonday.Policy
	log    zerolog.Logger

	mu    sync.Mutex
	cache map[string]*Component
}

// New creates a Client.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "shelf"
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil

	r := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")
	r.SetTransport(retryClient.HTTPClient.Transport)

	return &Client{
		http:   r,
		policy: bluemonday.StrictPolicy(),
		log:    log.With().Str("component", "appstream").Logger(),
		cache:  make(map[string]*Component),
	}
}

// Component fetches the metadata of an application. Successful lookups are cached.
func (c *Client) Component(ctx context.Context, id string) (*Component, error) {
	c.mu.Lock()
	cached, ok := c.cache[id]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	var comp Component
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&comp).
		Get("/appstream/{id}")
	if err != nil {
		return nil, fmt.Errorf("appstream %s: %w", id, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("appstream %s: %s", id, resp.Status())
	}

	comp.Description = c.Text(comp.Description)
	if comp.ID == "" {
		comp.ID = id
	}

	c.mu.Lock()
	c.cache[id] = &comp
	c.mu.Unlock()
	return &comp, nil
}

// Description returns the plain-text long description of id, or "" on any failure.
func (c *Client) Description(ctx context.Context, id string) string {
	comp, err := c.Component(ctx, id)
	if err != nil {
		c.log.Debug().Err(err).Str("id", id).Msg("description unavailable")
		return ""
	}
	return comp.Description
}

var (
	blockEnd  = regexp.MustCompile(`(?i)</(p|li|ul|ol|h[1-6])>|<br\s*/?>`)
	listStart = regexp.MustCompile(`(?i)<li[^>]*>`)
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// Text converts an appstream HTML description to plain text.
func (c *Client) Text(s string) string {
	s = listStart.ReplaceAllString(s, "• ")
	s = blockEnd.ReplaceAllString(s, "\n")
	s = html.UnescapeString(c.policy.Sanitize(s))

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
