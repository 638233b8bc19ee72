package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"wpfetch/pkg/errors"
	"wpfetch/pkg/logger"
	"wpfetch/pkg/retry"
)

// Datetime layouts the REST API emits. WordPress reports post dates in the
// site's local time without an offset.
var apiDateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Client talks to the WordPress REST API. It never authenticates, so it only
// sees users with published content and their published or publicly scheduled
// posts.
type Client struct {
	httpClient *http.Client
	origin     *url.URL
	matcher    AuthorMatcher
	maxRetries int
	perPage    int
	logger     logger.Logger
}

// NewClient creates a REST API client for the blog at the given root URL.
// Only the scheme and host of root are used.
func NewClient(root *url.URL, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		origin:     &url.URL{Scheme: root.Scheme, Host: root.Host},
		matcher:    DefaultMatcher,
		maxRetries: 3,
		perPage:    50,
		logger:     log,
	}
}

// SetMatcher replaces the author matching policy
func (c *Client) SetMatcher(m AuthorMatcher) {
	if m != nil {
		c.matcher = m
	}
}

// SetPerPage caps how many posts a single request asks for
func (c *Client) SetPerPage(n int) {
	if n > 0 && n <= 100 {
		c.perPage = n
	}
}

// SetMaxRetries bounds the transport-level retry loop
func (c *Client) SetMaxRetries(n int) {
	if n > 0 {
		c.maxRetries = n
	}
}

func (c *Client) discoveryURL() string {
	return c.origin.String() + "/wp-json/"
}

func (c *Client) usersURL() string {
	return c.origin.String() + "/wp-json/wp/v2/users"
}

func (c *Client) postsURL(authorID int) string {
	q := url.Values{}
	q.Set("per_page", fmt.Sprintf("%d", c.perPage))
	q.Set("author", fmt.Sprintf("%d", authorID))
	q.Set("_fields", "title,link,status,date")
	return c.origin.String() + "/wp-json/wp/v2/posts?" + q.Encode()
}

// IsAvailable probes the API discovery endpoint. Any failure means
// "unavailable", never an error.
func (c *Client) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.discoveryURL(), nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugWithFields("REST API probe failed", map[string]interface{}{
			"url":   c.discoveryURL(),
			"error": err.Error(),
		})
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	available := resp.StatusCode >= 200 && resp.StatusCode < 300
	c.logger.DebugWithFields("REST API probe completed", map[string]interface{}{
		"url":       c.discoveryURL(),
		"status":    resp.StatusCode,
		"available": available,
	})
	return available
}

// getJSON performs a GET request with bounded retry and decodes the JSON
// response into target. Transport failures and non-2xx statuses are reported
// as api_unavailable errors carrying the HTTP status (0 for network faults).
func (c *Client) getJSON(ctx context.Context, endpoint string, target interface{}) error {
	cfg := &retry.Config{
		MaxAttempts: c.maxRetries,
		Backoff:     &retry.ExponentialBackoff{BaseDelay: time.Second, MaxDelay: 10 * time.Second, Multiplier: 2.0, JitterFactor: 0.1},
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      c.logger,
	}

	return retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return errors.APIUnavailable(fmt.Sprintf("failed to create request: %v", err), 0)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.WarnWithFields("REST API request failed", map[string]interface{}{
				"url":   endpoint,
				"error": err.Error(),
			})
			return errors.APIUnavailable(fmt.Sprintf("request failed: %v", err), 0)
		}
		defer resp.Body.Close()

		c.logger.DebugWithFields("REST API request completed", map[string]interface{}{
			"url":      endpoint,
			"status":   resp.StatusCode,
			"duration": time.Since(start),
		})

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return errors.APIUnavailable(fmt.Sprintf("unexpected status for %s", endpoint), resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.APIUnavailable(fmt.Sprintf("failed to read response body: %v", err), 0)
		}

		if err := json.Unmarshal(body, target); err != nil {
			preview := string(body)
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			c.logger.ErrorWithFields("failed to parse REST API response", map[string]interface{}{
				"url":          endpoint,
				"error":        err.Error(),
				"body_preview": preview,
			})
			return errors.APIUnavailable(fmt.Sprintf("failed to parse response: %v", err), resp.StatusCode)
		}

		return nil
	}, cfg)
}

// ResolveAuthorID finds the numeric id of the first visible user whose
// display name matches the author username. No match means the username is
// misconfigured, reported as an unknown_user error.
func (c *Client) ResolveAuthorID(ctx context.Context, author string) (int, error) {
	var users []userResource
	if err := c.getJSON(ctx, c.usersURL(), &users); err != nil {
		return 0, fmt.Errorf("could not retrieve the author id: %w", err)
	}

	for _, user := range users {
		if c.matcher(user.Name, author) {
			c.logger.DebugWithFields("resolved author", map[string]interface{}{
				"author":       author,
				"display_name": user.Name,
				"author_id":    user.ID,
			})
			return user.ID, nil
		}
	}

	return 0, errors.UnknownUser(author)
}

// FetchLatestPosts retrieves the most recent posts written by the given
// author, most recent first. Records the API returns malformed are dropped
// rather than leaked as partially-typed posts.
func (c *Client) FetchLatestPosts(ctx context.Context, author string) ([]Post, error) {
	authorID, err := c.ResolveAuthorID(ctx, author)
	if err != nil {
		return nil, err
	}

	var records []postResource
	if err := c.getJSON(ctx, c.postsURL(authorID), &records); err != nil {
		return nil, fmt.Errorf("could not retrieve the posts data: %w", err)
	}

	posts := make([]Post, 0, len(records))
	for _, record := range records {
		post, err := c.mapPost(record)
		if err != nil {
			c.logger.WarnWithFields("dropping malformed post record", map[string]interface{}{
				"title": record.Title.Rendered,
				"link":  record.Link,
				"error": err.Error(),
			})
			continue
		}
		posts = append(posts, post)
	}

	c.logger.InfoWithFields("fetched posts through the REST API", map[string]interface{}{
		"author":    author,
		"author_id": authorID,
		"count":     len(posts),
	})

	return posts, nil
}

// mapPost converts a raw API record into a Post, enforcing the boundary
// invariants: absolute URL, parseable date, status in the closed set.
func (c *Client) mapPost(record postResource) (Post, error) {
	link, err := url.Parse(record.Link)
	if err != nil {
		return Post{}, fmt.Errorf("invalid link %q: %w", record.Link, err)
	}
	if !link.IsAbs() {
		return Post{}, fmt.Errorf("link %q is not absolute", record.Link)
	}

	date, err := parseAPIDate(record.Date)
	if err != nil {
		return Post{}, err
	}

	status := PostStatus(record.Status)
	if !status.Valid() {
		return Post{}, fmt.Errorf("unexpected post status %q", record.Status)
	}

	return Post{
		Title:  record.Title.Rendered,
		URL:    link,
		Date:   date,
		Status: status,
	}, nil
}

func parseAPIDate(value string) (time.Time, error) {
	for _, layout := range apiDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}
