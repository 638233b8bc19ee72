package wordpress

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// PostStatus is the publication state of a post. Only published and scheduled
// posts are ever retrieved.
type PostStatus string

const (
	StatusPublish PostStatus = "publish"
	StatusFuture  PostStatus = "future"
)

// Valid reports whether the status belongs to the closed set
func (s PostStatus) Valid() bool {
	return s == StatusPublish || s == StatusFuture
}

// Post is a single blog post as seen by consumers. Both retrieval strategies
// produce the same shape; the provider-specific raw records never leave their
// strategy.
type Post struct {
	Title  string
	URL    *url.URL
	Date   time.Time
	Status PostStatus
}

// MarshalJSON renders the URL as its string form
func (p Post) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Title  string     `json:"title"`
		URL    string     `json:"url"`
		Date   time.Time  `json:"date"`
		Status PostStatus `json:"status"`
	}{
		Title:  p.Title,
		URL:    p.URL.String(),
		Date:   p.Date,
		Status: p.Status,
	})
}

// Credentials holds the sign-in data for the blog. Owned by the caller and
// passed by reference into both strategies.
type Credentials struct {
	Username string
	Password string
	LoginURL *url.URL
}

// Validate checks that all credential fields are present
func (c *Credentials) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	if c.LoginURL == nil || !c.LoginURL.IsAbs() {
		return fmt.Errorf("an absolute login URL is required")
	}
	return nil
}

// Origin returns the scheme://host root of the blog
func (c *Credentials) Origin() *url.URL {
	return &url.URL{Scheme: c.LoginURL.Scheme, Host: c.LoginURL.Host}
}

// AuthorMatcher decides whether a displayed author name refers to the target
// author. Injectable so the loose default policy can be replaced or exercised
// in tests.
type AuthorMatcher func(displayName, author string) bool

// DefaultMatcher matches when the display name contains the author as a
// case-sensitive substring. An empty author therefore matches every name.
func DefaultMatcher(displayName, author string) bool {
	return strings.Contains(displayName, author)
}
