// Package browser implements the browser-driven retrieval strategy: a
// capability interface over a real browser engine, the sign-in state machine,
// the posts-list scraper, and the coordinator that owns the session lifecycle.
package browser

import (
	"context"
	"time"
)

// Page is the set of browser capabilities the scraping logic depends on.
// Nothing in this package touches a concrete engine directly, so tests can
// substitute a fake and the engine can be swapped out.
type Page interface {
	// Navigate loads the given URL and waits for the load event
	Navigate(ctx context.Context, url string) error
	// WaitForSelector blocks until the selector matches an element or the
	// timeout elapses, in which case it returns a timeout error
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	// Click clicks the first element matching the selector
	Click(ctx context.Context, selector string) error
	// Type fills the first element matching the selector with text
	Type(ctx context.Context, selector, text string) error
	// WaitForNavigation blocks until a click-triggered navigation has loaded
	WaitForNavigation(ctx context.Context) error
	// OuterHTML returns the serialized subtree of the first element matching
	// the selector
	OuterHTML(ctx context.Context, selector string) (string, error)
	// URL reports the page's current location
	URL(ctx context.Context) (string, error)
}

// Session is one exclusive browser session holding a single page. The owner
// must call Close on every exit path; Close releases the page first, then the
// session.
type Session interface {
	Page() Page
	Close() error
}

// SessionOptions configure a newly acquired session
type SessionOptions struct {
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	// DefaultTimeout bounds navigations and waits that don't carry their own
	DefaultTimeout time.Duration
}

// Engine acquires browser sessions. The chromedp-backed implementation lives
// in this package; tests provide their own.
type Engine interface {
	NewSession(ctx context.Context, opts SessionOptions) (Session, error)
}
