package browser

import (
	"context"
	"time"

	"wpfetch/pkg/logger"
	"wpfetch/pkg/wordpress"
)

// Outcome is the result of a browser fetch. The browser path never fails the
// caller: Degraded marks an empty result that stems from an error rather than
// an author with no posts, and Reason carries that error for logging.
type Outcome struct {
	Posts    []wordpress.Post
	Degraded bool
	Reason   error
}

// Options tune a coordinator run
type Options struct {
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	NavTimeout     time.Duration
	SettleDelay    time.Duration
	PostLimit      int
	Matcher        wordpress.AuthorMatcher
}

// DefaultOptions mirror a stock headless run
func DefaultOptions() Options {
	return Options{
		Headless:       true,
		ViewportWidth:  1200,
		ViewportHeight: 768,
		NavTimeout:     10 * time.Second,
		SettleDelay:    time.Second,
		PostLimit:      20,
	}
}

// Coordinator owns the whole browser strategy: acquire a session, sign in,
// scrape the listing, release the session.
type Coordinator struct {
	engine Engine
	opts   Options
	logger logger.Logger
}

func NewCoordinator(engine Engine, opts Options, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Coordinator{engine: engine, opts: opts, logger: log}
}

// FetchPosts runs the browser strategy end to end. It never returns an
// error: any failure produces a degraded empty outcome.
func (c *Coordinator) FetchPosts(ctx context.Context, creds wordpress.Credentials, author string) Outcome {
	posts, err := c.run(ctx, creds, author)
	if err != nil {
		c.logger.ErrorWithFields("browser fetch degraded to empty result", map[string]interface{}{
			"author": author,
			"error":  err.Error(),
		})
		return Outcome{Posts: []wordpress.Post{}, Degraded: true, Reason: err}
	}
	if posts == nil {
		posts = []wordpress.Post{}
	}
	return Outcome{Posts: posts}
}

func (c *Coordinator) run(ctx context.Context, creds wordpress.Credentials, author string) ([]wordpress.Post, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	session, err := c.engine.NewSession(ctx, SessionOptions{
		Headless:       c.opts.Headless,
		ViewportWidth:  c.opts.ViewportWidth,
		ViewportHeight: c.opts.ViewportHeight,
		DefaultTimeout: c.opts.NavTimeout,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			c.logger.WithError(cerr).Warn("failed to release browser session")
		}
	}()

	page := session.Page()
	login := newSignIn(page, creds, c.opts.NavTimeout, c.opts.SettleDelay, c.logger)
	if err := login.Run(ctx); err != nil {
		return nil, err
	}

	listing := newPostList(page, c.opts.Matcher, c.opts.NavTimeout, c.opts.PostLimit, c.logger)
	return listing.Fetch(ctx, author)
}
