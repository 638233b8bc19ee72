// Package retriever coordinates the two ways of reading posts off a blog:
// the REST API when the site exposes it, and a signed-in browser session
// when it does not.
package retriever

import (
	"context"

	"wpfetch/pkg/browser"
	"wpfetch/pkg/errors"
	"wpfetch/pkg/logger"
	"wpfetch/pkg/wordpress"
)

// APIClient is the REST strategy surface the retriever drives
type APIClient interface {
	IsAvailable(ctx context.Context) bool
	FetchLatestPosts(ctx context.Context, author string) ([]wordpress.Post, error)
}

// BrowserStrategy is the fallback strategy surface
type BrowserStrategy interface {
	FetchPosts(ctx context.Context, creds wordpress.Credentials, author string) browser.Outcome
}

// Retriever prefers the API and falls back to the browser. The only error it
// surfaces is an unknown author from the API path, because that is a fact
// about the blog rather than a transport failure.
type Retriever struct {
	api     APIClient
	browser BrowserStrategy
	logger  logger.Logger
}

func New(api APIClient, browserStrategy BrowserStrategy, log logger.Logger) *Retriever {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Retriever{api: api, browser: browserStrategy, logger: log}
}

// Retrieve fetches the author's recent posts. An empty author falls back to
// the signed-in account's username.
func (r *Retriever) Retrieve(ctx context.Context, creds wordpress.Credentials, author string) ([]wordpress.Post, error) {
	if author == "" {
		author = creds.Username
	}

	if r.api.IsAvailable(ctx) {
		posts, err := r.api.FetchLatestPosts(ctx, author)
		if err == nil {
			r.logger.InfoWithFields("fetched posts over the API", map[string]interface{}{
				"author": author,
				"posts":  len(posts),
			})
			return posts, nil
		}
		if errors.IsUnknownUser(err) {
			return nil, err
		}
		r.logger.WithError(err).Warn("API fetch failed, falling back to the browser")
	} else {
		r.logger.Info("API unavailable, falling back to the browser")
	}

	outcome := r.browser.FetchPosts(ctx, creds, author)
	if outcome.Degraded {
		r.logger.WithError(outcome.Reason).Warn("browser fetch degraded, returning what it produced")
	}
	return outcome.Posts, nil
}
