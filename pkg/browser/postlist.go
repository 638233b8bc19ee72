package browser

import (
	"context"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"wpfetch/pkg/errors"
	"wpfetch/pkg/logger"
	"wpfetch/pkg/wordpress"
)

// Selectors for the wp-admin posts listing (edit.php)
const (
	selPostsMenu    = "#menu-posts"
	selPostsLink    = "a[href*='edit.php']"
	selAddNew       = "a.page-title-action[href*='post-new.php']"
	selAuthorLink   = ".author.column-author > a"
	selPostsTable   = "#the-list"
	selPublishedRow = ".type-post.status-publish"
	selRowTitle     = ".row-title"
	selRowView      = ".view a"
	selRowDate      = ".date.column-date"
)

const scrapeDateLayout = "1/2/2006"

// postList walks the admin sidebar to the posts listing, narrows it to one
// author and snapshots the table body for parsing.
type postList struct {
	page        Page
	matcher     wordpress.AuthorMatcher
	waitTimeout time.Duration
	limit       int
	logger      logger.Logger
}

func newPostList(page Page, matcher wordpress.AuthorMatcher, waitTimeout time.Duration, limit int, log logger.Logger) *postList {
	if matcher == nil {
		matcher = wordpress.DefaultMatcher
	}
	return &postList{
		page:        page,
		matcher:     matcher,
		waitTimeout: waitTimeout,
		limit:       limit,
		logger:      log,
	}
}

// Fetch returns the author's published posts in listing order
func (p *postList) Fetch(ctx context.Context, author string) ([]wordpress.Post, error) {
	if err := p.openListing(ctx); err != nil {
		return nil, err
	}
	if err := p.filterByAuthor(ctx, author); err != nil {
		return nil, err
	}

	if err := p.page.WaitForSelector(ctx, selPostsTable, p.waitTimeout); err != nil {
		return nil, errors.NavigationFailed("posts table never rendered: " + err.Error())
	}
	html, err := p.page.OuterHTML(ctx, selPostsTable)
	if err != nil {
		return nil, err
	}
	base, err := p.pageURL(ctx)
	if err != nil {
		return nil, err
	}

	posts, err := ParsePostList(html, base, p.limit)
	if err != nil {
		return nil, err
	}
	p.logger.DebugWithFields("scraped posts listing", map[string]interface{}{
		"author": author,
		"posts":  len(posts),
	})
	return posts, nil
}

// openListing clicks through the sidebar menu and verifies the listing page
// actually loaded
func (p *postList) openListing(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, sel := range []string{selPostsMenu, selPostsLink} {
		sel := sel
		g.Go(func() error {
			return p.page.WaitForSelector(gctx, sel, p.waitTimeout)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := p.page.Click(ctx, selPostsLink); err != nil {
		return err
	}
	if err := p.page.WaitForNavigation(ctx); err != nil {
		return err
	}

	current, err := p.page.URL(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(current, "edit.php") {
		return errors.NavigationFailed("expected posts listing, got " + current)
	}
	if err := p.page.WaitForSelector(ctx, selAddNew, p.waitTimeout); err != nil {
		return errors.NavigationFailed("posts listing missing add-new affordance: " + err.Error())
	}
	return nil
}

// filterByAuthor finds the author's byline link in the table and navigates to
// its author-scoped listing. No match leaves the unfiltered listing in place,
// mirroring a byline the admin table simply does not show.
func (p *postList) filterByAuthor(ctx context.Context, author string) error {
	if err := p.page.WaitForSelector(ctx, selAuthorLink, p.waitTimeout); err != nil {
		return errors.NavigationFailed("author column never rendered: " + err.Error())
	}
	html, err := p.page.OuterHTML(ctx, selPostsTable)
	if err != nil {
		return err
	}
	base, err := p.pageURL(ctx)
	if err != nil {
		return err
	}

	href, found := authorFilterHref(html, author, p.matcher)
	if !found {
		p.logger.WarnWithFields("author not found in listing, keeping unfiltered view", map[string]interface{}{
			"author": author,
		})
		return nil
	}

	target, err := base.Parse(href)
	if err != nil {
		return errors.NavigationFailed("bad author filter link: " + err.Error())
	}
	return p.page.Navigate(ctx, target.String())
}

func (p *postList) pageURL(ctx context.Context) (*url.URL, error) {
	raw, err := p.page.URL(ctx)
	if err != nil {
		return nil, err
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, errors.NavigationFailed("page reported unparseable URL: " + err.Error())
	}
	return parsed, nil
}

// authorFilterHref scans the byline links for the first one whose text
// matches, returning its href trimmed to start at edit.php
func authorFilterHref(tableHTML, author string, matcher wordpress.AuthorMatcher) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	if err != nil {
		return "", false
	}

	var href string
	var found bool
	doc.Find(selAuthorLink).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !matcher(strings.TrimSpace(sel.Text()), author) {
			return true
		}
		raw, ok := sel.Attr("href")
		if !ok {
			return true
		}
		if idx := strings.Index(raw, "edit.php"); idx >= 0 {
			raw = raw[idx:]
		}
		href = raw
		found = true
		return false
	})
	return href, found
}

// ParsePostList extracts published posts from a snapshot of the listing
// table body. Relative links resolve against base, the result is truncated
// to limit and rows stay in document order.
func ParsePostList(tableHTML string, base *url.URL, limit int) ([]wordpress.Post, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, "failed to parse listing snapshot: "+err.Error())
	}

	posts := make([]wordpress.Post, 0, limit)
	doc.Find(selPublishedRow).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if limit > 0 && len(posts) >= limit {
			return false
		}

		title := strings.TrimSpace(row.Find(selRowTitle).First().Text())
		href, _ := row.Find(selRowView).First().Attr("href")
		link, err := base.Parse(strings.TrimSpace(href))
		if err != nil || link.Host == "" {
			return true
		}

		statusLabel, dateText := SplitStatusDate(row.Find(selRowDate).First().Text())
		posts = append(posts, wordpress.Post{
			Title:  title,
			URL:    link,
			Date:   parseScrapeDate(dateText),
			Status: statusFromLabel(statusLabel),
		})
		return true
	})
	return posts, nil
}

// SplitStatusDate separates the listing's date cell into its status label
// and date. The cell renders as one run of text such as
// "Published10/27/2021 at 9:00 am", so the label ends where the first digit
// begins and the date ends at the first whitespace after it.
func SplitStatusDate(cell string) (status, date string) {
	cell = strings.TrimSpace(cell)
	start := strings.IndexFunc(cell, unicode.IsDigit)
	if start < 0 {
		return cell, ""
	}
	status = cell[:start]
	rest := cell[start:]
	if end := strings.IndexFunc(rest, unicode.IsSpace); end >= 0 {
		rest = rest[:end]
	}
	return status, rest
}

func statusFromLabel(label string) wordpress.PostStatus {
	if strings.EqualFold(strings.TrimSpace(label), "Scheduled") {
		return wordpress.StatusFuture
	}
	return wordpress.StatusPublish
}

// parseScrapeDate keeps degraded rows rather than dropping them, stamping
// an unparseable date with the current time
func parseScrapeDate(text string) time.Time {
	t, err := time.Parse(scrapeDateLayout, strings.TrimSpace(text))
	if err != nil {
		return time.Now()
	}
	return t
}
