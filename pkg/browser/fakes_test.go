package browser

import (
	"context"
	"sync"
	"time"

	"wpfetch/pkg/config"
	"wpfetch/pkg/errors"
	"wpfetch/pkg/logger"
)

func testLogger() logger.Logger {
	log, err := logger.New(&config.LoggingConfig{Level: "disabled"})
	if err != nil {
		panic(err)
	}
	return log
}

// fakePage is a scriptable Page for exercising the sign-in and listing flows
// without a real browser.
type fakePage struct {
	mu sync.Mutex

	currentURL string
	html       map[string]string

	// failWait[selector] counts how many more WaitForSelector calls on that
	// selector should time out before succeeding
	failWait    map[string]int
	navErr      error
	waitNavErr  error

	// clickURL simulates a click-triggered navigation by selector
	clickURL map[string]string

	navigations []string
	clicks      []string
	typed       map[string]string
}

func newFakePage() *fakePage {
	return &fakePage{
		html:     map[string]string{},
		failWait: map[string]int{},
		clickURL: map[string]string{},
		typed:    map[string]string{},
	}
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.navErr != nil {
		return f.navErr
	}
	f.navigations = append(f.navigations, url)
	f.currentURL = url
	return nil
}

func (f *fakePage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n := f.failWait[selector]; n > 0 {
		f.failWait[selector] = n - 1
		return errors.Timeout("selector " + selector + " never appeared")
	}
	return nil
}

func (f *fakePage) Click(ctx context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, selector)
	if u, ok := f.clickURL[selector]; ok {
		f.currentURL = u
	}
	return nil
}

func (f *fakePage) Type(ctx context.Context, selector, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed[selector] = text
	return nil
}

func (f *fakePage) WaitForNavigation(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waitNavErr
}

func (f *fakePage) OuterHTML(ctx context.Context, selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.html[selector], nil
}

func (f *fakePage) URL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentURL, nil
}

func (f *fakePage) navigationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.navigations)
}

type fakeSession struct {
	page   *fakePage
	closed bool
}

func (f *fakeSession) Page() Page { return f.page }

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

type fakeEngine struct {
	page     *fakePage
	err      error
	sessions []*fakeSession
}

func (f *fakeEngine) NewSession(ctx context.Context, opts SessionOptions) (Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSession{page: f.page}
	f.sessions = append(f.sessions, s)
	return s, nil
}
