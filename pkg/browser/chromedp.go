package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"wpfetch/pkg/errors"
	"wpfetch/pkg/logger"
)

const defaultWaitTimeout = 10 * time.Second

// ChromeEngine acquires sessions backed by a headless Chrome instance driven
// over the DevTools protocol.
type ChromeEngine struct {
	logger logger.Logger
}

// NewChromeEngine creates a chromedp-backed Engine
func NewChromeEngine(log logger.Logger) *ChromeEngine {
	if log == nil {
		log = logger.GetLogger()
	}
	return &ChromeEngine{logger: log}
}

// NewSession launches a browser and opens its single page
func (e *ChromeEngine) NewSession(ctx context.Context, opts SessionOptions) (Session, error) {
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = defaultWaitTimeout
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(opts.ViewportWidth, opts.ViewportHeight),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Starting with an empty task list forces the browser process to launch
	// now, so acquisition failures surface here instead of mid-scrape
	if err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(opts.ViewportWidth), int64(opts.ViewportHeight)),
	); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	e.logger.DebugWithFields("browser session acquired", map[string]interface{}{
		"headless": opts.Headless,
		"viewport": fmt.Sprintf("%dx%d", opts.ViewportWidth, opts.ViewportHeight),
	})

	return &chromeSession{
		page: &chromePage{
			ctx:     browserCtx,
			timeout: opts.DefaultTimeout,
			logger:  e.logger,
		},
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		logger:        e.logger,
	}, nil
}

type chromeSession struct {
	page          *chromePage
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	logger        logger.Logger
}

func (s *chromeSession) Page() Page { return s.page }

// Close shuts the page and the browser process down, releasing the allocator
// last
func (s *chromeSession) Close() error {
	err := chromedp.Cancel(s.browserCtx)
	s.browserCancel()
	s.allocCancel()
	if err != nil {
		return fmt.Errorf("failed to close browser session: %w", err)
	}
	s.logger.Debug("browser session released")
	return nil
}

// chromePage adapts one chromedp tab to the Page capability interface
type chromePage struct {
	ctx     context.Context
	timeout time.Duration
	logger  logger.Logger

	mu       sync.Mutex
	loadDone chan struct{}
}

// run executes chromedp actions bounded by the given timeout, honoring the
// caller's context as well
func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return errors.Timeout(err.Error())
		}
		return err
	}
	return nil
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	p.logger.DebugWithFields("navigating", map[string]interface{}{"url": url})
	return p.run(ctx, p.timeout, chromedp.Navigate(url))
}

func (p *chromePage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.timeout
	}
	return p.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
}

// Click arms a load listener before clicking, so a click-triggered navigation
// can be awaited with WaitForNavigation without racing the load event
func (p *chromePage) Click(ctx context.Context, selector string) error {
	p.armLoadListener()
	return p.run(ctx, p.timeout, chromedp.Click(selector, chromedp.ByQuery))
}

func (p *chromePage) Type(ctx context.Context, selector, text string) error {
	return p.run(ctx, p.timeout, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

func (p *chromePage) WaitForNavigation(ctx context.Context) error {
	p.mu.Lock()
	done := p.loadDone
	p.mu.Unlock()
	if done == nil {
		return errors.NavigationFailed("no navigation in flight")
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Timeout("navigation did not finish: " + ctx.Err().Error())
	case <-time.After(p.timeout):
		return errors.Timeout("navigation did not finish in time")
	}
}

func (p *chromePage) OuterHTML(ctx context.Context, selector string) (string, error) {
	var html string
	if err := p.run(ctx, p.timeout, chromedp.OuterHTML(selector, &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (p *chromePage) URL(ctx context.Context) (string, error) {
	var location string
	if err := p.run(ctx, p.timeout, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

func (p *chromePage) armLoadListener() {
	done := make(chan struct{})
	listenCtx, cancel := context.WithCancel(p.ctx)

	var once sync.Once
	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		if _, ok := ev.(*cdppage.EventLoadEventFired); ok {
			once.Do(func() {
				close(done)
				cancel()
			})
		}
	})

	p.mu.Lock()
	p.loadDone = done
	p.mu.Unlock()
}
