package browser

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"wpfetch/pkg/errors"
	"wpfetch/pkg/logger"
	"wpfetch/pkg/retry"
	"wpfetch/pkg/wordpress"
)

// wp-login.php form fields and the markers that only render once the
// dashboard has accepted the session cookie.
const (
	selUserField  = "#user_login"
	selPassField  = "#user_pass"
	selSubmit     = "#wp-submit"
	selAdminBody  = "body.wp-admin"
	selAdminMenu  = "#adminmenumain"
)

const signInAttempts = 2

// SignInState tracks progress through the login form
type SignInState int

const (
	StateNotAttempted SignInState = iota
	StateAwaitingForm
	StateSubmitting
	StateVerifying
	StateAuthenticated
	StateFailed
)

func (s SignInState) String() string {
	switch s {
	case StateNotAttempted:
		return "not_attempted"
	case StateAwaitingForm:
		return "awaiting_form"
	case StateSubmitting:
		return "submitting"
	case StateVerifying:
		return "verifying"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// signIn authenticates the page against wp-login.php. Each attempt starts
// from a fresh navigation to the login URL so stale form state cannot leak
// between tries.
type signIn struct {
	page        Page
	creds       wordpress.Credentials
	waitTimeout time.Duration
	settleDelay time.Duration
	logger      logger.Logger

	state SignInState
}

func newSignIn(page Page, creds wordpress.Credentials, waitTimeout, settleDelay time.Duration, log logger.Logger) *signIn {
	return &signIn{
		page:        page,
		creds:       creds,
		waitTimeout: waitTimeout,
		settleDelay: settleDelay,
		logger:      log,
		state:       StateNotAttempted,
	}
}

// Run drives the login form, retrying once on failure
func (s *signIn) Run(ctx context.Context) error {
	cfg := &retry.Config{
		MaxAttempts: signInAttempts,
		Backoff:     &retry.ConstantBackoff{Delay: s.settleDelay},
		RetryIf:     func(err error) bool { return true },
		Context:     ctx,
		Logger:      s.logger,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			s.logger.WarnWithFields("sign-in attempt failed", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
			})
		},
	}

	err := retry.Do(func() error { return s.attempt(ctx) }, cfg)
	if err != nil {
		s.state = StateFailed
		return errors.SignInFailed(s.creds.Username)
	}
	s.state = StateAuthenticated
	s.logger.InfoWithFields("signed in", map[string]interface{}{
		"username": s.creds.Username,
	})
	return nil
}

func (s *signIn) attempt(ctx context.Context) error {
	if err := s.page.Navigate(ctx, s.creds.LoginURL.String()); err != nil {
		return err
	}

	s.state = StateAwaitingForm
	g, gctx := errgroup.WithContext(ctx)
	for _, sel := range []string{selUserField, selPassField, selSubmit} {
		sel := sel
		g.Go(func() error {
			return s.page.WaitForSelector(gctx, sel, s.waitTimeout)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.state = StateSubmitting
	if err := s.page.Type(ctx, selUserField, s.creds.Username); err != nil {
		return err
	}
	if err := s.page.Type(ctx, selPassField, s.creds.Password); err != nil {
		return err
	}
	if err := retry.Wait(ctx, s.settleDelay); err != nil {
		return err
	}
	if err := s.page.Click(ctx, selSubmit); err != nil {
		return err
	}
	if err := s.page.WaitForNavigation(ctx); err != nil {
		return err
	}

	s.state = StateVerifying
	return s.verifyDashboard(ctx)
}

// verifyDashboard requires both admin markers so a bounced login that lands
// back on the form is treated as a failure
func (s *signIn) verifyDashboard(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, sel := range []string{selAdminBody, selAdminMenu} {
		sel := sel
		g.Go(func() error {
			return s.page.WaitForSelector(gctx, sel, s.waitTimeout)
		})
	}
	return g.Wait()
}
