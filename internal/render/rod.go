package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0 Safari/537.36"

// RodOptions configures the launched browser.
type RodOptions struct {
	Headless bool
	// ImplicitWait bounds how long FindOne keeps retrying a selector.
	// Zero means a single immediate lookup.
	ImplicitWait      time.Duration
	NavigationTimeout time.Duration
	UserAgent         string
	// BinPath overrides the Chrome executable; empty lets the launcher
	// locate or download one.
	BinPath string
	// Proxy is passed to Chrome as --proxy-server.
	Proxy string
}

// RodSurface drives a single Chrome tab through go-rod.
type RodSurface struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	opts     RodOptions
}

// NewRodSurface launches Chrome and opens one blank tab.
func NewRodSurface(opts RodOptions) (*RodSurface, error) {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	l := launcher.New().
		Headless(opts.Headless).
		NoSandbox(true).
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled")
	if opts.BinPath != "" {
		l = l.Bin(opts.BinPath)
	}
	if opts.Proxy != "" {
		l = l.Proxy(opts.Proxy)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("open page: %w", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("set user agent: %w", err)
	}

	return &RodSurface{launcher: l, browser: browser, page: page, opts: opts}, nil
}

func (s *RodSurface) Navigate(ctx context.Context, url string) error {
	return withTimeout(ctx, s.opts.NavigationTimeout, func(ctx context.Context) error {
		page := s.page.Context(ctx)
		if err := page.Navigate(url); err != nil {
			return fmt.Errorf("navigate %s: %w", url, err)
		}
		if err := page.WaitLoad(); err != nil {
			return fmt.Errorf("wait load %s: %w", url, err)
		}
		return nil
	})
}

// withTimeout runs fn under a deadline and releases its timer when fn returns.
func withTimeout(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}

func (s *RodSurface) FindAll(ctx context.Context, selector string) ([]Element, error) {
	found, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(found))
	for _, el := range found {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (s *RodSurface) FindOne(ctx context.Context, selector string) (Element, error) {
	if s.opts.ImplicitWait > 0 {
		el, err := s.WaitFor(ctx, selector, s.opts.ImplicitWait)
		if errors.Is(err, ErrTimeout) {
			return nil, ErrNotFound
		}
		return el, err
	}

	has, el, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, ErrNotFound
	}
	return &rodElement{el: el}, nil
}

func (s *RodSurface) WaitFor(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	var found *rod.Element
	err := withTimeout(ctx, timeout, func(waitCtx context.Context) error {
		el, err := s.page.Context(waitCtx).Element(selector)
		if err != nil {
			return err
		}
		// Detach from the wait deadline so later reads are not cut short.
		found = el.Context(ctx)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	return &rodElement{el: found}, nil
}

func (s *RodSurface) ScrollToBottom(ctx context.Context) error {
	_, err := s.page.Context(ctx).Eval(scrollToBottomJS)
	return err
}

func (s *RodSurface) ScrollBy(ctx context.Context, delta int) error {
	_, err := s.page.Context(ctx).Eval(scrollByJS, delta)
	return err
}

// Close shuts the browser down and removes its profile directory.
func (s *RodSurface) Close() error {
	err := s.browser.Close()
	s.launcher.Cleanup()
	return err
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Attribute(name string) (string, bool, error) {
	value, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

func (e *rodElement) InnerHTML() (string, error) {
	prop, err := e.el.Property("innerHTML")
	if err != nil {
		return "", err
	}
	return prop.Str(), nil
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}
