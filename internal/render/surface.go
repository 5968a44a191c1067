// Package render defines the page-automation capability the scraper drives
// and provides browser-backed and static-HTML implementations of it.
package render

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a selector matches nothing.
	ErrNotFound = errors.New("element not found")
	// ErrTimeout is returned when a bounded wait expires.
	ErrTimeout = errors.New("wait timed out")
	// ErrUnsupported is returned for actions a surface cannot perform.
	ErrUnsupported = errors.New("action not supported")
)

// Element is a handle to one node on the current page.
type Element interface {
	// Text returns the rendered text of the node.
	Text() (string, error)
	// Attribute returns the named attribute; ok is false when it is absent.
	Attribute(name string) (value string, ok bool, err error)
	// InnerHTML returns the node's inner markup.
	InnerHTML() (string, error)
	Click() error
}

// Surface is a single page session. Implementations are not safe for
// concurrent use.
type Surface interface {
	Navigate(ctx context.Context, url string) error
	FindAll(ctx context.Context, selector string) ([]Element, error)
	// FindOne returns ErrNotFound when nothing matches.
	FindOne(ctx context.Context, selector string) (Element, error)
	// WaitFor blocks until selector matches or timeout elapses, returning
	// ErrTimeout in the latter case.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	ScrollToBottom(ctx context.Context) error
	ScrollBy(ctx context.Context, delta int) error
	Close() error
}
