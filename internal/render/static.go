package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/jobfinder/internal/network"
)

type fetchFunc func(ctx context.Context, url string) (io.ReadCloser, error)

// StaticSurface serves server-rendered pages without a browser. Scrolling
// never loads more content and elements cannot be clicked.
type StaticSurface struct {
	fetch fetchFunc
	doc   *goquery.Document
}

func NewStaticSurface(client *network.Client) *StaticSurface {
	return &StaticSurface{
		fetch: func(ctx context.Context, url string) (io.ReadCloser, error) {
			resp, err := client.Get(ctx, url)
			if err != nil {
				return nil, err
			}
			return resp.Body, nil
		},
	}
}

func (s *StaticSurface) Navigate(ctx context.Context, url string) error {
	body, err := s.fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return fmt.Errorf("parse %s: %w", url, err)
	}
	s.doc = doc
	return nil
}

func (s *StaticSurface) FindAll(_ context.Context, selector string) ([]Element, error) {
	if s.doc == nil {
		return nil, nil
	}
	var out []Element
	s.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		out = append(out, staticElement{sel: sel})
	})
	return out, nil
}

func (s *StaticSurface) FindOne(_ context.Context, selector string) (Element, error) {
	if s.doc == nil {
		return nil, ErrNotFound
	}
	sel := s.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, ErrNotFound
	}
	return staticElement{sel: sel}, nil
}

// WaitFor resolves immediately: a static document never changes after load.
func (s *StaticSurface) WaitFor(ctx context.Context, selector string, _ time.Duration) (Element, error) {
	el, err := s.FindOne(ctx, selector)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrTimeout
	}
	return el, err
}

func (s *StaticSurface) ScrollToBottom(context.Context) error { return nil }

func (s *StaticSurface) ScrollBy(context.Context, int) error { return nil }

func (s *StaticSurface) Close() error {
	s.doc = nil
	return nil
}

type staticElement struct {
	sel *goquery.Selection
}

func (e staticElement) Text() (string, error) {
	return strings.Join(strings.Fields(e.sel.Text()), " "), nil
}

func (e staticElement) Attribute(name string) (string, bool, error) {
	value, ok := e.sel.Attr(name)
	return value, ok, nil
}

func (e staticElement) InnerHTML() (string, error) {
	return e.sel.Html()
}

func (e staticElement) Click() error {
	return ErrUnsupported
}
