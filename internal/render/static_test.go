package render

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

const detailPage = `
<html><body>
  <h1 class="top-card-layout__title">Data Scientist</h1>
  <a class="topcard__org-name-link" href="/company/acme">  Acme  </a>
  <div class="show-more-less-html__markup"><p>Intro</p><ul><li>Python</li><li>SQL</li></ul></div>
  <a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/1?trk=x"></a>
  <a class="base-card__full-link"></a>
</body></html>`

func staticSurfaceFor(t *testing.T, html string) *StaticSurface {
	t.Helper()
	s := &StaticSurface{
		fetch: func(context.Context, string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(html)), nil
		},
	}
	if err := s.Navigate(context.Background(), "https://www.linkedin.com/jobs/view/1"); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	return s
}

func TestStaticSurfaceFindOne(t *testing.T) {
	s := staticSurfaceFor(t, detailPage)
	ctx := context.Background()

	el, err := s.FindOne(ctx, "a.topcard__org-name-link")
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	text, _ := el.Text()
	if text != "Acme" {
		t.Fatalf("Text() = %q, want %q", text, "Acme")
	}

	if _, err := s.FindOne(ctx, "span.topcard__flavor"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindOne() error = %v, want %v", err, ErrNotFound)
	}
}

func TestStaticSurfaceWaitForTimesOutImmediately(t *testing.T) {
	s := staticSurfaceFor(t, detailPage)
	start := time.Now()
	_, err := s.WaitFor(context.Background(), "button.show-more-less-html__button", time.Minute)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("WaitFor() error = %v, want %v", err, ErrTimeout)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("WaitFor() blocked on a static page")
	}
}

func TestStaticSurfaceFindAllAndAttributes(t *testing.T) {
	s := staticSurfaceFor(t, detailPage)
	anchors, err := s.FindAll(context.Background(), "a.base-card__full-link")
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(anchors) != 2 {
		t.Fatalf("len(anchors) = %d, want 2", len(anchors))
	}
	href, ok, _ := anchors[0].Attribute("href")
	if !ok || href != "https://www.linkedin.com/jobs/view/1?trk=x" {
		t.Fatalf("Attribute(href) = %q, %v", href, ok)
	}
	if _, ok, _ := anchors[1].Attribute("href"); ok {
		t.Fatalf("expected missing href on second anchor")
	}
}

func TestStaticSurfaceInnerHTMLAndClick(t *testing.T) {
	s := staticSurfaceFor(t, detailPage)
	el, err := s.FindOne(context.Background(), "div.show-more-less-html__markup")
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	markup, err := el.InnerHTML()
	if err != nil {
		t.Fatalf("InnerHTML() error = %v", err)
	}
	if !strings.Contains(markup, "<li>Python</li>") {
		t.Fatalf("InnerHTML() = %q, want list markup", markup)
	}
	if err := el.Click(); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Click() error = %v, want %v", err, ErrUnsupported)
	}
}

func TestStaticSurfaceBeforeNavigate(t *testing.T) {
	s := &StaticSurface{}
	if _, err := s.FindOne(context.Background(), "h1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindOne() error = %v, want %v", err, ErrNotFound)
	}
	els, err := s.FindAll(context.Background(), "a")
	if err != nil || len(els) != 0 {
		t.Fatalf("FindAll() = %d, %v; want empty", len(els), err)
	}
}
