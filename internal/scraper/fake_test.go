package scraper

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jimezsa/jobfinder/internal/render"
)

type fakeElement struct {
	text     string
	textErr  error
	attrs    map[string]string
	html     string
	htmlErr  error
	clickErr error
	clicks   int
}

func (e *fakeElement) Text() (string, error) { return e.text, e.textErr }

func (e *fakeElement) Attribute(name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e *fakeElement) InnerHTML() (string, error) { return e.html, e.htmlErr }

func (e *fakeElement) Click() error {
	e.clicks++
	return e.clickErr
}

func anchorTo(href string) *fakeElement {
	return &fakeElement{attrs: map[string]string{"href": href}}
}

type fakePage struct {
	one map[string]*fakeElement
	// all answers FindAll; call counts from 1 per page.
	all func(call int) ([]render.Element, error)
}

type fakeSurface struct {
	pages       map[string]*fakePage
	navigateErr map[string]error
	scrollErr   error

	current      *fakePage
	navigated    []string
	findAllCalls int
	scrolls      int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{pages: map[string]*fakePage{}, navigateErr: map[string]error{}}
}

func (s *fakeSurface) Navigate(_ context.Context, url string) error {
	s.navigated = append(s.navigated, url)
	if err := s.navigateErr[url]; err != nil {
		return err
	}
	s.current = s.pages[url]
	if s.current == nil {
		s.current = &fakePage{}
	}
	s.findAllCalls = 0
	return nil
}

func (s *fakeSurface) FindAll(context.Context, string) ([]render.Element, error) {
	s.findAllCalls++
	if s.current == nil || s.current.all == nil {
		return nil, nil
	}
	return s.current.all(s.findAllCalls)
}

func (s *fakeSurface) FindOne(_ context.Context, selector string) (render.Element, error) {
	if s.current != nil {
		if el, ok := s.current.one[selector]; ok {
			return el, nil
		}
	}
	return nil, render.ErrNotFound
}

func (s *fakeSurface) WaitFor(ctx context.Context, selector string, _ time.Duration) (render.Element, error) {
	el, err := s.FindOne(ctx, selector)
	if errors.Is(err, render.ErrNotFound) {
		return nil, render.ErrTimeout
	}
	return el, err
}

func (s *fakeSurface) ScrollToBottom(context.Context) error {
	s.scrolls++
	return s.scrollErr
}

func (s *fakeSurface) ScrollBy(context.Context, int) error { return s.scrollErr }

func (s *fakeSurface) Close() error { return nil }

// growingListings returns a FindAll func whose n-th call yields the
// cumulative listings implied by newPerCycle[:n].
func growingListings(newPerCycle []int) func(int) ([]render.Element, error) {
	return func(call int) ([]render.Element, error) {
		total := 0
		for i := 0; i < call && i < len(newPerCycle); i++ {
			total += newPerCycle[i]
		}
		out := make([]render.Element, 0, total)
		for i := 1; i <= total; i++ {
			out = append(out, anchorTo(listingURL(i)+"?refId=abc&trackingId=xyz"))
		}
		return out, nil
	}
}

func listingURL(id int) string {
	return "https://www.linkedin.com/jobs/view/" + strconv.Itoa(id)
}

type recordingPacer struct {
	points   []PausePoint
	failOn   PausePoint
	failWith error
}

func (p *recordingPacer) Pause(ctx context.Context, point PausePoint) error {
	p.points = append(p.points, point)
	if p.failWith != nil && point == p.failOn {
		return p.failWith
	}
	return ctx.Err()
}

func (p *recordingPacer) count(point PausePoint) int {
	n := 0
	for _, got := range p.points {
		if got == point {
			n++
		}
	}
	return n
}
