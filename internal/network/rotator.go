package network

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

var ErrNoProxies = errors.New("no proxies available")

// maxBenchSteps caps how many times a proxy's bench doubles.
const maxBenchSteps = 3

// Rotator hands out proxies round-robin. A proxy that LinkedIn blocks (403,
// 407, 429) or that fails at the transport level is benched; each further
// strike doubles the bench up to 8x the base, and a successful response
// clears its strikes.
type Rotator struct {
	mu      sync.Mutex
	proxies []*proxyState
	cursor  int
	bench   time.Duration
	now     func() time.Time
}

type proxyState struct {
	url          *url.URL
	strikes      int
	benchedUntil time.Time
}

// NewRotator parses raw as scheme://host:port entries. Blank lines are
// skipped and duplicates collapse to one entry.
func NewRotator(raw []string, bench time.Duration) (*Rotator, error) {
	r := &Rotator{bench: bench, now: time.Now}
	seen := map[string]bool{}
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		u, err := url.Parse(entry)
		if err != nil {
			return nil, fmt.Errorf("parse proxy %q: %w", entry, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("proxy %q: want scheme://host:port", entry)
		}
		if seen[u.String()] {
			continue
		}
		seen[u.String()] = true
		r.proxies = append(r.proxies, &proxyState{url: u})
	}
	return r, nil
}

func (r *Rotator) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.proxies)
}

// Next returns the next usable proxy. When every proxy is benched the error
// wraps ErrNoProxies and names the earliest release time.
func (r *Rotator) Next() (*url.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.proxies) == 0 {
		return nil, ErrNoProxies
	}

	now := r.now()
	var earliest time.Time
	for range r.proxies {
		p := r.proxies[r.cursor]
		r.cursor = (r.cursor + 1) % len(r.proxies)
		if !now.Before(p.benchedUntil) {
			return p.url, nil
		}
		if earliest.IsZero() || p.benchedUntil.Before(earliest) {
			earliest = p.benchedUntil
		}
	}
	return nil, fmt.Errorf("%w until %s", ErrNoProxies, earliest.Format(time.RFC3339))
}

// Report records the status LinkedIn answered through proxy.
func (r *Rotator) Report(proxy *url.URL, status int) {
	switch {
	case blockedStatus(status):
		r.strike(proxy)
	case status >= 200 && status < 400:
		r.update(proxy, func(p *proxyState) { p.strikes = 0 })
	}
}

// ReportError records a transport failure through proxy.
func (r *Rotator) ReportError(proxy *url.URL) {
	r.strike(proxy)
}

func (r *Rotator) strike(proxy *url.URL) {
	r.update(proxy, func(p *proxyState) {
		steps := min(p.strikes, maxBenchSteps)
		p.strikes++
		p.benchedUntil = r.now().Add(r.bench << steps)
	})
}

func (r *Rotator) update(proxy *url.URL, fn func(*proxyState)) {
	if proxy == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.proxies {
		if p.url.String() == proxy.String() {
			fn(p)
			return
		}
	}
}

func blockedStatus(status int) bool {
	switch status {
	case http.StatusForbidden, http.StatusProxyAuthRequired, http.StatusTooManyRequests:
		return true
	}
	return false
}
