package fetcher

import (
	"context"
	"net/url"
	"sync"
	"time"
)

const maxCrawlDelay = 5 * time.Second

type hostState struct {
	lastAccess time.Time
	mutex      sync.Mutex
}

// Spaces out requests to the same host. Used when many pages of one site
// are fetched, never by the three-request audit.
type HostLimiter struct {
	delay      time.Duration
	hosts      map[string]*hostState
	hostsMutex sync.Mutex
	now        func() time.Time
}

func NewHostLimiter(delay time.Duration) *HostLimiter {
	return &HostLimiter{
		delay: min(delay, maxCrawlDelay), // Cap crawl delay at 5 seconds
		hosts: make(map[string]*hostState),
		now:   time.Now,
	}
}

// Raises the spacing, e.g. to honour a robots.txt Crawl-delay.
func (l *HostLimiter) SetDelay(delay time.Duration) {
	l.hostsMutex.Lock()
	defer l.hostsMutex.Unlock()
	l.delay = min(max(l.delay, delay), maxCrawlDelay)
}

// Blocks until the host of targetURL may be contacted again.
func (l *HostLimiter) Wait(ctx context.Context, targetURL string) error {
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil
	}
	domain := parsedURL.Hostname()

	l.hostsMutex.Lock()
	state, exists := l.hosts[domain]
	if !exists {
		state = &hostState{}
		l.hosts[domain] = state
	}
	delay := l.delay
	l.hostsMutex.Unlock()

	state.mutex.Lock()
	defer state.mutex.Unlock()

	now := l.now()
	waitTime := delay - now.Sub(state.lastAccess)
	if waitTime > 0 {
		if waitTime > delay {
			// In case of clock adjustments
			waitTime = delay
		}
		if err := sleepFunc(ctx, waitTime); err != nil {
			return err
		}
		state.lastAccess = now.Add(waitTime)
		return nil
	}
	state.lastAccess = now
	return nil
}
