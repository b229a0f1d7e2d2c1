package bloomfilter

import (
	"net/url"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Thread-safe set of seen URLs backed by a Bloom filter. A false positive
// drops a URL that was never seen, which the generator accepts.
type URLFilter struct {
	filter *bloom.BloomFilter
	mutex  sync.Mutex
	marked int
}

// Sizes the filter for capacity entries at the given false positive rate.
func NewURLFilter(capacity int, fpRate float64) *URLFilter {
	if capacity <= 0 {
		capacity = 1000
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = 0.001
	}
	return &URLFilter{filter: bloom.NewWithEstimates(uint(capacity), fpRate)}
}

// Checks if a URL has been seen.
func (f *URLFilter) IsVisited(rawURL string) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.filter.TestString(normalizeKey(rawURL))
}

// Checks if a URL has been seen and marks it as seen.
func (f *URLFilter) CheckAndMark(rawURL string) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	key := normalizeKey(rawURL)
	if f.filter.TestString(key) {
		return true
	}
	f.filter.AddString(key)
	f.marked++
	return false
}

// Number of distinct URLs marked so far.
func (f *URLFilter) Count() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.marked
}

// Treats URLs differing only in fragment, host case or a trailing slash as one.
func normalizeKey(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsedURL.Fragment = ""
	parsedURL.RawFragment = ""
	parsedURL.Host = strings.ToLower(parsedURL.Host)
	if parsedURL.Path != "/" {
		parsedURL.Path = strings.TrimRight(parsedURL.Path, "/")
		parsedURL.RawPath = ""
	}
	if parsedURL.Path == "" {
		parsedURL.Path = "/"
	}
	return parsedURL.String()
}
