package bloomfilter

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVisited_ReturnsFalseForNewFilter(t *testing.T) {
	filter := NewURLFilter(1000, 0.01)
	assert.False(t, filter.IsVisited("https://example.com/a"))
}

func TestCheckAndMark(t *testing.T) {
	filter := NewURLFilter(1000, 0.01)
	assert.False(t, filter.CheckAndMark("https://example.com/a"))
	assert.True(t, filter.CheckAndMark("https://example.com/a"))
	assert.True(t, filter.IsVisited("https://example.com/a"))
	assert.Equal(t, 1, filter.Count())
}

func TestCheckAndMark_EquivalentURLs(t *testing.T) {
	filter := NewURLFilter(1000, 0.01)
	assert.False(t, filter.CheckAndMark("https://Example.com/docs/"))
	assert.True(t, filter.CheckAndMark("https://example.com/docs"))
	assert.True(t, filter.CheckAndMark("https://example.com/docs#install"))
	assert.False(t, filter.CheckAndMark("https://example.com/docs?page=2"))

	assert.False(t, filter.CheckAndMark("https://example.com"))
	assert.True(t, filter.CheckAndMark("https://example.com/"))
}

func TestNewURLFilter_Defaults(t *testing.T) {
	filter := NewURLFilter(0, 2)
	assert.NotNil(t, filter.filter)
	assert.False(t, filter.CheckAndMark("https://example.com/x"))
}

func TestCheckAndMark_Concurrent(t *testing.T) {
	filter := NewURLFilter(10000, 0.0001)
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			filter.CheckAndMark(fmt.Sprintf("https://example.com/page-%d", n%100))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, filter.Count())
}
