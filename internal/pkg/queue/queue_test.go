package queue

import (
	"errors"
	"sync"
	"testing"
)

func TestCreateQueue(t *testing.T) {
	q, err := CreateQueue[string](3)
	if err != nil {
		t.Fatalf("CreateQueue returned error: %v", err)
	}
	if q.capacity != 3 {
		t.Errorf("Expected queue capacity to be 3, got %d", q.capacity)
	}
	if !q.IsEmpty() {
		t.Errorf("Expected new queue to be empty")
	}

	for _, capacity := range []int{0, -1} {
		if _, err := CreateQueue[string](capacity); !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("Expected ErrInvalidCapacity for capacity %d, got %v", capacity, err)
		}
	}
}

func TestInsertUntilFull(t *testing.T) {
	q, _ := CreateQueue[string](2)
	if err := q.Insert("a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Insert("b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Insert("c"); !errors.Is(err, ErrFull) {
		t.Errorf("Expected ErrFull, got %v", err)
	}
	if q.Length() != 2 {
		t.Errorf("Expected queue length to be 2, got %d", q.Length())
	}
}

func TestRemoveOrder(t *testing.T) {
	type job struct {
		url   string
		depth int
	}
	q, _ := CreateQueue[job](3)
	_ = q.Insert(job{"https://example.com/sitemap.xml", 0})
	_ = q.Insert(job{"https://example.com/posts.xml", 1})

	first, err := q.Remove()
	if err != nil || first.depth != 0 {
		t.Errorf("Expected first job at depth 0, got %+v (%v)", first, err)
	}
	second, err := q.Remove()
	if err != nil || second.url != "https://example.com/posts.xml" {
		t.Errorf("Expected posts sitemap second, got %+v (%v)", second, err)
	}
	if _, err := q.Remove(); !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}
	if !q.IsEmpty() {
		t.Errorf("Expected queue to be empty again")
	}
}

func TestConcurrentInsert(t *testing.T) {
	q, _ := CreateQueue[int](100)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = q.Insert(n)
		}(i)
	}
	wg.Wait()
	if q.Length() != 100 {
		t.Errorf("Expected queue length to be 100, got %d", q.Length())
	}
}
