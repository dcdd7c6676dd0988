package transport

import (
	"sync"
	"testing"
)

func TestIDAllocatorStrictlyIncreasing(t *testing.T) {
	var a IDAllocator
	const n = 1000
	prev := StreamID(0)
	for i := 0; i < n; i++ {
		id := a.Next()
		if id <= prev {
			t.Fatalf("identity %d not strictly increasing after %d", id, prev)
		}
		prev = id
	}
	if prev != n {
		t.Fatalf("expected %d allocations to end at %d, got %d", n, n, prev)
	}
}

func TestIDAllocatorFirstIsOne(t *testing.T) {
	var a IDAllocator
	if id := a.Next(); id != 1 {
		t.Fatalf("first identity should be 1, got %d", id)
	}
}

func TestIDAllocatorConcurrent(t *testing.T) {
	var a IDAllocator
	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	results := make([][]StreamID, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ids := make([]StreamID, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				ids = append(ids, a.Next())
			}
			results[w] = ids
		}(w)
	}
	wg.Wait()

	seen := make(map[StreamID]bool, workers*perWorker)
	for _, ids := range results {
		for _, id := range ids {
			if seen[id] {
				t.Fatalf("identity %d allocated twice", id)
			}
			seen[id] = true
		}
	}
	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d distinct identities, got %d", workers*perWorker, len(seen))
	}
}
