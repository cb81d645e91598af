package internal

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

// TestBasicOperations tests basic push and consume functionality
func TestBasicOperations(t *testing.T) {
	q := NewMPSC[int]()
	defer q.Close()

	// Push 10 items
	values := make([]int, 10)
	for i := 0; i < 10; i++ {
		values[i] = i
		if !q.Push(&values[i]) {
			t.Fatalf("Failed to push item %d", i)
		}
	}

	// Consume 10 items
	for i := 0; i < 10; i++ {
		select {
		case val := <-q.Recv():
			if *val != i {
				t.Errorf("Expected %d, got %v", i, *val)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for item %d", i)
		}
	}

	// Make sure queue is empty
	select {
	case val := <-q.Recv():
		t.Errorf("Queue should be empty, but got %v", val)
	case <-time.After(10 * time.Millisecond):
		// Expected timeout, queue is empty
	}
}

// TestNilPush tests that nil values are rejected
func TestNilPush(t *testing.T) {
	q := NewMPSC[int]()
	defer q.Close()

	if q.Push(nil) {
		t.Error("Push(nil) should return false")
	}
}

// TestConcurrentProducers verifies the queue works correctly with multiple producers
func TestConcurrentProducers(t *testing.T) {
	q := NewMPSC[int]()
	defer q.Close()

	const numProducers = 10
	const itemsPerProducer = 1000
	totalItems := numProducers * itemsPerProducer

	var mu sync.Mutex
	received := make(map[int]bool)
	receivedCount := 0

	// Start a consumer goroutine
	done := make(chan struct{})

	go func() {
		defer close(done)

		for receivedCount < totalItems {
			select {
			case val := <-q.Recv():
				if val == nil {
					t.Errorf("Received nil item")
					return
				}

				mu.Lock()
				if received[*val] {
					t.Errorf("Duplicate item received: %v", *val)
				}
				received[*val] = true
				receivedCount++
				mu.Unlock()
			case <-time.After(2 * time.Second):
				t.Errorf("Timeout waiting for items, received %d of %d", receivedCount, totalItems)
				return
			}
		}
	}()

	// Start producers
	var wg sync.WaitGroup
	wg.Add(numProducers)

	for p := 0; p < numProducers; p++ {
		go func(producerID int) {
			defer wg.Done()

			base := producerID * itemsPerProducer
			for i := 0; i < itemsPerProducer; i++ {
				val := base + i
				if !q.Push(&val) {
					t.Errorf("Producer %d failed to push item %d", producerID, i)
				}

				// Add some randomness to producer timing
				if i%100 == 0 {
					runtime.Gosched()
				}
			}
		}(p)
	}

	wg.Wait()

	select {
	case <-done:
		// Consumer finished
	case <-time.After(5 * time.Second):
		t.Fatalf("Timeout waiting for consumer to finish")
	}

	if receivedCount != totalItems {
		t.Errorf("Expected %d items, received %d", totalItems, receivedCount)
	}
}

// TestCloseDeliversQueuedItems verifies items pushed before Close still arrive
func TestCloseDeliversQueuedItems(t *testing.T) {
	q := NewMPSC[int]()

	values := make([]int, 100)
	for i := range values {
		values[i] = i
		if !q.Push(&values[i]) {
			t.Fatalf("Failed to push item %d", i)
		}
	}

	q.Close()

	if !q.IsClosed() {
		t.Error("IsClosed should report true after Close")
	}

	if q.Push(&values[0]) {
		t.Error("Push after Close should return false")
	}

	// All queued items must still be delivered, then the channel closes
	count := 0
	for range q.Recv() {
		count++
	}
	if count != len(values) {
		t.Errorf("Expected %d items after close, got %d", len(values), count)
	}
}
