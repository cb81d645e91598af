package leasemgr

import (
	"bytes"
	"sync"
	"testing"

	"github.com/okvlab/okv/lib/service/ltable"
)

func newTestManager() ILeaseManager {
	return NewLeaseManager(ltable.NewLocalTable(&ltable.Options{JanitorInterval: -1}))
}

func TestAcquireAndRelease(t *testing.T) {
	leases := newTestManager()

	ok, token, err := leases.AcquireLease("resource", 0)
	if err != nil {
		t.Fatalf("AcquireLease failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected to acquire a free lease")
	}
	if len(token) == 0 {
		t.Fatal("Expected a non-empty owner token")
	}

	released, err := leases.ReleaseLease("resource", token)
	if err != nil {
		t.Fatalf("ReleaseLease failed: %v", err)
	}
	if !released {
		t.Fatal("Expected release by the owner to succeed")
	}

	// The lease is free again
	ok, _, err = leases.AcquireLease("resource", 0)
	if err != nil {
		t.Fatalf("AcquireLease failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected to re-acquire a released lease")
	}
}

func TestAcquireHeldLeaseFails(t *testing.T) {
	leases := newTestManager()

	ok, token1, err := leases.AcquireLease("resource", 0)
	if err != nil || !ok {
		t.Fatalf("First acquire failed (ok=%v, err=%v)", ok, err)
	}

	ok, token2, err := leases.AcquireLease("resource", 0)
	if err != nil {
		t.Fatalf("Second acquire errored: %v", err)
	}
	if ok {
		t.Fatal("Expected acquire of a held lease to fail")
	}
	if token2 != nil {
		t.Fatal("Failed acquire should not return a token")
	}

	if bytes.Equal(token1, token2) {
		t.Fatal("Tokens must be unique per acquire attempt")
	}
}

func TestReleaseRequiresOwnership(t *testing.T) {
	leases := newTestManager()

	ok, token, err := leases.AcquireLease("resource", 0)
	if err != nil || !ok {
		t.Fatalf("Acquire failed (ok=%v, err=%v)", ok, err)
	}

	// A foreign token must not release the lease
	released, err := leases.ReleaseLease("resource", []byte("not-the-owner"))
	if err != nil {
		t.Fatalf("ReleaseLease failed: %v", err)
	}
	if released {
		t.Fatal("Release with a foreign token must fail")
	}

	// The owner still can
	released, err = leases.ReleaseLease("resource", token)
	if err != nil || !released {
		t.Fatalf("Owner release failed (released=%v, err=%v)", released, err)
	}
}

func TestReleaseAbsentLease(t *testing.T) {
	leases := newTestManager()

	// Releasing a lease that does not exist reports success
	released, err := leases.ReleaseLease("nonexistent", []byte("token"))
	if err != nil {
		t.Fatalf("ReleaseLease failed: %v", err)
	}
	if !released {
		t.Fatal("Releasing an absent lease should report true")
	}
}

func TestLeaseExpiresAfterTTL(t *testing.T) {
	tbl := ltable.NewLocalTable(&ltable.Options{JanitorInterval: -1})
	leases := NewLeaseManager(tbl)

	// With the logical clock the lease is gone after two more writes
	ok, _, err := leases.AcquireLease("resource", 2)
	if err != nil || !ok {
		t.Fatalf("Acquire failed (ok=%v, err=%v)", ok, err)
	}

	tbl.Insert("filler-1", []byte("x"))
	tbl.Insert("filler-2", []byte("x"))

	ok, _, err = leases.AcquireLease("resource", 0)
	if err != nil {
		t.Fatalf("AcquireLease failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected to acquire the lease after its ttl elapsed")
	}
}

func TestConcurrentAcquire(t *testing.T) {
	leases := newTestManager()

	numWorkers := 16
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	var mu sync.Mutex
	winners := 0

	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()

			ok, _, err := leases.AcquireLease("contested", 0)
			if err != nil {
				t.Errorf("AcquireLease failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if winners != 1 {
		t.Fatalf("Expected exactly one winner, got %d", winners)
	}
}
