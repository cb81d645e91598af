package leasemgr

// ILeaseManager defines the interface for a lease provider.
type ILeaseManager interface {
	// AcquireLease acquires a lease for the given key with an optional ttl.
	// Returns a boolean indicating whether the lease was acquired, an owner
	// token, and an error if any.
	AcquireLease(key string, ttl uint64) (ok bool, ownerToken []byte, err error)

	// ReleaseLease releases the lease for the given key.
	// Returns a boolean indicating whether the lease was released, and an
	// error if any. The method also returns true if the lease did not exist.
	ReleaseLease(key string, ownerToken []byte) (ok bool, err error)
}
