// Package leasemgr implements a leasing mechanism on top of table services
// that implement the service.ITable interface. It provides a simple yet
// robust way to coordinate access to shared resources across multiple
// processes or nodes.
//
// The lease manager only ever stores in the provided ITable and has no other
// internal state. It is therefore safe to create multiple managers on the
// same table. It is even possible to create a new manager for every acquire
// or release operation. As long as the same table is used every time, all
// leases work as expected.
//
// Core Functionality:
//   - Lease acquisition with ownership verification
//   - Automatic lease expiration through configurable TTLs
//   - Safe release operations that verify ownership
//
// Implementation Approach:
//
//	Leases are implemented by leveraging the atomic conditional operations
//	of the underlying table. Specifically:
//
//	- Lease Acquisition: Attempts to create a key using InsertIfAbsent,
//	  which guarantees that only one requester can successfully create the
//	  key. The value contains a randomly generated owner token that
//	  identifies the lease holder.
//
//	- Lease Verification: A successful InsertIfAbsent operation is followed
//	  by a Get operation to confirm the lease was acquired by checking that
//	  the stored value matches the owner token.
//
//	- TTLs: Leases can be configured with an optional lifetime that
//	  automatically releases the lease after the specified number of clock
//	  ticks, preventing deadlocks if a client crashes.
//
//	- Safe Release: The ReleaseLease operation first verifies that the
//	  requester is the legitimate owner of the lease by comparing owner
//	  tokens before executing the Remove operation.
//
// A useful side effect of building on the ordered table: leases sit in the
// table in acquisition order, so Head() always points at the longest-held
// lease and a Scan lists current holders oldest-first.
//
// Distributed Considerations:
//
//	When used with the replicated table implementation (rtable), the lease
//	manager provides true distributed leasing with consensus-based
//	guarantees.
//
// Usage Example:
//
//	// Create a lease manager with a table backend
//	leases := leasemgr.NewLeaseManager(table)
//
//	// Acquire a lease with a ttl
//	acquired, ownerToken, err := leases.AcquireLease("resource:123", 30)
//	if err != nil {
//	    // Handle error
//	}
//
//	if acquired {
//	    // Use the resource safely
//	    // ...
//
//	    // Release the lease when done
//	    released, err := leases.ReleaseLease("resource:123", ownerToken)
//	    if err != nil {
//	        // Handle error
//	    }
//	}
//
// Security Considerations:
//
//	The lease mechanism uses randomly generated owner tokens, which provides
//	reasonable protection against accidental lease stealing. However, it is
//	not designed to resist malicious attacks, as an attacker with access to
//	the underlying table could manipulate lease data directly.
package leasemgr
