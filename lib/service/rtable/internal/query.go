package internal

// QueryType defines the possible read-only queries for the state machine.
type QueryType uint8

const (
	QueryTGet            QueryType = iota // Retrieve an entry by key.
	QueryTHas                             // Check if a key is present.
	QueryTHead                            // Retrieve the oldest key.
	QueryTTail                            // Retrieve the newest key.
	QueryTNext                            // Retrieve the successor of a key.
	QueryTPrev                            // Retrieve the predecessor of a key.
	QueryTLen                             // Retrieve the number of entries.
	QueryTScan                            // Retrieve a page of keys in insertion order.
	QueryTGetServiceInfo                  // Retrieve metadata about the table behind the machine.
)

func (q QueryType) String() string {
	switch q {
	case QueryTGet:
		return "Get"
	case QueryTHas:
		return "Has"
	case QueryTHead:
		return "Head"
	case QueryTTail:
		return "Tail"
	case QueryTNext:
		return "Next"
	case QueryTPrev:
		return "Prev"
	case QueryTLen:
		return "Len"
	case QueryTScan:
		return "Scan"
	case QueryTGetServiceInfo:
		return "GetServiceInfo"
	default:
		return "Unknown"
	}
}

// Query defines the structure for lookup requests (read-only) sent via
// SyncRead or StaleRead.
type Query struct {
	Type  QueryType // The type of Query to perform.
	Key   string    // The key for the Query (empty for some queries).
	Limit int       // Page size, only used by QueryTScan.
}

// GetResult is the result of a QueryTGet operation.
type GetResult struct {
	Ok    bool
	Value []byte
}

// CursorResult is the result of the cursor queries (Head, Tail, Next, Prev).
type CursorResult struct {
	Key string
	Ok  bool
}

// ScanResult is the result of a QueryTScan operation.
type ScanResult struct {
	Keys []string
	More bool
}
