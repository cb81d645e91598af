package ltable

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/okvlab/okv/lib/service"
	"github.com/okvlab/okv/lib/service/ltable/internal"
	"github.com/okvlab/okv/lib/table"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultJanitorInterval = 100 * time.Millisecond // Default interval between janitor cycles
)

// --------------------------------------------------------------------------
// Core Local Table Structure
// --------------------------------------------------------------------------

// tableImpl implements service.ITable on a single node. The core ordered
// table is guarded by an RWMutex; the optional janitor goroutine owns the
// deadline heap exclusively and learns about TTL writes through a lock-free
// event queue, so writers never contend on the heap.
type tableImpl struct {
	mu    sync.RWMutex
	tbl   *table.Table[string, internal.Entry]
	clock Clock

	// janitor
	janitorInterval time.Duration
	janitorRunning  atomic.Bool
	events          *internal.MPSC[internal.Event]
	janitorDone     chan struct{}
}

// Options configures the local table behavior during initialization.
type Options struct {
	Clock           Clock         // Tick source for TTLs (nil = logical clock)
	JanitorInterval time.Duration // Time between janitor cycles (0 = use default, <0 = janitor disabled)
}

// DefaultOptions returns the default local table options.
func DefaultOptions() *Options {
	return &Options{
		Clock:           NewLogicalClock(),
		JanitorInterval: defaultJanitorInterval,
	}
}

// NewLocalTable creates a new local table instance with the specified
// options (optional). This implementation is not distributed and only works
// on a single node.
//
// Thread-safety: This function is not thread-safe and should only be called
// once during initialization. The returned table is safe for concurrent use.
func NewLocalTable(opts *Options) service.ITable {
	if opts == nil {
		opts = DefaultOptions()
	}

	clock := opts.Clock
	if clock == nil {
		clock = NewLogicalClock()
	}

	interval := opts.JanitorInterval
	if interval == 0 {
		interval = defaultJanitorInterval
	}

	t := &tableImpl{
		tbl:             table.New[string, internal.Entry](),
		clock:           clock,
		janitorInterval: interval,
	}

	if interval > 0 {
		t.startJanitor()
	}

	return t
}

// --------------------------------------------------------------------------
// Interface Methods - Write Operations (docu see service/interface.go)
// --------------------------------------------------------------------------

func (t *tableImpl) Insert(key string, value []byte) error {
	return t.InsertTTL(key, value, 0)
}

func (t *tableImpl) InsertTTL(key string, value []byte, ttl uint64) error {
	now := t.clock.Tick()

	var expireAt uint64
	if ttl > 0 {
		expireAt = now + ttl
	}

	// Copy value to prevent aliasing with caller memory
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	t.mu.Lock()
	t.tbl.Set(key, internal.Entry{Value: valueCopy, ExpireAt: expireAt})
	t.mu.Unlock()

	t.notifyJanitor(key, expireAt)
	return nil
}

func (t *tableImpl) InsertIfAbsent(key string, value []byte, ttl uint64) error {
	now := t.clock.Tick()

	var expireAt uint64
	if ttl > 0 {
		expireAt = now + ttl
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	inserted := false

	t.mu.Lock()
	entry, err := t.tbl.Get(key)
	if err == nil && !entry.Expired(now) {
		// Live entry present, keep it
		t.mu.Unlock()
		return nil
	}
	// Absent or expired: either way the key ends up at the tail
	t.tbl.Set(key, internal.Entry{Value: valueCopy, ExpireAt: expireAt})
	inserted = true
	t.mu.Unlock()

	if inserted {
		t.notifyJanitor(key, expireAt)
	}
	return nil
}

func (t *tableImpl) Remove(key string) error {
	t.mu.Lock()
	_, removed := t.tbl.Remove(key)
	t.mu.Unlock()

	if removed {
		t.notifyJanitor(key, 0)
	}
	return nil
}

func (t *tableImpl) Take(key string) (service.Removed, bool, error) {
	now := t.clock.Now()

	t.mu.Lock()
	entry, prev, next, err := t.tbl.Take(key)
	t.mu.Unlock()

	if err != nil {
		return service.Removed{}, false, nil
	}

	t.notifyJanitor(key, 0)

	removed := service.Removed{
		Prev:    prev.Key(),
		Next:    next.Key(),
		HasPrev: prev.Valid(),
		HasNext: next.Valid(),
	}
	// Expired values are no longer readable, but the removal itself still
	// reports the neighbor keys so a sweep can resume
	if !entry.Expired(now) {
		removed.Value = entry.Value
	}
	return removed, true, nil
}

// --------------------------------------------------------------------------
// Interface Methods - Query Operations
// --------------------------------------------------------------------------

func (t *tableImpl) Get(key string) ([]byte, bool, error) {
	now := t.clock.Now()

	t.mu.RLock()
	entry, err := t.tbl.Get(key)
	t.mu.RUnlock()

	if err != nil || entry.Expired(now) {
		return nil, false, nil
	}

	// Copy so callers can't mutate stored data
	value := make([]byte, len(entry.Value))
	copy(value, entry.Value)
	return value, true, nil
}

func (t *tableImpl) Has(key string) (bool, error) {
	t.mu.RLock()
	ok := t.tbl.Has(key)
	t.mu.RUnlock()
	return ok, nil
}

func (t *tableImpl) Head() (string, bool, error) {
	t.mu.RLock()
	c := t.tbl.Head()
	t.mu.RUnlock()
	return c.Key(), c.Valid(), nil
}

func (t *tableImpl) Tail() (string, bool, error) {
	t.mu.RLock()
	c := t.tbl.Tail()
	t.mu.RUnlock()
	return c.Key(), c.Valid(), nil
}

func (t *tableImpl) Next(key string) (string, bool, error) {
	t.mu.RLock()
	c := t.tbl.Next(key)
	t.mu.RUnlock()
	return c.Key(), c.Valid(), nil
}

func (t *tableImpl) Prev(key string) (string, bool, error) {
	t.mu.RLock()
	c := t.tbl.Prev(key)
	t.mu.RUnlock()
	return c.Key(), c.Valid(), nil
}

func (t *tableImpl) Len() (uint64, error) {
	t.mu.RLock()
	n := t.tbl.Len()
	t.mu.RUnlock()
	return uint64(n), nil
}

func (t *tableImpl) Scan(after string, limit int) ([]string, bool, error) {
	if limit < 0 {
		return nil, false, service.NewError(service.RetCInvalidOperation, "scan limit must not be negative")
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	var c table.Cursor[string]
	if after == "" {
		c = t.tbl.Head()
	} else {
		if !t.tbl.Has(after) {
			return nil, false, service.NewError(service.RetCKeyNotFound, "scan start key not found")
		}
		c = t.tbl.Next(after)
	}

	keys := make([]string, 0, limit)
	for c.Valid() && len(keys) < limit {
		keys = append(keys, c.Key())
		c = t.tbl.Next(c.Key())
	}
	return keys, c.Valid(), nil
}

// --------------------------------------------------------------------------
// Interface Methods - Maintenance Operations
// --------------------------------------------------------------------------

func (t *tableImpl) Reap() (uint64, error) {
	// Snapshot the tick once so the sweep terminates even if writers keep
	// advancing the clock
	now := t.clock.Now()

	t.mu.Lock()
	reaped := table.Reap(t.tbl, func(_ string, e internal.Entry) bool {
		return e.Expired(now)
	})
	t.mu.Unlock()

	return reaped, nil
}

func (t *tableImpl) GetServiceInfo() (service.ServiceInfo, error) {
	now := t.clock.Now()

	t.mu.RLock()
	entries := uint64(t.tbl.Len())
	head := t.tbl.Head()
	tail := t.tbl.Tail()

	var backlog uint64
	for _, e := range t.tbl.All() {
		if e.Expired(now) {
			backlog++
		}
	}
	t.mu.RUnlock()

	return service.ServiceInfo{
		Entries:     entries,
		HeadKey:     head.Key(),
		TailKey:     tail.Key(),
		ClockNow:    now,
		ReapBacklog: backlog,
		Impl:        service.ImplLocal,
		SupportedFeatures: []service.Feature{
			service.FeatureInsert, service.FeatureInsertTTL, service.FeatureInsertIfAbsent,
			service.FeatureRemove, service.FeatureTake,
			service.FeatureGet, service.FeatureHas,
			service.FeatureCursor, service.FeatureScan,
			service.FeatureReap,
		},
		Metadata: &struct {
			JanitorEnabled  bool   `json:"janitor_enabled"`
			JanitorInterval string `json:"janitor_interval"`
		}{
			JanitorEnabled:  t.janitorRunning.Load(),
			JanitorInterval: t.janitorInterval.String(),
		},
	}, nil
}

func (t *tableImpl) SupportsFeature(feature service.Feature) bool {
	supported := service.FeatureInsert |
		service.FeatureInsertTTL |
		service.FeatureInsertIfAbsent |
		service.FeatureRemove |
		service.FeatureTake |
		service.FeatureGet |
		service.FeatureHas |
		service.FeatureCursor |
		service.FeatureScan |
		service.FeatureReap
	return supported&feature == feature
}

func (t *tableImpl) Close() error {
	t.stopJanitor()
	return nil
}

// --------------------------------------------------------------------------
// Janitor
// --------------------------------------------------------------------------

// startJanitor starts the background reaper.
// If the janitor is already running, this function does nothing.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *tableImpl) startJanitor() {
	if t.janitorRunning.CompareAndSwap(false, true) {
		t.events = internal.NewMPSC[internal.Event]()
		t.janitorDone = make(chan struct{})
		go t.janitor()
	}
}

// stopJanitor stops the background reaper and waits for it to exit.
// The janitor can't be started again after it has been stopped.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *tableImpl) stopJanitor() {
	if t.janitorRunning.CompareAndSwap(true, false) {
		t.events.Close()
		<-t.janitorDone
	}
}

// notifyJanitor tells the janitor about a deadline change for key.
// expireAt=0 cancels any pending deadline (plain insert or removal).
func (t *tableImpl) notifyJanitor(key string, expireAt uint64) {
	if t.events == nil {
		return
	}

	event := &internal.Event{Key: key, ExpireAt: expireAt}
	if expireAt > 0 {
		event.Type = internal.EventTSchedule
	} else {
		event.Type = internal.EventTCancel
	}
	t.events.Push(event)
}

// janitor is the main background reaping loop.
// WARNING: this method should never be called directly! Use startJanitor()
// and stopJanitor().
func (t *tableImpl) janitor() {
	defer close(t.janitorDone)

	// The heap is owned by this goroutine only
	deadlines := internal.NewDeadlineHeap()

	timer := time.NewTimer(t.janitorInterval)
	defer timer.Stop()

	for {
		timer.Reset(t.janitorInterval)

		// Drain deadline events until the cycle timer fires
		endLoop := false
		for !endLoop {
			select {
			case event, ok := <-t.events.Recv():
				if !ok {
					return
				}
				switch event.Type {
				case internal.EventTSchedule:
					deadlines.Schedule(event.Key, event.ExpireAt)
				case internal.EventTCancel:
					deadlines.Cancel(event.Key)
				}

			case <-timer.C:
				endLoop = true
			}
		}

		/*
			Snapshot the tick once per cycle so the reap loop terminates
			even while writers keep advancing the clock.
		*/
		now := t.clock.Now()

		for {
			key, ok := deadlines.PopDue(now)
			if !ok {
				break
			}

			/*
				Double-check under the lock: the entry may have been
				replaced with a later deadline since it was scheduled. A
				replacement also queued a fresh event, so popping the stale
				deadline here never loses track of the key.
			*/
			t.mu.Lock()
			if entry, err := t.tbl.Get(key); err == nil && entry.Expired(now) {
				t.tbl.Remove(key)
			}
			t.mu.Unlock()
		}
	}
}
