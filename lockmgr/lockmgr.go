// Package lockmgr provides per-record-id mutual exclusion with idle-based
// eviction.
//
// Lock entries are created lazily on first acquisition and reused. A
// background sweeper, running on a fixed interval, removes entries whose last
// use is older than an idle threshold and which are not currently held or
// awaited. This bounds memory growth from transient ids (e.g. ids probed
// during queries) without risking eviction mid-use.
package lockmgr

import (
	"sync"
	"time"

	"github.com/hupe1980/docstore/record"
)

// Options configures a Manager.
type Options struct {
	// IdleAfter is how long an unheld entry must be idle before eviction.
	IdleAfter time.Duration

	// SweepEvery is the interval between eviction sweeps.
	SweepEvery time.Duration
}

type entry struct {
	mu       sync.Mutex
	refs     int
	lastUsed time.Time
}

// Manager maintains one mutex per record id.
type Manager struct {
	mu      sync.Mutex
	entries map[record.ID]*entry

	idleAfter  time.Duration
	sweepEvery time.Duration

	stop chan struct{}
	done chan struct{}
}

// New creates a Manager and starts its eviction sweeper.
func New(optFns ...func(o *Options)) *Manager {
	opts := Options{
		IdleAfter:  time.Minute,
		SweepEvery: 30 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	m := &Manager{
		entries:    make(map[record.ID]*entry),
		idleAfter:  opts.IdleAfter,
		sweepEvery: opts.SweepEvery,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go m.sweeper()
	return m
}

// Acquire locks the entry for id, creating it if needed, and returns the
// release function. The release function must be called exactly once.
func (m *Manager) Acquire(id record.ID) (release func()) {
	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok {
		e = &entry{}
		m.entries[id] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		m.mu.Lock()
		e.refs--
		e.lastUsed = time.Now()
		m.mu.Unlock()
	}
}

// Len returns the number of live lock entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close stops the eviction sweeper.
func (m *Manager) Close() {
	close(m.stop)
	<-m.done
}

func (m *Manager) sweeper() {
	defer close(m.done)

	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

// sweep removes idle entries. Entries with refs > 0 are held or awaited and
// are never evicted.
func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.entries {
		if e.refs > 0 {
			continue
		}
		if now.Sub(e.lastUsed) >= m.idleAfter {
			delete(m.entries, id)
		}
	}
}
