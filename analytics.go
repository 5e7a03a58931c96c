package main

import (
	"log"
	"sync"
	"time"
)

const (
	analyticsQueueSize  = 1024
	analyticsBatchSize  = 50
	analyticsFlushEvery = 5 * time.Second
)

// trackedEvent is a world event queued for persistence
type trackedEvent struct {
	MatchID string
	Event   WorldEvent
}

// Analytics persists world events with batched background writes
type Analytics struct {
	db     *DB
	events chan trackedEvent
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	mu      sync.RWMutex
	dropped int
	written int
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan trackedEvent, analyticsQueueSize),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues events for async persistence (non-blocking)
func (a *Analytics) Track(matchID string, events []WorldEvent) {
	for _, e := range events {
		select {
		case a.events <- trackedEvent{MatchID: matchID, Event: e}:
		default:
			// Queue full, drop rather than stall the tick loop
			a.mu.Lock()
			a.dropped++
			a.mu.Unlock()
		}
	}
}

// Counts returns how many events were written and dropped so far
func (a *Analytics) Counts() (written, dropped int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.written, a.dropped
}

// Close flushes queued events and stops the writer
func (a *Analytics) Close() {
	a.once.Do(func() { close(a.stop) })
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]trackedEvent, 0, 64)
	ticker := time.NewTicker(analyticsFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= analyticsBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch grouped by match, preserving order within each match
func (a *Analytics) flush(batch []trackedEvent) {
	if a.db == nil || len(batch) == 0 {
		return
	}
	var order []string
	byMatch := make(map[string][]WorldEvent)
	for _, t := range batch {
		if _, ok := byMatch[t.MatchID]; !ok {
			order = append(order, t.MatchID)
		}
		byMatch[t.MatchID] = append(byMatch[t.MatchID], t.Event)
	}
	n := 0
	for _, id := range order {
		if err := a.db.InsertEvents(id, byMatch[id]); err != nil {
			log.Printf("analytics: insert error: %v", err)
			continue
		}
		n += len(byMatch[id])
	}
	a.mu.Lock()
	a.written += n
	a.mu.Unlock()
}
