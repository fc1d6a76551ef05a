package session

import (
	"sync"
	"time"

	"backend-pawtrail/internal/walk"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// TickSource delivers a callback at a fixed interval until stopped.
// The session owns it and stops it on every transition out of Active,
// so a dead session never leaves a ticker running.
type TickSource interface {
	Start(interval time.Duration, fn func())
	Stop()
}

type tickerSource struct {
	mu   sync.Mutex
	stop chan struct{}
}

func NewTicker() TickSource { return &tickerSource{} }

func (t *tickerSource) Start(interval time.Duration, fn func()) {
	t.Stop()

	t.mu.Lock()
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-stop:
				return
			}
		}
	}()
}

func (t *tickerSource) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

// PositionSource is a cancellable subscription to a feed of position
// samples. The returned cancel runs on pause, finish and discard, which
// is why samples arriving while paused are dropped rather than buffered.
type PositionSource interface {
	Subscribe(fn func(walk.Point)) (cancel func())
}

// NopSource is the default: samples arrive over HTTP, there is nothing
// to subscribe to. A session with no GPS feed still starts fine.
type NopSource struct{}

func (NopSource) Subscribe(func(walk.Point)) func() { return func() {} }

// FeedSource fans published samples out to the current subscriber. The
// websocket ingest path and the session tests publish into one of these.
type FeedSource struct {
	mu sync.Mutex
	fn func(walk.Point)
}

func NewFeedSource() *FeedSource { return &FeedSource{} }

func (f *FeedSource) Subscribe(fn func(walk.Point)) func() {
	f.mu.Lock()
	f.fn = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.fn = nil
		f.mu.Unlock()
	}
}

func (f *FeedSource) Publish(p walk.Point) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}
