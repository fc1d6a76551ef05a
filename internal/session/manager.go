package session

import (
	"context"
	"log"
	"sync"
)

// Manager holds at most one session per user. A miss first consults the
// snapshot store, so a restarted process picks the walk back up in the
// state it was left in.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	deps     Deps
	newDeps  func(userID string) Deps
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		sessions: map[string]*Session{},
		deps:     deps,
	}
}

// WithDeps overrides per-user dependency construction; tests use it to
// hand each session its own fake ticker and feed.
func (m *Manager) WithDeps(fn func(userID string) Deps) *Manager {
	m.newDeps = fn
	return m
}

func (m *Manager) Get(ctx context.Context, userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[userID]; ok {
		return sess
	}

	deps := m.deps
	if m.newDeps != nil {
		deps = m.newDeps(userID)
	} else {
		// Tickers are per-session; sharing one across users would stop
		// everyone's clock when one walk pauses.
		deps.Ticker = NewTicker()
	}

	sess := New(userID, deps)
	if deps.Store != nil {
		snap, ok, err := deps.Store.Load(ctx, userID)
		if err != nil {
			log.Printf("session snapshot load failed for %s: %v", userID, err)
		} else if ok {
			sess.restore(snap)
		}
	}
	m.sessions[userID] = sess
	return sess
}

// Shutdown stops every live session's timers and subscriptions and
// writes a final snapshot inline, so walks survive a deploy. The saves
// must finish before the caller closes the store's backing connection.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sess := range m.sessions {
		sess.mu.Lock()
		sess.ticker.Stop()
		sess.unsubscribeLocked()
		if sess.saveTimer != nil {
			sess.saveTimer.Stop()
			sess.saveTimer = nil
		}
		var snap Snapshot
		live := sess.state != StateIdle && sess.store != nil
		if live {
			snap = sess.snapshotLocked()
		}
		store, userID := sess.store, sess.userID
		sess.mu.Unlock()

		if live {
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			if err := store.Save(ctx, userID, snap); err != nil {
				log.Printf("session snapshot save failed for %s: %v", userID, err)
			}
			cancel()
		}
	}
	m.sessions = map[string]*Session{}
}
