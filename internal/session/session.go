// Package session holds the live walk state machine: one session per
// user, fed by position samples, with elapsed time derived from wall
// clock anchors and durable snapshots in Redis.
//
// Every accepted sample appends to the route and contributes haversine
// distance; there is no minimum-movement filter, so GPS jitter while
// standing still does accumulate distance. That matches the recording
// behavior users already have.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"backend-pawtrail/internal/shared/geo"
	"backend-pawtrail/internal/walk"
)

const (
	tickInterval  = time.Second
	debounceDelay = 400 * time.Millisecond
	saveTimeout   = 2 * time.Second
)

var ErrNoActiveSession = errors.New("no active session")

// Gateway persists a finished session. walk.Service implements it.
type Gateway interface {
	CreateWalk(ctx context.Context, input walk.CreateWalkInput) (walk.Walk, error)
}

// Broadcaster fans live samples out to watchers. stream.Hub implements it.
type Broadcaster interface {
	Broadcast(userID string, payload []byte)
}

// Deps are the session's injected collaborators. Tests construct a
// session with fakes; nothing here is a package-level singleton.
type Deps struct {
	Clock           Clock
	Ticker          TickSource
	Positions       PositionSource
	Store           SnapshotStore
	Gateway         Gateway
	Broadcast       Broadcaster
	AutoPauseOnHide bool
}

type Session struct {
	mu     sync.Mutex
	userID string

	state        State
	route        []walk.Point
	events       []walk.Event
	distanceM    float64
	petIDs       []string
	startedAtMs  int64
	pausedAtMs   int64
	pauseAccumMs int64
	autoPause    bool

	clock     Clock
	ticker    TickSource
	positions PositionSource
	store     SnapshotStore
	gateway   Gateway
	broadcast Broadcaster

	subCancel func()
	saveTimer *time.Timer
}

func New(userID string, deps Deps) *Session {
	if deps.Clock == nil {
		deps.Clock = systemClock{}
	}
	if deps.Ticker == nil {
		deps.Ticker = NewTicker()
	}
	if deps.Positions == nil {
		deps.Positions = NopSource{}
	}
	return &Session{
		userID:    userID,
		state:     StateIdle,
		autoPause: deps.AutoPauseOnHide,
		clock:     deps.Clock,
		ticker:    deps.Ticker,
		positions: deps.Positions,
		store:     deps.Store,
		gateway:   deps.Gateway,
		broadcast: deps.Broadcast,
	}
}

func (s *Session) nowMs() int64 {
	return s.clock.Now().UnixMilli()
}

// elapsedMs recomputes elapsed time from the absolute anchors. It is
// never incremented, so sleep or backgrounding cannot desynchronize it.
func (s *Session) elapsedMs(nowMs int64) int64 {
	if s.startedAtMs == 0 {
		return 0
	}
	var pausedBlock int64
	if s.state == StatePaused && s.pausedAtMs != 0 {
		pausedBlock = nowMs - s.pausedAtMs
	}
	e := nowMs - s.startedAtMs - s.pauseAccumMs - pausedBlock
	if e < 0 {
		e = 0
	}
	return e
}

// Start begins a new walk. No-op unless Idle, so a duplicate tap cannot
// reset a walk in progress.
func (s *Session) Start(petIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return
	}

	s.route = nil
	s.events = nil
	s.distanceM = 0
	s.pauseAccumMs = 0
	s.pausedAtMs = 0
	s.startedAtMs = s.nowMs()
	if petIDs != nil {
		s.petIDs = petIDs
	}
	s.state = StateActive

	s.ticker.Start(tickInterval, s.onTick)
	s.subscribeLocked()
	s.saveNowLocked()
}

// SetPets records the pet selection for the next walk. Ignored once a
// walk is underway; selection happens before start.
func (s *Session) SetPets(petIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return
	}
	s.petIDs = petIDs
}

// Offer hands the session a position sample. Ignored unless Active.
// The first sample seeds the route; each later one is appended and its
// haversine distance from the previous point added to the total.
func (s *Session) Offer(p walk.Point) {
	s.mu.Lock()

	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	if p.T == 0 {
		p.T = s.nowMs()
	}

	if len(s.route) > 0 {
		last := s.route[len(s.route)-1]
		s.distanceM += geo.HaversineM(last.Lat, last.Lon, p.Lat, p.Lon)
	}
	s.route = append(s.route, p)
	s.queueSaveLocked()

	broadcast := s.broadcast
	s.mu.Unlock()

	if broadcast != nil {
		if payload, err := json.Marshal(p); err == nil {
			broadcast.Broadcast(s.userID, payload)
		}
	}
}

func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseLocked()
}

func (s *Session) pauseLocked() {
	if s.state != StateActive {
		return
	}
	s.pausedAtMs = s.nowMs()
	s.state = StatePaused
	s.ticker.Stop()
	s.unsubscribeLocked()
	s.saveNowLocked()
}

func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePaused {
		return
	}
	if s.pausedAtMs != 0 {
		s.pauseAccumMs += s.nowMs() - s.pausedAtMs
	}
	s.pausedAtMs = 0
	s.state = StateActive
	s.ticker.Start(tickInterval, s.onTick)
	s.subscribeLocked()
	s.saveNowLocked()
}

// DropMarker appends an event at the most recent route position. With
// an empty route there is nowhere to pin it, so nothing happens.
func (s *Session) DropMarker(kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateIdle || !ValidMarker(kind) {
		return
	}
	if len(s.route) == 0 {
		return
	}
	last := s.route[len(s.route)-1]
	s.events = append(s.events, walk.Event{
		Kind:       kind,
		Lat:        last.Lat,
		Lon:        last.Lon,
		OccurredAt: s.clock.Now(),
	})
	s.queueSaveLocked()
}

// Finish closes the walk. An empty route is an implicit discard: the
// returned walk has no ID and no record is persisted. Otherwise the
// payload goes to the gateway exactly once; local state is cleared
// before the call, so a gateway failure surfaces to the caller but the
// session is gone either way.
func (s *Session) Finish(ctx context.Context, opts FinishOptions) (walk.Walk, error) {
	s.mu.Lock()

	if s.state == StateIdle {
		s.mu.Unlock()
		return walk.Walk{}, ErrNoActiveSession
	}

	finalMs := s.elapsedMs(s.nowMs())
	s.ticker.Stop()
	s.unsubscribeLocked()

	if len(s.route) == 0 {
		s.resetLocked()
		s.mu.Unlock()
		return walk.Walk{}, nil
	}

	if opts.Visibility == "" {
		opts.Visibility = walk.VisibilityPrivate
	}
	input := walk.CreateWalkInput{
		OwnerID:    s.userID,
		PetIDs:     s.petIDs,
		Route:      s.route,
		DistanceM:  int(math.Round(s.distanceM)),
		DurationS:  int(finalMs / 1000),
		Events:     s.events,
		Notes:      opts.Notes,
		Visibility: opts.Visibility,
		GroupIDs:   opts.GroupIDs,
	}
	gateway := s.gateway
	s.resetLocked()
	s.mu.Unlock()

	created, err := gateway.CreateWalk(ctx, input)
	if err != nil {
		return walk.Walk{}, err
	}
	return created, nil
}

// Discard drops the walk without persisting anything.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateIdle {
		return
	}
	s.ticker.Stop()
	s.unsubscribeLocked()
	s.resetLocked()
}

// HandleVisibility reacts to the app going to background or foreground.
// Hiding auto-pauses when the setting is on; coming back never
// auto-resumes. Both edges snapshot immediately.
func (s *Session) HandleVisibility(hidden bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hidden {
		if s.state == StateActive && s.autoPause {
			s.pauseLocked()
			return
		}
	} else if s.state == StateActive {
		// Ticker keeps running server-side; restart defensively in case
		// the process was restored from a snapshot while backgrounded.
		s.ticker.Start(tickInterval, s.onTick)
	}
	s.saveNowLocked()
}

func (s *Session) SetAutoPause(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoPause = on
}

func (s *Session) View() StateView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StateView{
		State:           s.state.String(),
		Route:           append([]walk.Point(nil), s.route...),
		Events:          append([]walk.Event(nil), s.events...),
		DistanceM:       s.distanceM,
		ElapsedS:        s.elapsedMs(s.nowMs()) / 1000,
		PetIDs:          append([]string(nil), s.petIDs...),
		AutoPauseOnHide: s.autoPause,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// restore loads a snapshot into a fresh session. Elapsed is recomputed
// from the anchors; the snapshot's own age only matters for the TTL the
// store applies.
func (s *Session) restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.StartedAtMs == 0 {
		return
	}
	s.route = snap.Route
	s.events = snap.Events
	s.distanceM = snap.DistanceM
	s.petIDs = snap.PetIDs
	s.startedAtMs = snap.StartedAtMs
	s.pauseAccumMs = snap.PauseAccumMs

	switch {
	case snap.Active && snap.Paused:
		s.state = StatePaused
		s.pausedAtMs = snap.PausedAtMs
		if s.pausedAtMs == 0 {
			s.pausedAtMs = s.nowMs()
		}
	case snap.Active:
		s.state = StateActive
		s.ticker.Start(tickInterval, s.onTick)
		s.subscribeLocked()
	default:
		s.state = StateIdle
	}
}

func (s *Session) onTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	s.queueSaveLocked()
}

func (s *Session) subscribeLocked() {
	if s.subCancel != nil {
		return
	}
	s.subCancel = s.positions.Subscribe(s.Offer)
}

func (s *Session) unsubscribeLocked() {
	if s.subCancel != nil {
		s.subCancel()
		s.subCancel = nil
	}
}

func (s *Session) resetLocked() {
	s.state = StateIdle
	s.route = nil
	s.events = nil
	s.distanceM = 0
	s.startedAtMs = 0
	s.pausedAtMs = 0
	s.pauseAccumMs = 0
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	if s.store != nil {
		store, userID := s.store, s.userID
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			defer cancel()
			if err := store.Clear(ctx, userID); err != nil {
				log.Printf("session snapshot clear failed: %v", err)
			}
		}()
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Active:       s.state != StateIdle,
		Paused:       s.state == StatePaused,
		Route:        append([]walk.Point(nil), s.route...),
		Events:       append([]walk.Event(nil), s.events...),
		DistanceM:    s.distanceM,
		PetIDs:       append([]string(nil), s.petIDs...),
		StartedAtMs:  s.startedAtMs,
		PausedAtMs:   s.pausedAtMs,
		PauseAccumMs: s.pauseAccumMs,
		SavedAtMs:    s.nowMs(),
	}
}

// saveNowLocked writes a snapshot immediately. Lifecycle transitions
// use this so abrupt termination loses at most the debounce window.
func (s *Session) saveNowLocked() {
	if s.store == nil {
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	snap := s.snapshotLocked()
	store, userID := s.store, s.userID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := store.Save(ctx, userID, snap); err != nil {
			log.Printf("session snapshot save failed: %v", err)
		}
	}()
}

// queueSaveLocked coalesces rapid changes into one write.
func (s *Session) queueSaveLocked() {
	if s.store == nil {
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(debounceDelay, func() {
		s.mu.Lock()
		if s.state == StateIdle {
			s.mu.Unlock()
			return
		}
		snap := s.snapshotLocked()
		store, userID := s.store, s.userID
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := store.Save(ctx, userID, snap); err != nil {
			log.Printf("session snapshot save failed: %v", err)
		}
	})
}
