package session

import "backend-pawtrail/internal/walk"

type State int

const (
	StateIdle State = iota
	StateActive
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

// Marker kinds the walker can drop along the route.
const (
	MarkerPoop  = "poop"
	MarkerPee   = "pee"
	MarkerWater = "water"
)

func ValidMarker(kind string) bool {
	switch kind {
	case MarkerPoop, MarkerPee, MarkerWater:
		return true
	}
	return false
}

// Snapshot is the durable copy of a live session, written to Redis on
// every material change. Elapsed time is not stored: it is always
// recomputed from the anchors so a stale snapshot cannot skew the clock.
type Snapshot struct {
	Active       bool         `json:"active"`
	Paused       bool         `json:"paused"`
	Route        []walk.Point `json:"route"`
	Events       []walk.Event `json:"events"`
	DistanceM    float64      `json:"distance_m"`
	PetIDs       []string     `json:"pet_ids"`
	StartedAtMs  int64        `json:"started_at_ms"`
	PausedAtMs   int64        `json:"paused_at_ms"`
	PauseAccumMs int64        `json:"pause_accum_ms"`
	SavedAtMs    int64        `json:"saved_at_ms"`
}

// StateView is what the UI polls.
type StateView struct {
	State           string       `json:"state"`
	Route           []walk.Point `json:"route"`
	Events          []walk.Event `json:"events"`
	DistanceM       float64      `json:"distance_m"`
	ElapsedS        int64        `json:"elapsed_s"`
	PetIDs          []string     `json:"pet_ids"`
	AutoPauseOnHide bool         `json:"auto_pause_on_hide"`
}

type FinishOptions struct {
	Notes      string   `json:"notes"`
	Visibility string   `json:"visibility"`
	GroupIDs   []string `json:"group_ids"`
}
