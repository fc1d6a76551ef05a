package walk

import "time"

// Visibility values a walk can carry. Default is private.
const (
	VisibilityPrivate = "private"
	VisibilityFriends = "friends"
	VisibilityGroups  = "groups"
)

func ValidVisibility(v string) bool {
	switch v {
	case VisibilityPrivate, VisibilityFriends, VisibilityGroups:
		return true
	}
	return false
}

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	T   int64   `json:"t"` // epoch ms when the sample was recorded
}

type Event struct {
	Kind       string    `json:"type"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	OccurredAt time.Time `json:"occurred_at"`
}

type OwnerInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

type PetInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url,omitempty"`
}

type GroupShare struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
}

// Walk is immutable once created; pet and group-share associations are
// written atomically with the row itself.
type Walk struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"-"`
	Owner       OwnerInfo    `json:"user"`
	Route       []Point      `json:"route"`
	DistanceM   int          `json:"distance_m"`
	DurationS   int          `json:"duration_s"`
	Events      []Event      `json:"events"`
	Notes       string       `json:"notes,omitempty"`
	Visibility  string       `json:"visibility"`
	Pets        []PetInfo    `json:"pets"`
	GroupShares []GroupShare `json:"group_shares"`
	CreatedAt   time.Time    `json:"created_at"`
}

type CreateWalkInput struct {
	OwnerID    string   `json:"-"`
	PetIDs     []string `json:"pet_ids"`
	Route      []Point  `json:"route"`
	DistanceM  int      `json:"distance_m"`
	DurationS  int      `json:"duration_s"`
	Events     []Event  `json:"events"`
	Notes      string   `json:"notes"`
	Visibility string   `json:"visibility"`
	GroupIDs   []string `json:"group_ids"`
}
