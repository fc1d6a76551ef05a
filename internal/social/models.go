package social

import "time"

const (
	GroupPublic   = "public"
	GroupApproval = "approval"
	GroupPrivate  = "private"
)

type Group struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Privacy      string    `json:"privacy"`
	CreatedBy    string    `json:"created_by"`
	MembersCount int       `json:"members_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type JoinRequest struct {
	GroupID   string    `json:"group_id"`
	GroupName string    `json:"group_name,omitempty"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// JoinOutcome reports what a join attempt produced: immediate membership
// for public groups, a pending request for approval groups.
type JoinOutcome struct {
	Status string `json:"status"` // joined | requested
}

type Relations struct {
	FollowingIDs []string `json:"followingIds"`
	FollowerIDs  []string `json:"followerIds"`
	MutualIDs    []string `json:"mutualIds"`
}

type UserSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url,omitempty"`
}
