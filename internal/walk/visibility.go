package walk

import (
	"context"
	"errors"
)

// Deny reasons carry which rule refused access so the UI can word the
// message accordingly.
var (
	ErrPrivateWalk = errors.New("walk is private")
	ErrFriendsOnly = errors.New("walk is visible to mutual follows only")
	ErrGroupOnly   = errors.New("walk is shared to groups you are not in")
	ErrNotVisible  = errors.New("walk is not visible")
)

// SocialGraph is the follow/membership surface the resolver consults.
// social.Service implements it.
type SocialGraph interface {
	IsMutualFollow(ctx context.Context, a, b string) (bool, error)
	IsMember(ctx context.Context, userID, groupID string) (bool, error)
	GroupsOf(ctx context.Context, userID string) ([]string, error)
}

// CanView decides read access to a single walk. Rules apply in order,
// first match wins: owner, private, friends (mutual follow), groups
// (member of at least one target group).
func (s *Service) CanView(ctx context.Context, w Walk, viewerID string) error {
	if viewerID == w.OwnerID {
		return nil
	}

	switch w.Visibility {
	case VisibilityPrivate:
		return ErrPrivateWalk
	case VisibilityFriends:
		mutual, err := s.graph.IsMutualFollow(ctx, viewerID, w.OwnerID)
		if err != nil {
			return err
		}
		if !mutual {
			return ErrFriendsOnly
		}
		return nil
	case VisibilityGroups:
		viewerGroups, err := s.graph.GroupsOf(ctx, viewerID)
		if err != nil {
			return err
		}
		targets := make(map[string]struct{}, len(w.GroupShares))
		for _, share := range w.GroupShares {
			targets[share.GroupID] = struct{}{}
		}
		for _, g := range viewerGroups {
			if _, ok := targets[g]; ok {
				return nil
			}
		}
		return ErrGroupOnly
	default:
		return ErrNotVisible
	}
}
