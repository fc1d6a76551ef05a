package social

import (
	"context"
	"errors"

	"backend-pawtrail/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrSelfFollow    = errors.New("cannot follow yourself")
	ErrGroupNotFound = errors.New("group not found")
	ErrPrivateGroup  = errors.New("private group (invite only)")
	ErrNotGroupOwner = errors.New("only the group owner can approve requests")
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return ErrSelfFollow
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_follows (follower_id, followee_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, followerID, followeeID)
	return err
}

func (s *Service) Unfollow(ctx context.Context, followerID, followeeID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM user_follows WHERE follower_id=$1 AND followee_id=$2
	`, followerID, followeeID)
	return err
}

func (s *Service) Relations(ctx context.Context, userID string) (Relations, error) {
	following, err := s.idColumn(ctx, `
		SELECT followee_id FROM user_follows WHERE follower_id=$1
	`, userID)
	if err != nil {
		return Relations{}, err
	}
	followers, err := s.idColumn(ctx, `
		SELECT follower_id FROM user_follows WHERE followee_id=$1
	`, userID)
	if err != nil {
		return Relations{}, err
	}

	followerSet := make(map[string]struct{}, len(followers))
	for _, id := range followers {
		followerSet[id] = struct{}{}
	}
	var mutual []string
	for _, id := range following {
		if _, ok := followerSet[id]; ok {
			mutual = append(mutual, id)
		}
	}

	return Relations{FollowingIDs: following, FollowerIDs: followers, MutualIDs: mutual}, nil
}

// IsMutualFollow reports whether both follow edges exist between a and b.
func (s *Service) IsMutualFollow(ctx context.Context, a, b string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_follows f1
			JOIN user_follows f2
			  ON f2.follower_id = f1.followee_id AND f2.followee_id = f1.follower_id
			WHERE f1.follower_id = $1 AND f1.followee_id = $2
		)
	`, a, b).Scan(&ok)
	return ok, err
}

func (s *Service) GroupsOf(ctx context.Context, userID string) ([]string, error) {
	return s.idColumn(ctx, `
		SELECT group_id FROM group_members WHERE user_id=$1
	`, userID)
}

func (s *Service) IsMember(ctx context.Context, userID, groupID string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM group_members WHERE user_id=$1 AND group_id=$2
		)
	`, userID, groupID).Scan(&ok)
	return ok, err
}

func (s *Service) CreateGroup(ctx context.Context, input Group) (Group, error) {
	input.ID = uuid.NewString()
	switch input.Privacy {
	case GroupPublic, GroupApproval, GroupPrivate:
	default:
		input.Privacy = GroupPublic
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO groups (id, name, description, privacy, created_by)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, input.ID, input.Name, input.Description, input.Privacy, input.CreatedBy)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Group{}, err
	}

	// Creator joins their own group.
	_, err := s.db.Exec(ctx, `
		INSERT INTO group_members (user_id, group_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, input.CreatedBy, input.ID)
	if err != nil {
		return Group{}, err
	}
	input.MembersCount = 1
	return input, nil
}

// ListGroups returns discoverable groups; private groups stay hidden.
func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := s.db.Query(ctx, `
		SELECT g.id, g.name, g.description, g.privacy, g.created_by, g.created_at,
		       (SELECT COUNT(*)::int FROM group_members gm WHERE gm.group_id = g.id) AS members_count
		FROM groups g
		WHERE g.privacy IN ('public','approval')
		ORDER BY g.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Privacy, &g.CreatedBy, &g.CreatedAt, &g.MembersCount); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (s *Service) MyGroups(ctx context.Context, userID string) ([]Group, error) {
	rows, err := s.db.Query(ctx, `
		SELECT g.id, g.name, g.description, g.privacy, g.created_by, g.created_at
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Privacy, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// JoinGroup applies the group's privacy policy. Public groups grant
// immediate membership, approval groups record a pending request
// (duplicates collapse), private groups are invite-only.
func (s *Service) JoinGroup(ctx context.Context, userID, groupID string) (JoinOutcome, error) {
	var privacy string
	err := s.db.QueryRow(ctx, `SELECT privacy FROM groups WHERE id=$1`, groupID).Scan(&privacy)
	if errors.Is(err, pgx.ErrNoRows) {
		return JoinOutcome{}, ErrGroupNotFound
	}
	if err != nil {
		return JoinOutcome{}, err
	}

	switch privacy {
	case GroupPublic:
		_, err := s.db.Exec(ctx, `
			INSERT INTO group_members (user_id, group_id)
			VALUES ($1,$2)
			ON CONFLICT DO NOTHING
		`, userID, groupID)
		if err != nil {
			return JoinOutcome{}, err
		}
		return JoinOutcome{Status: "joined"}, nil
	case GroupApproval:
		_, err := s.db.Exec(ctx, `
			INSERT INTO group_join_requests (user_id, group_id, status)
			VALUES ($1,$2,'pending')
			ON CONFLICT DO NOTHING
		`, userID, groupID)
		if err != nil {
			return JoinOutcome{}, err
		}
		return JoinOutcome{Status: "requested"}, nil
	default:
		return JoinOutcome{}, ErrPrivateGroup
	}
}

func (s *Service) LeaveGroup(ctx context.Context, userID, groupID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM group_members WHERE user_id=$1 AND group_id=$2
	`, userID, groupID)
	return err
}

func (s *Service) ApproveRequest(ctx context.Context, ownerID, groupID, userID string) error {
	var createdBy string
	err := s.db.QueryRow(ctx, `SELECT created_by FROM groups WHERE id=$1`, groupID).Scan(&createdBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrGroupNotFound
	}
	if err != nil {
		return err
	}
	if createdBy != ownerID {
		return ErrNotGroupOwner
	}

	_, err = s.db.Exec(ctx, `
		UPDATE group_join_requests SET status='approved'
		WHERE user_id=$1 AND group_id=$2
	`, userID, groupID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO group_members (user_id, group_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, userID, groupID)
	return err
}

func (s *Service) MyJoinRequests(ctx context.Context, userID string) ([]JoinRequest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT gr.group_id, g.name, gr.user_id, gr.status, gr.created_at
		FROM group_join_requests gr
		JOIN groups g ON g.id = gr.group_id
		WHERE gr.user_id = $1 AND gr.status = 'pending'
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []JoinRequest
	for rows.Next() {
		var r JoinRequest
		if err := rows.Scan(&r.GroupID, &r.GroupName, &r.UserID, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, nil
}

func (s *Service) SearchUsers(ctx context.Context, callerID, query string) ([]UserSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, display_name, email, COALESCE(photo_url,'')
		FROM users
		WHERE ($1 = '' OR display_name ILIKE '%'||$1||'%' OR email ILIKE '%'||$1||'%')
		  AND id <> $2
		ORDER BY display_name, email
		LIMIT 25
	`, query, callerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserSummary
	for rows.Next() {
		var u UserSummary
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Email, &u.PhotoURL); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Service) idColumn(ctx context.Context, sql, arg string) ([]string, error) {
	rows, err := s.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
