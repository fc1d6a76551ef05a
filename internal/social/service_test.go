package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

var errSocial = errors.New("social error")

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestFollow(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec(`INSERT INTO user_follows`).
		WithArgs("user-1", "user-2").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock)
	if err := svc.Follow(context.Background(), "user-1", "user-2"); err != nil {
		t.Fatalf("follow: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFollowSelfRejected(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	if err := svc.Follow(context.Background(), "user-1", "user-1"); !errors.Is(err, ErrSelfFollow) {
		t.Fatalf("expected ErrSelfFollow, got %v", err)
	}
}

func TestUnfollow(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec(`DELETE FROM user_follows`).
		WithArgs("user-1", "user-2").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	svc := NewService(mock)
	if err := svc.Unfollow(context.Background(), "user-1", "user-2"); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
}

func TestRelationsComputesMutuals(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT followee_id FROM user_follows`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"followee_id"}).
			AddRow("user-2").AddRow("user-3"))
	mock.ExpectQuery(`SELECT follower_id FROM user_follows`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"follower_id"}).
			AddRow("user-3").AddRow("user-4"))

	svc := NewService(mock)
	rel, err := svc.Relations(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("relations: %v", err)
	}
	if len(rel.FollowingIDs) != 2 || len(rel.FollowerIDs) != 2 {
		t.Fatalf("unexpected relations %+v", rel)
	}
	if len(rel.MutualIDs) != 1 || rel.MutualIDs[0] != "user-3" {
		t.Fatalf("expected user-3 mutual, got %v", rel.MutualIDs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIsMutualFollow(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("user-1", "user-2").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	svc := NewService(mock)
	mutual, err := svc.IsMutualFollow(context.Background(), "user-1", "user-2")
	if err != nil {
		t.Fatalf("mutual: %v", err)
	}
	if !mutual {
		t.Fatalf("expected mutual")
	}
}

func TestCreateGroupCreatorJoins(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO groups`).
		WithArgs(pgxmock.AnyArg(), "Park Pack", "morning walkers", "approval", "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(`INSERT INTO group_members`).
		WithArgs("user-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock)
	g, err := svc.CreateGroup(context.Background(), Group{
		Name:        "Park Pack",
		Description: "morning walkers",
		Privacy:     GroupApproval,
		CreatedBy:   "user-1",
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if g.ID == "" || g.MembersCount != 1 {
		t.Fatalf("unexpected group %+v", g)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateGroupUnknownPrivacyDefaultsPublic(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO groups`).
		WithArgs(pgxmock.AnyArg(), "Pack", "", "public", "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(`INSERT INTO group_members`).
		WithArgs("user-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock)
	g, err := svc.CreateGroup(context.Background(), Group{Name: "Pack", Privacy: "secret", CreatedBy: "user-1"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if g.Privacy != GroupPublic {
		t.Fatalf("expected public fallback, got %q", g.Privacy)
	}
}

func TestJoinPublicGroup(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT privacy FROM groups`).
		WithArgs("group-1").
		WillReturnRows(pgxmock.NewRows([]string{"privacy"}).AddRow("public"))
	mock.ExpectExec(`INSERT INTO group_members`).
		WithArgs("user-1", "group-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock)
	out, err := svc.JoinGroup(context.Background(), "user-1", "group-1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if out.Status != "joined" {
		t.Fatalf("expected joined, got %q", out.Status)
	}
}

func TestJoinApprovalGroupRequests(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT privacy FROM groups`).
		WithArgs("group-1").
		WillReturnRows(pgxmock.NewRows([]string{"privacy"}).AddRow("approval"))
	mock.ExpectExec(`INSERT INTO group_join_requests`).
		WithArgs("user-1", "group-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock)
	out, err := svc.JoinGroup(context.Background(), "user-1", "group-1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if out.Status != "requested" {
		t.Fatalf("expected requested, got %q", out.Status)
	}
}

func TestJoinPrivateGroupRejected(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT privacy FROM groups`).
		WithArgs("group-1").
		WillReturnRows(pgxmock.NewRows([]string{"privacy"}).AddRow("private"))

	svc := NewService(mock)
	if _, err := svc.JoinGroup(context.Background(), "user-1", "group-1"); !errors.Is(err, ErrPrivateGroup) {
		t.Fatalf("expected ErrPrivateGroup, got %v", err)
	}
}

func TestJoinMissingGroup(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT privacy FROM groups`).
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{"privacy"}))

	svc := NewService(mock)
	if _, err := svc.JoinGroup(context.Background(), "user-1", "nope"); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestJoinGroupQueryErrorIsNotNotFound(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT privacy FROM groups`).
		WithArgs("group-1").
		WillReturnError(errSocial)

	svc := NewService(mock)
	_, err := svc.JoinGroup(context.Background(), "user-1", "group-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("a failing query must not masquerade as a missing group")
	}
}

func TestApproveRequest(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT created_by FROM groups`).
		WithArgs("group-1").
		WillReturnRows(pgxmock.NewRows([]string{"created_by"}).AddRow("owner"))
	mock.ExpectExec(`UPDATE group_join_requests`).
		WithArgs("user-2", "group-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO group_members`).
		WithArgs("user-2", "group-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock)
	if err := svc.ApproveRequest(context.Background(), "owner", "group-1", "user-2"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApproveRequestNotOwner(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT created_by FROM groups`).
		WithArgs("group-1").
		WillReturnRows(pgxmock.NewRows([]string{"created_by"}).AddRow("owner"))

	svc := NewService(mock)
	if err := svc.ApproveRequest(context.Background(), "impostor", "group-1", "user-2"); !errors.Is(err, ErrNotGroupOwner) {
		t.Fatalf("expected ErrNotGroupOwner, got %v", err)
	}
}

func TestApproveRequestQueryErrorIsNotNotFound(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT created_by FROM groups`).
		WithArgs("group-1").
		WillReturnError(errSocial)

	svc := NewService(mock)
	err := svc.ApproveRequest(context.Background(), "owner", "group-1", "user-2")
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("a failing query must not masquerade as a missing group")
	}
}

func TestListGroupsHidesPrivate(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`WHERE g.privacy IN \('public','approval'\)`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "privacy", "created_by", "created_at", "members_count"}).
			AddRow("group-1", "Park Pack", "", "public", "owner", time.Now(), 3))

	svc := NewService(mock)
	groups, err := svc.ListGroups(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(groups) != 1 || groups[0].MembersCount != 3 {
		t.Fatalf("unexpected groups %+v", groups)
	}
}

func TestGroupsOf(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT group_id FROM group_members`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"group_id"}).AddRow("group-1").AddRow("group-2"))

	svc := NewService(mock)
	groups, err := svc.GroupsOf(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("groups of: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
}

func TestSearchUsersExcludesCaller(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT id, display_name, email`).
		WithArgs("rex", "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "display_name", "email", "photo_url"}).
			AddRow("user-2", "Rex Owner", "rex@example.com", ""))

	svc := NewService(mock)
	users, err := svc.SearchUsers(context.Background(), "user-1", "rex")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(users) != 1 || users[0].ID != "user-2" {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestFollowQueryError(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec(`INSERT INTO user_follows`).
		WithArgs("user-1", "user-2").
		WillReturnError(errSocial)

	svc := NewService(mock)
	if err := svc.Follow(context.Background(), "user-1", "user-2"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMyJoinRequests(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`FROM group_join_requests gr`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"group_id", "name", "user_id", "status", "created_at"}).
			AddRow("group-1", "Park Pack", "user-1", "pending", time.Now()))

	svc := NewService(mock)
	reqs, err := svc.MyJoinRequests(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("requests: %v", err)
	}
	if len(reqs) != 1 || reqs[0].Status != "pending" {
		t.Fatalf("unexpected requests %+v", reqs)
	}
}
