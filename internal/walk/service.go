package walk

import (
	"context"
	"encoding/json"
	"errors"

	"backend-pawtrail/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrEmptyRoute = errors.New("route required")
var ErrInvalidVisibility = errors.New("invalid visibility")
var ErrWalkNotFound = errors.New("walk not found")

type Service struct {
	db    db.Querier
	graph SocialGraph
}

func NewService(db db.Querier, graph SocialGraph) *Service {
	return &Service{db: db, graph: graph}
}

// CreateWalk stores the walk row together with its pet and group-share
// associations in a single transaction. Pet ids not owned by the walker
// and group ids the walker is not a member of are filtered out silently;
// any insert failure rolls the whole creation back.
func (s *Service) CreateWalk(ctx context.Context, input CreateWalkInput) (Walk, error) {
	if len(input.Route) == 0 {
		return Walk{}, ErrEmptyRoute
	}
	if input.Visibility == "" {
		input.Visibility = VisibilityPrivate
	}
	if !ValidVisibility(input.Visibility) {
		return Walk{}, ErrInvalidVisibility
	}

	routeJSON, err := json.Marshal(input.Route)
	if err != nil {
		return Walk{}, err
	}
	if input.Events == nil {
		input.Events = []Event{}
	}
	eventsJSON, err := json.Marshal(input.Events)
	if err != nil {
		return Walk{}, err
	}

	w := Walk{
		ID:         uuid.NewString(),
		OwnerID:    input.OwnerID,
		Route:      input.Route,
		DistanceM:  input.DistanceM,
		DurationS:  input.DurationS,
		Events:     input.Events,
		Notes:      input.Notes,
		Visibility: input.Visibility,
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Walk{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO walks (id, user_id, route, events, distance_m, duration_s, notes, visibility)
		VALUES ($1,$2,$3::jsonb,$4::jsonb,$5,$6,$7,$8)
		RETURNING created_at
	`, w.ID, w.OwnerID, string(routeJSON), string(eventsJSON), w.DistanceM, w.DurationS, w.Notes, w.Visibility)
	if err := row.Scan(&w.CreatedAt); err != nil {
		return Walk{}, err
	}

	if len(input.PetIDs) > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO walk_pets (walk_id, pet_id)
			SELECT $1, p.id FROM pets p
			WHERE p.id = ANY($2) AND p.owner_id = $3
			ON CONFLICT DO NOTHING
		`, w.ID, input.PetIDs, w.OwnerID)
		if err != nil {
			return Walk{}, err
		}
	}

	if w.Visibility == VisibilityGroups && len(input.GroupIDs) > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO walk_shares (walk_id, group_id)
			SELECT $1, gm.group_id FROM group_members gm
			WHERE gm.user_id = $2 AND gm.group_id = ANY($3)
			ON CONFLICT DO NOTHING
		`, w.ID, w.OwnerID, input.GroupIDs)
		if err != nil {
			return Walk{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Walk{}, err
	}
	return w, nil
}

// Get loads a walk and enforces the visibility rules for the viewer.
func (s *Service) Get(ctx context.Context, id, viewerID string) (Walk, error) {
	row := s.db.QueryRow(ctx, `
		SELECT w.id, w.user_id, w.route, w.events, w.distance_m, w.duration_s,
		       COALESCE(w.notes,''), w.visibility, w.created_at,
		       u.display_name, u.email, COALESCE(u.photo_url,'')
		FROM walks w JOIN users u ON u.id = w.user_id
		WHERE w.id = $1
	`, id)

	var w Walk
	var routeJSON, eventsJSON []byte
	if err := row.Scan(&w.ID, &w.OwnerID, &routeJSON, &eventsJSON, &w.DistanceM, &w.DurationS,
		&w.Notes, &w.Visibility, &w.CreatedAt,
		&w.Owner.DisplayName, &w.Owner.Email, &w.Owner.PhotoURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Walk{}, ErrWalkNotFound
		}
		return Walk{}, err
	}
	w.Owner.ID = w.OwnerID
	if err := json.Unmarshal(routeJSON, &w.Route); err != nil {
		return Walk{}, err
	}
	if err := json.Unmarshal(eventsJSON, &w.Events); err != nil {
		return Walk{}, err
	}

	shares, err := s.loadShares(ctx, []string{w.ID})
	if err != nil {
		return Walk{}, err
	}
	w.GroupShares = shares[w.ID]

	if err := s.CanView(ctx, w, viewerID); err != nil {
		return Walk{}, err
	}

	pets, err := s.loadPets(ctx, []string{w.ID})
	if err != nil {
		return Walk{}, err
	}
	w.Pets = pets[w.ID]
	return w, nil
}

// Feed lists walks visible to the viewer, newest first. With a group
// filter it returns walks shared to that exact group. Without one it is
// the union of the viewer's own walks (private included), friends-only
// walks of mutual follows, and walks shared into any of the viewer's
// groups -- deliberately wider than a per-walk CanView check, which
// would deny a third party the viewer's own private walks.
func (s *Service) Feed(ctx context.Context, viewerID, groupID string, limit int) ([]Walk, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	const base = `
		SELECT w.id, w.user_id, w.route, w.events, w.distance_m, w.duration_s,
		       COALESCE(w.notes,''), w.visibility, w.created_at,
		       u.display_name, u.email, COALESCE(u.photo_url,'')
		FROM walks w JOIN users u ON u.id = w.user_id
	`

	var (
		rowsSQL string
		args    []any
	)
	if groupID != "" {
		rowsSQL = base + `
			JOIN walk_shares sh ON sh.walk_id = w.id
			WHERE sh.group_id = $1
			ORDER BY w.created_at DESC
			LIMIT $2
		`
		args = []any{groupID, limit}
	} else {
		rowsSQL = base + `
			WHERE w.user_id = $1
			   OR (w.visibility = 'friends' AND EXISTS (
			        SELECT 1 FROM user_follows f1
			        JOIN user_follows f2
			          ON f2.follower_id = $1 AND f2.followee_id = f1.follower_id
			        WHERE f1.follower_id = w.user_id AND f1.followee_id = $1
			      ))
			   OR w.id IN (
			        SELECT sh.walk_id FROM walk_shares sh
			        JOIN group_members gm ON gm.group_id = sh.group_id
			        WHERE gm.user_id = $1
			      )
			ORDER BY w.created_at DESC
			LIMIT $2
		`
		args = []any{viewerID, limit}
	}

	rows, err := s.db.Query(ctx, rowsSQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var walks []Walk
	var ids []string
	for rows.Next() {
		var w Walk
		var routeJSON, eventsJSON []byte
		if err := rows.Scan(&w.ID, &w.OwnerID, &routeJSON, &eventsJSON, &w.DistanceM, &w.DurationS,
			&w.Notes, &w.Visibility, &w.CreatedAt,
			&w.Owner.DisplayName, &w.Owner.Email, &w.Owner.PhotoURL); err != nil {
			return nil, err
		}
		w.Owner.ID = w.OwnerID
		if err := json.Unmarshal(routeJSON, &w.Route); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(eventsJSON, &w.Events); err != nil {
			return nil, err
		}
		ids = append(ids, w.ID)
		walks = append(walks, w)
	}

	pets, err := s.loadPets(ctx, ids)
	if err != nil {
		return nil, err
	}
	shares, err := s.loadShares(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range walks {
		walks[i].Pets = pets[walks[i].ID]
		walks[i].GroupShares = shares[walks[i].ID]
	}
	return walks, nil
}

func (s *Service) loadPets(ctx context.Context, walkIDs []string) (map[string][]PetInfo, error) {
	if len(walkIDs) == 0 {
		return map[string][]PetInfo{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT wp.walk_id, p.id, p.name, COALESCE(p.photo_url,'')
		FROM walk_pets wp JOIN pets p ON p.id = wp.pet_id
		WHERE wp.walk_id = ANY($1)
	`, walkIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pets := map[string][]PetInfo{}
	for rows.Next() {
		var walkID string
		var p PetInfo
		if err := rows.Scan(&walkID, &p.ID, &p.Name, &p.PhotoURL); err != nil {
			return nil, err
		}
		pets[walkID] = append(pets[walkID], p)
	}
	return pets, nil
}

func (s *Service) loadShares(ctx context.Context, walkIDs []string) (map[string][]GroupShare, error) {
	if len(walkIDs) == 0 {
		return map[string][]GroupShare{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT ws.walk_id, g.id, g.name
		FROM walk_shares ws JOIN groups g ON g.id = ws.group_id
		WHERE ws.walk_id = ANY($1)
	`, walkIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shares := map[string][]GroupShare{}
	for rows.Next() {
		var walkID string
		var gs GroupShare
		if err := rows.Scan(&walkID, &gs.GroupID, &gs.GroupName); err != nil {
			return nil, err
		}
		shares[walkID] = append(shares[walkID], gs)
	}
	return shares, nil
}
