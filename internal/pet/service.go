package pet

import (
	"context"

	"backend-pawtrail/internal/db"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) CreatePet(ctx context.Context, input Pet) (Pet, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO pets (id, owner_id, name, breed, photo_url)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, input.ID, input.OwnerID, input.Name, input.Breed, input.PhotoURL)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Pet{}, err
	}
	return input, nil
}

func (s *Service) ListPets(ctx context.Context, ownerID string) ([]Pet, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, name, COALESCE(breed,''), COALESCE(photo_url,''), created_at
		FROM pets WHERE owner_id=$1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pets []Pet
	for rows.Next() {
		var p Pet
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Breed, &p.PhotoURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		pets = append(pets, p)
	}
	return pets, nil
}

func (s *Service) GetPet(ctx context.Context, id string) (Pet, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, owner_id, name, COALESCE(breed,''), COALESCE(photo_url,''), created_at
		FROM pets WHERE id=$1
	`, id)
	var p Pet
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Breed, &p.PhotoURL, &p.CreatedAt); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) UpdatePet(ctx context.Context, id, ownerID string, patch Pet) (Pet, error) {
	current, err := s.GetPet(ctx, id)
	if err != nil {
		return Pet{}, err
	}
	if patch.Name != "" {
		current.Name = patch.Name
	}
	if patch.Breed != "" {
		current.Breed = patch.Breed
	}
	if patch.PhotoURL != "" {
		current.PhotoURL = patch.PhotoURL
	}

	_, err = s.db.Exec(ctx, `
		UPDATE pets SET name=$3, breed=$4, photo_url=$5
		WHERE id=$1 AND owner_id=$2
	`, current.ID, ownerID, current.Name, current.Breed, current.PhotoURL)
	if err != nil {
		return Pet{}, err
	}
	return current, nil
}

func (s *Service) DeletePet(ctx context.Context, id, ownerID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM pets WHERE id=$1 AND owner_id=$2`, id, ownerID)
	return err
}
