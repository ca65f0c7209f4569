package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"clientregistry/internal/auth"
	"clientregistry/internal/shared/database"
)

// credentialStore exposes client records to the auth core.
type credentialStore struct {
	repo Repository
}

func NewCredentialStore(repo Repository) auth.CredentialStore {
	return &credentialStore{repo: repo}
}

func (s *credentialStore) FindByEmail(ctx context.Context, email string) (*auth.Principal, error) {
	client, err := s.repo.FindByEmail(ctx, auth.NormalizeEmail(email))
	if err != nil {
		return nil, principalError(err)
	}
	return client.Principal(), nil
}

// FindByID treats an id that is not a UUID as absent.
func (s *credentialStore) FindByID(ctx context.Context, id string) (*auth.Principal, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, auth.ErrPrincipalNotFound
	}
	client, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, principalError(err)
	}
	return client.Principal(), nil
}

func principalError(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return auth.ErrPrincipalNotFound
	}
	return fmt.Errorf("client lookup: %w", err)
}
