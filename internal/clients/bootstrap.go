package clients

import (
	"context"
	"errors"
	"fmt"

	"clientregistry/internal/auth"
	"clientregistry/pkg/logger"
)

// AdminSeed describes the administrator account created on first start.
type AdminSeed struct {
	Name     string
	Email    string
	Password string
	Birthday string
	Phone    string
	CPF      string
}

// BootstrapAdmin creates the administrator unless an account with the seed
// email already exists. An empty password disables the bootstrap.
func BootstrapAdmin(ctx context.Context, svc Service, repo Repository, seed AdminSeed, log *logger.Logger) error {
	if seed.Password == "" {
		log.Info("admin bootstrap skipped: no password configured")
		return nil
	}

	exists, err := repo.ExistsByEmail(ctx, auth.NormalizeEmail(seed.Email))
	if err != nil {
		return fmt.Errorf("check admin account: %w", err)
	}
	if exists {
		log.Debug("admin account already present", "email", seed.Email)
		return nil
	}

	created, err := svc.CreateClient(ctx, CreateClientRequest{
		Name:     seed.Name,
		Birthday: seed.Birthday,
		Email:    seed.Email,
		Password: seed.Password,
		Phone:    seed.Phone,
		CPF:      seed.CPF,
	}, auth.RoleAdmin)
	switch {
	case errors.Is(err, ErrEmailExists):
		// another instance won the race
		return nil
	case err != nil:
		return fmt.Errorf("create admin account: %w", err)
	}

	log.Info("admin account created", "client_id", created.ID, "email", created.Email)
	return nil
}
