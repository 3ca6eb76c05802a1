package daemon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/config"
	"github.com/panelkit/panelkit/internal/db/models"
)

const (
	seedAdminName     = "Admin User"
	seedAdminEmail    = "test@example.com"
	seedPassword      = "password"
	seedDemoUserCount = 30
)

// seed creates the system roles and, on an empty user table, a default admin.
// Dev mode also adds demo users.
func seed(ctx context.Context, cfg *config.Config, authService *auth.Service, users *auth.LocalProvider) error {
	if err := authService.SeedRoles(); err != nil {
		return err
	}

	total, err := users.Count(ctx)
	if err != nil {
		return err
	}

	if total > 0 {
		return nil
	}

	if _, err = users.CreateUser(ctx, auth.NewUser{
		Name:     seedAdminName,
		Email:    seedAdminEmail,
		Password: seedPassword,
		Roles:    []string{models.RoleAdmin},
	}); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Warn().Str("email", seedAdminEmail).Msg("default admin user created, change its password")

	if !cfg.DevMode {
		return nil
	}

	for i := 1; i <= seedDemoUserCount; i++ {
		if _, err = users.CreateUser(ctx, auth.NewUser{
			Name:     fmt.Sprintf("Regular User%d", i),
			Email:    fmt.Sprintf("user%d@example.com", i),
			Password: seedPassword,
			Roles:    []string{models.RoleUser},
		}); err != nil {
			return fmt.Errorf("failed to seed demo user: %w", err)
		}
	}

	return nil
}
