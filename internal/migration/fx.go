package migration

import (
	"context"

	"github.com/smallbiznis/internlink/internal/config"
	"github.com/smallbiznis/internlink/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if err := EnsureSchema(conn); err != nil {
			return err
		}

		if cfg.BootstrapAdminEmail != "" {
			created, err := seed.EnsureAdministrator(context.Background(), conn, cfg.BootstrapAdminEmail)
			if err != nil {
				return err
			}
			if created {
				log.Info("bootstrap administrator created", zap.String("email", cfg.BootstrapAdminEmail))
			}
		}
		return nil
	}),
)
