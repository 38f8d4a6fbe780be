package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collections/internal/config"
	"github.com/smallbiznis/collections/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, log *zap.Logger) error {
		if cfg.AutoMigrate {
			if err := Apply(conn); err != nil {
				return err
			}
			log.Info("schema migrated")
		}
		return seed.EnsureBootstrapAdmin(conn, cfg, node)
	}),
)
