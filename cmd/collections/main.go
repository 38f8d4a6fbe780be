package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collections/internal/account"
	"github.com/smallbiznis/collections/internal/authorization"
	"github.com/smallbiznis/collections/internal/cache"
	"github.com/smallbiznis/collections/internal/changelog"
	"github.com/smallbiznis/collections/internal/clock"
	"github.com/smallbiznis/collections/internal/config"
	"github.com/smallbiznis/collections/internal/errorlog"
	"github.com/smallbiznis/collections/internal/invoice"
	"github.com/smallbiznis/collections/internal/location"
	"github.com/smallbiznis/collections/internal/lock"
	"github.com/smallbiznis/collections/internal/migration"
	"github.com/smallbiznis/collections/internal/nonrentable"
	"github.com/smallbiznis/collections/internal/observability"
	"github.com/smallbiznis/collections/internal/providers"
	"github.com/smallbiznis/collections/internal/reference"
	"github.com/smallbiznis/collections/internal/renter"
	"github.com/smallbiznis/collections/internal/section"
	"github.com/smallbiznis/collections/internal/server"
	"github.com/smallbiznis/collections/internal/stall"
	"github.com/smallbiznis/collections/pkg/async"
	"github.com/smallbiznis/collections/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		async.Module,
		lock.Module,
		migration.Module,

		// Shared sinks and lookups
		errorlog.Module,
		changelog.Module,
		reference.Module,
		cache.Module,

		// Functional Domains
		location.Module,
		section.Module,
		stall.Module,
		nonrentable.Module,
		renter.Module,
		invoice.Module,
		account.Module,
		authorization.Module,
		providers.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
