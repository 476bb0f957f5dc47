package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/account"
	"github.com/smallbiznis/internlink/internal/blacklist"
	"github.com/smallbiznis/internlink/internal/cache"
	"github.com/smallbiznis/internlink/internal/chat"
	"github.com/smallbiznis/internlink/internal/clock"
	"github.com/smallbiznis/internlink/internal/config"
	"github.com/smallbiznis/internlink/internal/events"
	"github.com/smallbiznis/internlink/internal/favorite"
	"github.com/smallbiznis/internlink/internal/invitation"
	"github.com/smallbiznis/internlink/internal/migration"
	"github.com/smallbiznis/internlink/internal/observability"
	"github.com/smallbiznis/internlink/internal/ratelimit"
	"github.com/smallbiznis/internlink/internal/registration"
	"github.com/smallbiznis/internlink/internal/scheduler"
	"github.com/smallbiznis/internlink/internal/server"
	"github.com/smallbiznis/internlink/internal/vacancy"
	"github.com/smallbiznis/internlink/pkg/db"
	"go.uber.org/fx"
)

// internlink runs the HTTP API and the expiry sweeper in one process.
func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,
		events.Module,
		migration.Module,

		// Functional Domains
		registration.Module,
		account.Module,
		vacancy.Module,
		blacklist.Module,
		invitation.Module,
		ratelimit.Module,
		chat.Module,
		favorite.Module,

		scheduler.Module,
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
