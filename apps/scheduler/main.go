package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/account"
	"github.com/smallbiznis/internlink/internal/blacklist"
	"github.com/smallbiznis/internlink/internal/cache"
	"github.com/smallbiznis/internlink/internal/clock"
	"github.com/smallbiznis/internlink/internal/config"
	"github.com/smallbiznis/internlink/internal/events"
	"github.com/smallbiznis/internlink/internal/invitation"
	"github.com/smallbiznis/internlink/internal/observability"
	"github.com/smallbiznis/internlink/internal/ratelimit"
	"github.com/smallbiznis/internlink/internal/registration"
	"github.com/smallbiznis/internlink/internal/scheduler"
	"github.com/smallbiznis/internlink/internal/vacancy"
	"github.com/smallbiznis/internlink/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,
		events.Module,

		// Domain services required by the sweeper
		registration.Module,
		account.Module,
		vacancy.Module,
		blacklist.Module,
		invitation.Module,
		ratelimit.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(3)
	if err != nil {
		panic(err)
	}
	return node
}
