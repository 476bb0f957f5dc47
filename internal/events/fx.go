package events

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/internlink/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	DB        *gorm.DB
	Log       *zap.Logger
	Config    config.Config
	Redis     *redis.Client `optional:"true"`
}

func NewPublisher(p Params) Publisher {
	sinks := []Publisher{NewOutboxPublisher(p.DB)}
	if p.Redis != nil {
		sinks = append(sinks, NewRedisPublisher(p.Redis, p.Config.EventsChannel))
	}

	dispatcher := NewDispatcher(p.Log, defaultQueueSize, sinks...)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			dispatcher.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return dispatcher.Stop(ctx)
		},
	})
	return dispatcher
}

var Module = fx.Module("events",
	fx.Provide(NewPublisher),
)
