package blacklist

import (
	"github.com/smallbiznis/internlink/internal/blacklist/repository"
	"github.com/smallbiznis/internlink/internal/blacklist/service"
	"go.uber.org/fx"
)

var Module = fx.Module("blacklist.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
