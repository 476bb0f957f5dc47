package vacancy

import (
	"github.com/smallbiznis/internlink/internal/vacancy/repository"
	"github.com/smallbiznis/internlink/internal/vacancy/service"
	"go.uber.org/fx"
)

var Module = fx.Module("vacancy.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
