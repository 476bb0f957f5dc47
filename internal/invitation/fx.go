package invitation

import (
	"github.com/smallbiznis/internlink/internal/invitation/repository"
	"github.com/smallbiznis/internlink/internal/invitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
