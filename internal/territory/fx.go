package territory

import (
	"github.com/northlink/partnerhub/internal/territory/repository"
	"github.com/northlink/partnerhub/internal/territory/service"
	"go.uber.org/fx"
)

var Module = fx.Module("territory.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
