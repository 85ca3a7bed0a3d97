package commission

import (
	"github.com/northlink/partnerhub/internal/commission/repository"
	"github.com/northlink/partnerhub/internal/commission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commission.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
