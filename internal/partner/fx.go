package partner

import (
	"github.com/northlink/partnerhub/internal/partner/repository"
	"github.com/northlink/partnerhub/internal/partner/service"
	"go.uber.org/fx"
)

var Module = fx.Module("partner.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
