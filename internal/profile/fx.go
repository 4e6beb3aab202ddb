package profile

import (
	"github.com/syncspace/syncspace/internal/profile/repository"
	"github.com/syncspace/syncspace/internal/profile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("profile.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
