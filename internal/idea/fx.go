package idea

import (
	"github.com/syncspace/syncspace/internal/idea/repository"
	"github.com/syncspace/syncspace/internal/idea/service"
	"go.uber.org/fx"
)

var Module = fx.Module("idea.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
