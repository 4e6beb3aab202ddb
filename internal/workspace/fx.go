package workspace

import (
	"github.com/syncspace/syncspace/internal/workspace/repository"
	"github.com/syncspace/syncspace/internal/workspace/service"
	"go.uber.org/fx"
)

var Module = fx.Module("workspace.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
