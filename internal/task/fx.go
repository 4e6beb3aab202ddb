package task

import (
	"github.com/syncspace/syncspace/internal/task/repository"
	"github.com/syncspace/syncspace/internal/task/service"
	"go.uber.org/fx"
)

var Module = fx.Module("task.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
