package notification

import (
	"github.com/syncspace/syncspace/internal/notification/domain"
	"github.com/syncspace/syncspace/internal/notification/repository"
	"github.com/syncspace/syncspace/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(func(s domain.Service) domain.Emitter { return s }),
)
