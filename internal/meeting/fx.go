package meeting

import (
	"github.com/syncspace/syncspace/internal/meeting/repository"
	"github.com/syncspace/syncspace/internal/meeting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("meeting.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
