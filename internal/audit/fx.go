package audit

import (
	"github.com/syncspace/syncspace/internal/audit/repository"
	"github.com/syncspace/syncspace/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
