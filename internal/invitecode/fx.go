package invitecode

import "go.uber.org/fx"

var Module = fx.Module("invitecode",
	fx.Provide(NewGenerator),
)
