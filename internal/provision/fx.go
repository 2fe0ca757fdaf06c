package provision

import "go.uber.org/fx"

var Module = fx.Module("provision.service",
	fx.Provide(NewService),
)
