package biz

import (
	"go.uber.org/fx"
)

var Module = fx.Module("biz",
	fx.Provide(NewUserService),
	fx.Provide(NewCityService),
	fx.Provide(NewAddressService),
)
