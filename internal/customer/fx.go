package customer

import (
	"github.com/smallbiznis/barberdesk/internal/customer/repository"
	"github.com/smallbiznis/barberdesk/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
