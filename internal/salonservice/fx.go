package salonservice

import (
	"github.com/smallbiznis/barberdesk/internal/salonservice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("salonservice",
	fx.Provide(service.New),
)
