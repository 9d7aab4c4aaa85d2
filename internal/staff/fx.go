package staff

import (
	"github.com/smallbiznis/barberdesk/internal/staff/service"
	"go.uber.org/fx"
)

var Module = fx.Module("staff",
	fx.Provide(service.New),
)
