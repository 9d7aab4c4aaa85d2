package invoice

import (
	"github.com/smallbiznis/barberdesk/internal/invoice/receipt"
	"github.com/smallbiznis/barberdesk/internal/invoice/render"
	"github.com/smallbiznis/barberdesk/internal/invoice/repository"
	"github.com/smallbiznis/barberdesk/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(render.NewRenderer),
	fx.Provide(service.NewService),
	fx.Provide(receipt.NewSender),
)
