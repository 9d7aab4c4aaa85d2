package providers

import (
	"github.com/smallbiznis/barberdesk/internal/providers/email"
	"github.com/smallbiznis/barberdesk/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
