package audit

import (
	"github.com/smallbiznis/barberdesk/internal/audit/repository"
	"github.com/smallbiznis/barberdesk/internal/audit/service"
	"go.uber.org/fx"
)

// Module provides the append-only audit trail used by invoices, receipts,
// logins and authorization denials.
var Module = fx.Module("audit",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
