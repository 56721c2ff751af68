package sheets

import (
	"context"

	"chitfund/internal/storage"
)

// Ports for outbound adapters.
type (
	// StatementWriter appends a settled payment row to an external ledger.
	StatementWriter interface {
		Append(ctx context.Context, st storage.PaymentStatement) (rowRef string, err error)
	}
)
