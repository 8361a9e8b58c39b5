package reconcile

import (
	"context"
	"io"
	"time"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

// Ledger is the accounting side that receives reconciled statement rows.
// RegisterOperation fails with models.ErrAccountNotFound for unknown accounts.
type Ledger interface {
	RegisterHoldOperation(ctx context.Context, account string, date time.Time, kind models.OperationKind, amount models.Money, description string) error
	RegisterOperation(ctx context.Context, account string, date time.Time, ref models.TransactionReference, kind models.OperationKind, amount models.Money, description string) (models.OperationID, error)
	RegisterCardOperation(ctx context.Context, id models.OperationID, card models.CardEnrichment) error
	RemoveMatchingHoldOperations(ctx context.Context, id models.OperationID) error
}

// ReportStore is the report catalog the engine reads from and marks.
type ReportStore interface {
	Save(name string, content io.Reader) (models.ReportID, error)
	Find(id models.ReportID) (*models.Report, error)
	FindUnprocessed() ([]models.ReportID, error)
	MarkProcessed(id models.ReportID) error
}
