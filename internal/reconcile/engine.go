package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

// ErrNoContent is returned when Save is called without a content reader.
var ErrNoContent = errors.New("report content is required")

// Engine applies statement reports to the ledger.
//
// Rows are applied in file order. A hold row is registered as provisional
// only. Any other row is registered as settled, enriched with its card
// detail when present, and then clears the matching holds. The report is
// marked processed only after every row succeeded; rows applied before a
// failure stay applied.
type Engine struct {
	store  ReportStore
	ledger Ledger
	logger *slog.Logger
}

// SweepResult summarises one ProcessNewReports run.
type SweepResult struct {
	Found     int
	Processed int
	Failed    int
}

// NewEngine wires an engine. A nil logger discards output.
func NewEngine(store ReportStore, ledger Ledger, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		store:  store,
		ledger: ledger,
		logger: logger.With("component", "reconcile"),
	}
}

// Save stores a new unprocessed report.
func (e *Engine) Save(name string, content io.Reader) (models.ReportID, error) {
	if content == nil {
		return models.ReportID{}, fmt.Errorf("save %q: %w", name, ErrNoContent)
	}
	id, err := e.store.Save(name, content)
	if err != nil {
		return models.ReportID{}, err
	}
	e.logger.Info("report saved", "report", id.Name, "created_at", id.CreatedAt)
	return id, nil
}

// ProcessReport applies one report and marks it processed.
func (e *Engine) ProcessReport(ctx context.Context, id models.ReportID) error {
	report, err := e.store.Find(id)
	if err != nil {
		return fmt.Errorf("process %s: %w", id.Name, err)
	}

	for i, row := range report.Operations {
		if err := e.applyRow(ctx, row); err != nil {
			return fmt.Errorf("process %s: row %d: %w", id.Name, i+1, err)
		}
	}

	if err := e.store.MarkProcessed(id); err != nil {
		return fmt.Errorf("process %s: %w", id.Name, err)
	}
	return nil
}

// ProcessNewReports processes every unprocessed report in turn. A failing
// report is logged and left unprocessed; the sweep moves on. Cancellation is
// honoured between reports only.
func (e *Engine) ProcessNewReports(ctx context.Context) (SweepResult, error) {
	ids, err := e.store.FindUnprocessed()
	if err != nil {
		return SweepResult{}, fmt.Errorf("listing unprocessed reports: %w", err)
	}

	result := SweepResult{Found: len(ids)}
	e.logger.Info("found unprocessed reports", "count", len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		e.logger.Info("processing report", "report", id.Name, "created_at", id.CreatedAt)
		if err := e.ProcessReport(ctx, id); err != nil {
			result.Failed++
			if errors.Is(err, models.ErrNotFound) {
				e.logger.Warn("processing failed", "report", id.Name, "error", err)
			} else {
				e.logger.Error("processing failed", "report", id.Name, "error", err)
			}
			continue
		}
		result.Processed++
		e.logger.Info("report processed", "report", id.Name)
	}

	return result, nil
}

func (e *Engine) applyRow(ctx context.Context, row models.ParsedOperation) error {
	kind := row.Kind()
	if !row.Exclusive() {
		return fmt.Errorf("%w: both deposit %s and withdraw %s are set", models.ErrIntegrity, row.Deposit, row.Withdraw)
	}
	if err := validateCurrencyCode(row.CurrencyCode); err != nil {
		return err
	}
	amount := models.Money{Amount: row.Amount(), Currency: row.CurrencyCode}

	if row.TransactionID.IsHold() {
		return e.ledger.RegisterHoldOperation(ctx, row.AccountNumber, row.Date, kind, amount, row.Description)
	}

	id, err := e.ledger.RegisterOperation(ctx, row.AccountNumber, row.Date,
		models.TransactionReference(row.TransactionID.Reference), kind, amount, row.Description)
	if err != nil {
		return err
	}

	if row.Card != nil {
		card, err := cardEnrichment(*row.Card)
		if err != nil {
			return err
		}
		if err := e.ledger.RegisterCardOperation(ctx, id, card); err != nil {
			return err
		}
	}

	return e.ledger.RemoveMatchingHoldOperations(ctx, id)
}

func cardEnrichment(card models.CardOperation) (models.CardEnrichment, error) {
	if err := validateCurrencyCode(card.CurrencyCode); err != nil {
		return models.CardEnrichment{}, err
	}
	return models.CardEnrichment{
		CardNumber:   card.CardNumber,
		Terminal:     PosTerminal(card.Pos),
		AuthDate:     card.AuthDate,
		PurchaseDate: card.PurchaseDate,
		Amount:       models.Money{Amount: card.Amount, Currency: card.CurrencyCode},
		ExtraInfo:    card.ExtraInfo,
		MCC:          card.MCC,
	}, nil
}

// validateCurrencyCode checks the ISO 4217 shape: three upper-case letters.
func validateCurrencyCode(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("%w: currency code %q must be 3 characters", models.ErrIntegrity, code)
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return fmt.Errorf("%w: currency code %q must contain only uppercase letters", models.ErrIntegrity, code)
		}
	}
	return nil
}
