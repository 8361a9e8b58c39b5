package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

const dateLayout = "2006-01-02"

// Columns of the canonical export.
var Columns = []string{
	"Date", "Account", "Currency", "Reference", "Kind", "Amount", "Hold",
	"Card", "MCC", "Merchant", "City", "Country", "Description",
}

// CSVWriter writes parsed statement rows as UTF-8, comma-separated CSV.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes a report to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, report *models.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}

	if err := w.Write(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write writes a report in canonical CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, report *models.Report) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		for _, meta := range metadata(report) {
			if err := writer.Write(meta); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, op := range report.Operations {
		if err := writer.Write(row(op)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func metadata(report *models.Report) [][]string {
	var rows [][]string
	if report.ID.Name != "" {
		rows = append(rows, []string{"# Report", report.ID.Name})
	}

	var accounts []string
	seen := make(map[string]bool)
	for _, op := range report.Operations {
		if !seen[op.AccountNumber] {
			seen[op.AccountNumber] = true
			accounts = append(accounts, op.AccountNumber)
		}
	}
	if len(accounts) > 0 {
		rows = append(rows, []string{"# Accounts", strings.Join(accounts, " ")})
	}

	if len(report.Operations) > 0 {
		first, last := report.Operations[0].Date, report.Operations[0].Date
		for _, op := range report.Operations[1:] {
			if op.Date.Before(first) {
				first = op.Date
			}
			if op.Date.After(last) {
				last = op.Date
			}
		}
		rows = append(rows, []string{"# Period", first.Format(dateLayout) + " to " + last.Format(dateLayout)})
	}

	rows = append(rows, []string{"# Operations", strconv.Itoa(len(report.Operations))})
	return rows
}

func row(op models.ParsedOperation) []string {
	hold := ""
	if op.TransactionID.IsHold() {
		hold = "yes"
	}

	var card, mcc, merchant, city, country string
	if op.Card != nil {
		card = op.Card.CardNumber
		mcc = op.Card.MCC
		merchant = op.Card.Pos.Merchant
		city = op.Card.Pos.City
		country = op.Card.Pos.CountryCode
	}

	return []string{
		op.Date.Format(dateLayout),
		op.AccountNumber,
		op.CurrencyCode,
		op.TransactionID.Reference,
		string(op.Kind()),
		formatAmount(op.Amount()),
		hold,
		card,
		mcc,
		merchant,
		city,
		country,
		op.Description,
	}
}

func formatAmount(amount decimal.Decimal) string {
	if amount.IsZero() {
		return ""
	}
	return amount.StringFixed(2)
}
