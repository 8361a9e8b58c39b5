package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Money is an amount in a named currency.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}

// Equal compares amount and currency.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// OperationID is the ledger-assigned identifier of a settled operation.
type OperationID string

// TransactionReference is the bank reference stored with a settled operation.
type TransactionReference string

// PosTerminal is the ledger view of a point of sale. Country holds the ISO
// 3166-1 alpha-3 code; City and Street are empty when unknown.
type PosTerminal struct {
	TerminalID string
	Country    string
	City       string
	Street     string
	Merchant   string
}

// CardEnrichment carries the card purchase detail attached to a settled operation.
type CardEnrichment struct {
	CardNumber   string
	Terminal     *PosTerminal // nil when the POS country could not be recognised
	AuthDate     time.Time
	PurchaseDate time.Time
	Amount       Money
	ExtraInfo    string
	MCC          string
}
