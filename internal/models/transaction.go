package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// holdReference marks a statement row that the bank has authorised but not settled yet.
const holdReference = "HOLD"

// AmountTolerance is the largest magnitude still treated as a zero amount.
var AmountTolerance = decimal.RequireFromString("0.001")

// TransactionID is the bank's posting reference of a statement row.
type TransactionID struct {
	Reference string
}

// IsHold reports whether the row is a provisional (not yet settled) entry.
func (id TransactionID) IsHold() bool {
	return strings.EqualFold(strings.TrimSpace(id.Reference), holdReference)
}

func (id TransactionID) String() string {
	return id.Reference
}

// OperationKind is the direction of money movement on the account.
type OperationKind string

const (
	KindDeposit  OperationKind = "DEPOSIT"
	KindWithdraw OperationKind = "WITHDRAW"
)

// ParsedOperation is one row of a statement export.
type ParsedOperation struct {
	AccountType   string
	AccountNumber string
	CurrencyCode  string
	Date          time.Time
	TransactionID TransactionID
	Description   string
	Deposit       decimal.Decimal
	Withdraw      decimal.Decimal
	Card          *CardOperation // nil when the description carries no card detail
}

// Kind selects the operation direction: withdraw only when it strictly exceeds
// the deposit.
func (op ParsedOperation) Kind() OperationKind {
	if op.Withdraw.GreaterThan(op.Deposit) {
		return KindWithdraw
	}
	return KindDeposit
}

// Amount returns the magnitude of the selected side.
func (op ParsedOperation) Amount() decimal.Decimal {
	if op.Kind() == KindWithdraw {
		return op.Withdraw
	}
	return op.Deposit
}

// Exclusive reports whether the non-selected side is zero within AmountTolerance.
func (op ParsedOperation) Exclusive() bool {
	other := op.Withdraw
	if op.Kind() == KindWithdraw {
		other = op.Deposit
	}
	return IsZeroAmount(other)
}

// Equal compares two rows by value.
func (op ParsedOperation) Equal(other ParsedOperation) bool {
	if op.AccountType != other.AccountType ||
		op.AccountNumber != other.AccountNumber ||
		op.CurrencyCode != other.CurrencyCode ||
		!op.Date.Equal(other.Date) ||
		op.TransactionID != other.TransactionID ||
		op.Description != other.Description ||
		!op.Deposit.Equal(other.Deposit) ||
		!op.Withdraw.Equal(other.Withdraw) {
		return false
	}
	if op.Card == nil || other.Card == nil {
		return op.Card == nil && other.Card == nil
	}
	return op.Card.Equal(*other.Card)
}

// IsZeroAmount reports whether |v| <= AmountTolerance.
func IsZeroAmount(v decimal.Decimal) bool {
	return v.Abs().LessThanOrEqual(AmountTolerance)
}
