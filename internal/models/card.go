package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PosInfo is the point-of-sale block of a card purchase description.
// City and Street are empty when the block does not carry them.
type PosInfo struct {
	TerminalID  string
	CountryCode string
	City        string
	Street      string
	Merchant    string
}

// CardOperation is the card purchase detail decoded from a row description.
type CardOperation struct {
	CardNumber   string // may contain '+' mask characters
	Pos          PosInfo
	AuthDate     time.Time
	PurchaseDate time.Time
	Amount       decimal.Decimal
	CurrencyCode string
	ExtraInfo    string // empty when absent
	MCC          string
}

// Equal compares two card operations by value.
func (c CardOperation) Equal(other CardOperation) bool {
	return c.CardNumber == other.CardNumber &&
		c.Pos == other.Pos &&
		c.AuthDate.Equal(other.AuthDate) &&
		c.PurchaseDate.Equal(other.PurchaseDate) &&
		c.Amount.Equal(other.Amount) &&
		c.CurrencyCode == other.CurrencyCode &&
		c.ExtraInfo == other.ExtraInfo &&
		c.MCC == other.MCC
}
