package parser

import (
	"strings"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

// Card purchase descriptions are fixed-width up to the currency code:
//
//	555957++++++1234    10705017\RUS\MOSCOW\1 YA T\ROSTELECOM             10.07.18 07.07.18       500.00  RUR MCC4812
//	|card (16-19)      ||POS block (49)                                  ||auth  ||purch ||amount (13) ||cur|extra|MCCdddd
//
// Every field is followed by a single space. The card width is the only
// variable-width field before the currency, so it is tried widest first.
const (
	cardPrefixDigits = 6
	cardMaskMinWidth = 10
	cardMaskMaxWidth = 13
	posBlockWidth    = 49
	shortDateWidth   = 8
	cardAmountWidth  = 13
	currencyWidth    = 3
	mccToken         = "MCC"
	mccDigits        = 4
)

// DecodeCardOperation extracts card purchase detail from a row description.
// It never fails: a description that does not follow the card layout, or
// whose fields do not parse, simply has no card operation.
func DecodeCardOperation(description string) (*models.CardOperation, bool) {
	if len(description) < cardPrefixDigits || !allBytes(description[:cardPrefixDigits], isDigit) {
		return nil, false
	}

	for width := cardMaskMaxWidth; width >= cardMaskMinWidth; width-- {
		end := cardPrefixDigits + width
		if end >= len(description) || description[end] != ' ' {
			continue
		}
		if !allBytes(description[cardPrefixDigits:end], isCardMaskByte) {
			continue
		}
		card, ok := decodeAfterCard(description[end+1:])
		if !ok {
			continue
		}
		card.CardNumber = strings.TrimSpace(description[:end])
		return card, true
	}
	return nil, false
}

func decodeAfterCard(s string) (*models.CardOperation, bool) {
	c := &cursor{s: s}

	pos, ok := c.field(posBlockWidth, isASCII)
	if !ok {
		return nil, false
	}
	auth, ok := c.field(shortDateWidth, isDateByte)
	if !ok {
		return nil, false
	}
	purchase, ok := c.field(shortDateWidth, isDateByte)
	if !ok {
		return nil, false
	}
	amount, ok := c.field(cardAmountWidth, isCardAmountByte)
	if !ok {
		return nil, false
	}
	currency, ok := c.field(currencyWidth, isUpper)
	if !ok {
		return nil, false
	}

	extra, mcc, ok := splitMCC(c.rest())
	if !ok {
		return nil, false
	}

	posInfo, ok := parsePosInfo(strings.TrimSpace(pos))
	if !ok {
		return nil, false
	}
	authDate, err := parseShortDate(auth)
	if err != nil {
		return nil, false
	}
	purchaseDate, err := parseShortDate(purchase)
	if err != nil {
		return nil, false
	}
	value, err := LocaleUS.ParseAmount(amount)
	if err != nil {
		return nil, false
	}

	return &models.CardOperation{
		Pos:          posInfo,
		AuthDate:     authDate,
		PurchaseDate: purchaseDate,
		Amount:       value,
		CurrencyCode: currency,
		ExtraInfo:    strings.TrimSpace(extra),
		MCC:          mcc,
	}, true
}

// splitMCC splits "<free text>MCCdddd" at the trailing merchant category token.
func splitMCC(tail string) (extra, mcc string, ok bool) {
	tokenWidth := len(mccToken) + mccDigits
	if len(tail) < tokenWidth {
		return "", "", false
	}
	token := tail[len(tail)-tokenWidth:]
	if !strings.HasPrefix(token, mccToken) || !allBytes(token[len(mccToken):], isDigit) {
		return "", "", false
	}
	extra = tail[:len(tail)-tokenWidth]
	if strings.ContainsAny(extra, "\r\n\u0085\u2028\u2029") {
		return "", "", false
	}
	return extra, token[len(mccToken):], true
}

// cursor walks the fixed-width part of a description.
type cursor struct {
	s   string
	pos int
}

// field takes n bytes accepted by valid plus the single separating space.
func (c *cursor) field(n int, valid func(byte) bool) (string, bool) {
	end := c.pos + n
	if end >= len(c.s) || c.s[end] != ' ' {
		return "", false
	}
	v := c.s[c.pos:end]
	if !allBytes(v, valid) {
		return "", false
	}
	c.pos = end + 1
	return v, true
}

func (c *cursor) rest() string {
	return c.s[c.pos:]
}

func isCardMaskByte(c byte) bool {
	return isDigit(c) || c == '+' || c == ' '
}

func isASCII(c byte) bool {
	return c < 0x80
}

func isDateByte(c byte) bool {
	return isDigit(c) || c == '.'
}

func isCardAmountByte(c byte) bool {
	return isDigit(c) || c == '.' || c == ' '
}
