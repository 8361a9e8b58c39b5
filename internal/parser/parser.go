package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

// Header names of the statement export.
const (
	ColumnAccountType   = "Тип счёта"
	ColumnAccountNumber = "Номер счета"
	ColumnCurrency      = "Валюта"
	ColumnDate          = "Дата операции"
	ColumnReference     = "Референс проводки"
	ColumnDescription   = "Описание операции"
	ColumnDeposit       = "Приход"
	ColumnWithdraw      = "Расход"
)

var requiredColumns = []string{
	ColumnAccountType,
	ColumnAccountNumber,
	ColumnCurrency,
	ColumnDate,
	ColumnReference,
	ColumnDescription,
	ColumnDeposit,
	ColumnWithdraw,
}

// ParseError describes why a report could not be parsed. It matches
// models.ErrMalformedReport as well as the underlying cause.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line == 0:
		return fmt.Sprintf("malformed report: %v", e.Err)
	case e.Column == "":
		return fmt.Sprintf("malformed report: line %d: %v", e.Line, e.Err)
	default:
		return fmt.Sprintf("malformed report: line %d, column %q: %v", e.Line, e.Column, e.Err)
	}
}

func (e *ParseError) Unwrap() []error {
	return []error{models.ErrMalformedReport, e.Err}
}

// StatementParser turns the raw bytes of one statement export into rows.
//
// Layout: a header row (with a trailing delimiter) followed by one row per
// operation, fields separated by Comma, text in Encoding.
type StatementParser struct {
	Encoding encoding.Encoding // nil means the input is already UTF-8
	Comma    rune
	Locale   NumberLocale
}

// New returns a parser for the bank's export defaults: Windows-1251, ';', ru numbers.
func New() *StatementParser {
	return &StatementParser{
		Encoding: charmap.Windows1251,
		Comma:    ';',
		Locale:   LocaleRU,
	}
}

// ParseBytes parses a whole report held in memory.
func (p *StatementParser) ParseBytes(data []byte) ([]models.ParsedOperation, error) {
	return p.Parse(bytes.NewReader(data))
}

// Parse reads a report and returns its rows in file order. Any malformed row
// fails the whole report.
func (p *StatementParser) Parse(r io.Reader) ([]models.ParsedOperation, error) {
	if p.Encoding != nil {
		r = p.Encoding.NewDecoder().Reader(r)
	}

	reader := csv.NewReader(r)
	reader.Comma = p.Comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}

	columns, err := mapHeader(header)
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}

	var operations []models.ParsedOperation
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		line, _ := reader.FieldPos(0)

		op, err := p.parseRow(columns, record)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = line
				return nil, pe
			}
			return nil, &ParseError{Line: line, Err: err}
		}
		operations = append(operations, op)
	}

	return operations, nil
}

func (p *StatementParser) parseRow(columns map[string]int, record []string) (models.ParsedOperation, error) {
	get := func(column string) (string, error) {
		idx := columns[column]
		if idx >= len(record) {
			return "", &ParseError{Column: column, Err: fmt.Errorf("row has %d fields", len(record))}
		}
		return record[idx], nil
	}

	values := make(map[string]string, len(requiredColumns))
	for _, column := range requiredColumns {
		v, err := get(column)
		if err != nil {
			return models.ParsedOperation{}, err
		}
		values[column] = v
	}

	date, err := parseShortDate(values[ColumnDate])
	if err != nil {
		return models.ParsedOperation{}, &ParseError{Column: ColumnDate, Err: err}
	}
	deposit, err := p.Locale.ParseAmount(values[ColumnDeposit])
	if err != nil {
		return models.ParsedOperation{}, &ParseError{Column: ColumnDeposit, Err: err}
	}
	withdraw, err := p.Locale.ParseAmount(values[ColumnWithdraw])
	if err != nil {
		return models.ParsedOperation{}, &ParseError{Column: ColumnWithdraw, Err: err}
	}

	description := values[ColumnDescription]
	card, _ := DecodeCardOperation(description)

	return models.ParsedOperation{
		AccountType:   values[ColumnAccountType],
		AccountNumber: values[ColumnAccountNumber],
		CurrencyCode:  values[ColumnCurrency],
		Date:          date,
		TransactionID: models.TransactionID{Reference: values[ColumnReference]},
		Description:   description,
		Deposit:       deposit,
		Withdraw:      withdraw,
		Card:          card,
	}, nil
}

// mapHeader returns the field index of every required column. Empty header
// cells (the trailing delimiter) are ignored.
func mapHeader(header []string) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, name := range header {
		key := normalizeHeader(name)
		if key == "" {
			continue
		}
		if _, dup := byName[key]; !dup {
			byName[key] = i
		}
	}

	columns := make(map[string]int, len(requiredColumns))
	var missing []string
	for _, column := range requiredColumns {
		idx, ok := byName[normalizeHeader(column)]
		if !ok {
			missing = append(missing, column)
			continue
		}
		columns[column] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

// normalizeHeader folds case, strips a BOM and treats "ё" as "е", which the
// bank spells inconsistently between export versions.
func normalizeHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, "ё", "е")
}
