package reconcile

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

// PosTerminal converts the decoded POS block into the ledger's terminal.
// The country segment may be alpha-2, alpha-3 or a UN M.49 number (643 is
// Russia); anything that is not a real country yields nil.
func PosTerminal(pos models.PosInfo) *models.PosTerminal {
	country, ok := countryISO3(pos.CountryCode)
	if !ok {
		return nil
	}
	return &models.PosTerminal{
		TerminalID: pos.TerminalID,
		Country:    country,
		City:       pos.City,
		Street:     pos.Street,
		Merchant:   pos.Merchant,
	}
}

func countryISO3(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}
	region, err := language.ParseRegion(code)
	if err != nil || !region.IsCountry() {
		return "", false
	}
	iso3 := region.ISO3()
	if len(iso3) != 3 {
		return "", false
	}
	return iso3, true
}
