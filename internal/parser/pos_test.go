package parser

import (
	"testing"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

func TestParsePosInfo(t *testing.T) {
	tests := []struct {
		name     string
		block    string
		expected models.PosInfo
		wantOK   bool
	}{
		{
			name:     "terminal country city merchant",
			block:    `502546\643\SARATOV\Alfa Iss`,
			expected: models.PosInfo{TerminalID: "502546", CountryCode: "643", City: "SARATOV", Merchant: "Alfa Iss"},
			wantOK:   true,
		},
		{
			name:     "four segments alpha country",
			block:    `33331083\RUS\MOSCOW\WWW PAY MTS R`,
			expected: models.PosInfo{TerminalID: "33331083", CountryCode: "RUS", City: "MOSCOW", Merchant: "WWW PAY MTS R"},
			wantOK:   true,
		},
		{
			name:     "three segments",
			block:    `5101831 /RU/UBRR>Visa Direct`,
			expected: models.PosInfo{TerminalID: "5101831", CountryCode: "RU", Merchant: "UBRR>Visa Direct"},
			wantOK:   true,
		},
		{
			name:     "five segments",
			block:    `10705017\RUS\MOSCOW\1 YA T\ROSTELECOM`,
			expected: models.PosInfo{TerminalID: "10705017", CountryCode: "RUS", City: "MOSCOW", Street: "1 YA T", Merchant: "ROSTELECOM"},
			wantOK:   true,
		},
		{
			name:     "five segments empty street",
			block:    `RU200213\RUS\BORISOGLEBSK\\LUKOIL AZS 36`,
			expected: models.PosInfo{TerminalID: "RU200213", CountryCode: "RUS", City: "BORISOGLEBSK", Merchant: "LUKOIL AZS 36"},
			wantOK:   true,
		},
		{
			name:     "mixed delimiters",
			block:    `10018899/US\SAN FRANCISCO/STEAMGAMES.COM`,
			expected: models.PosInfo{TerminalID: "10018899", CountryCode: "US", City: "SAN FRANCISCO", Merchant: "STEAMGAMES.COM"},
			wantOK:   true,
		},
		{
			name:     "trailing delimiter dropped",
			block:    `502546\643\SARATOV\Alfa Iss\`,
			expected: models.PosInfo{TerminalID: "502546", CountryCode: "643", City: "SARATOV", Merchant: "Alfa Iss"},
			wantOK:   true,
		},
		{
			name:     "two segments",
			block:    `502546\643`,
			expected: models.PosInfo{TerminalID: "502546", CountryCode: "643", Merchant: "643"},
			wantOK:   true,
		},
		{
			name:   "single segment",
			block:  `ROSTELECOM`,
			wantOK: false,
		},
		{
			name:   "only delimiters",
			block:  `\\\`,
			wantOK: false,
		},
		{
			name:   "empty",
			block:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parsePosInfo(tt.block)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if got != tt.expected {
				t.Errorf("got %+v, want %+v", got, tt.expected)
			}
		})
	}
}
