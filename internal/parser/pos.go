package parser

import (
	"strings"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

// parsePosInfo splits a POS block on '\' or '/'.
//
// Observed layouts:
//
//	terminal\country\merchant
//	terminal\country\city\merchant
//	terminal\country\city\street\merchant
//
// The merchant is always the last segment; trailing empty segments are
// dropped first. Blocks with fewer than two segments are rejected.
func parsePosInfo(block string) (models.PosInfo, bool) {
	parts := splitPos(block)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 2 {
		return models.PosInfo{}, false
	}

	info := models.PosInfo{
		TerminalID:  strings.TrimSpace(parts[0]),
		CountryCode: strings.TrimSpace(parts[1]),
		Merchant:    strings.TrimSpace(parts[len(parts)-1]),
	}
	if len(parts) >= 4 {
		info.City = strings.TrimSpace(parts[2])
	}
	if len(parts) >= 5 {
		info.Street = strings.TrimSpace(parts[3])
	}
	return info, true
}

func splitPos(block string) []string {
	return strings.Split(strings.ReplaceAll(block, "/", `\`), `\`)
}
