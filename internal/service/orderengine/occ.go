package orderengine

import (
	"strings"
)

// occSuffixLen is YYMMDD + C|P + an 8 digit strike in thousandths.
const occSuffixLen = 15

type occSymbol struct {
	Root   string
	Expiry string
	Right  byte
	Strike string
}

// parseOCCSymbol splits an OCC option symbol such as SPY260117C00500000.
// Roots may be padded with spaces, so the fixed-width suffix is read from the end.
func parseOCCSymbol(raw string) (occSymbol, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if len(symbol) <= occSuffixLen {
		return occSymbol{}, false
	}

	suffix := symbol[len(symbol)-occSuffixLen:]
	root := strings.TrimSpace(symbol[:len(symbol)-occSuffixLen])
	expiry, right, strike := suffix[:6], suffix[6], suffix[7:]

	if root == "" || !isDigits(expiry) || !isDigits(strike) || (right != 'C' && right != 'P') {
		return occSymbol{}, false
	}

	return occSymbol{Root: root, Expiry: expiry, Right: right, Strike: strike}, true
}

func isDigits(s string) bool {
	for idx := 0; idx < len(s); idx++ {
		if s[idx] < '0' || s[idx] > '9' {
			return false
		}
	}

	return s != ""
}
