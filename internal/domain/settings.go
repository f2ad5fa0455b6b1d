package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Settings is the business configuration handed to every engine operation.
type Settings struct {
	ActivePaymentModes            []string
	DefaultInterestRate           decimal.Decimal
	DefaultAdminCommissionPercent decimal.Decimal
	DefaultStaffCommissionPercent decimal.Decimal
}

// ResolvePaymentMode matches mode against the active list without regard to
// case and returns the configured spelling. An empty list accepts any
// non-blank mode as given.
func (s Settings) ResolvePaymentMode(mode string) (string, bool) {
	mode = strings.TrimSpace(mode)
	if mode == "" {
		return "", false
	}
	if len(s.ActivePaymentModes) == 0 {
		return mode, true
	}
	for _, m := range s.ActivePaymentModes {
		if strings.EqualFold(m, mode) {
			return m, true
		}
	}
	return "", false
}
