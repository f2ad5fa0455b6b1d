package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettings_ResolvePaymentMode(t *testing.T) {
	active := Settings{ActivePaymentModes: []string{"Cash", "PhonePe", "GPay"}}

	tests := []struct {
		name     string
		settings Settings
		mode     string
		expected string
		ok       bool
	}{
		{name: "exact match", settings: active, mode: "Cash", expected: "Cash", ok: true},
		{name: "case is folded to the configured spelling", settings: active, mode: "phonepe", expected: "PhonePe", ok: true},
		{name: "surrounding space is ignored", settings: active, mode: "  GPAY ", expected: "GPay", ok: true},
		{name: "inactive mode", settings: active, mode: "Cheque", ok: false},
		{name: "blank mode", settings: active, mode: "  ", ok: false},
		{name: "empty list accepts the mode as given", settings: Settings{}, mode: " Cheque ", expected: "Cheque", ok: true},
		{name: "empty list still rejects a blank mode", settings: Settings{}, mode: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, ok := tt.settings.ResolvePaymentMode(tt.mode)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, mode)
		})
	}
}
