package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMerchant(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "known brand via alias",
			raw:      "AMZN Mktp US*1A2B3C",
			expected: "Amazon",
		},
		{
			name:     "card network noise stripped",
			raw:      "VISA DEBIT   CAFE MARTINEZ 00423",
			expected: "Cafe Martinez",
		},
		{
			name:     "accents folded",
			raw:      "PANADERÍA LA UNIÓN",
			expected: "Panaderia La Union",
		},
		{
			name:     "alias wins over title casing",
			raw:      "COTO CICSA SUC 123",
			expected: "Coto",
		},
		{
			name:     "whitespace collapsed and title cased",
			raw:      "  corner   store  ",
			expected: "Corner Store",
		},
		{
			name:     "trailing reference removed",
			raw:      "FERRETERIA NORTE #123456",
			expected: "Ferreteria Norte",
		},
		{
			name:     "empty input",
			raw:      "",
			expected: "",
		},
		{
			name:     "pure noise",
			raw:      "POS DEBIT",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeMerchant(tt.raw))
		})
	}
}

func TestNormalizeMerchantIsStable(t *testing.T) {
	once := NormalizeMerchant("SUPERMERCADO COTO 4412")
	twice := NormalizeMerchant(once)
	assert.Equal(t, once, twice)
}
