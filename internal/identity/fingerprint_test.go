package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintDistinguishesEconomicFields(t *testing.T) {
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	base := Fingerprint(-4300, date, "Coto", "1234", "")

	tests := []struct {
		name  string
		other string
	}{
		{"different amount", Fingerprint(-4301, date, "Coto", "1234", "")},
		{"different day", Fingerprint(-4300, date.AddDate(0, 0, 1), "Coto", "1234", "")},
		{"different merchant", Fingerprint(-4300, date, "Carrefour", "1234", "")},
		{"different account", Fingerprint(-4300, date, "Coto", "9999", "")},
		{"different message id", Fingerprint(-4300, date, "Coto", "1234", "m")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, tt.other)
		})
	}
}

func TestFingerprintTruncatesTimeToDay(t *testing.T) {
	morning := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 15, 22, 45, 0, 0, time.UTC)

	assert.Equal(t,
		Fingerprint(-100, morning, "Coto", "", ""),
		Fingerprint(-100, evening, "Coto", "", ""))
}

func TestCacheKeyIgnoresDateAndAccount(t *testing.T) {
	// The coarse key memoizes by economic shape only.
	a := CacheKey("SUPERMERCADO COTO", "Coto", -4300, "ARS")
	b := CacheKey("SUPERMERCADO COTO", "Coto", -4300, "ARS")
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, CacheKey("SUPERMERCADO COTO", "Coto", -4300, "USD"))
	assert.NotEqual(t, a, CacheKey("SUPERMERCADO COTO", "Coto", -4400, "ARS"))
	assert.NotEqual(t, a, CacheKey("OTHER", "Coto", -4300, "ARS"))
}

func TestCacheKeyCaseInsensitive(t *testing.T) {
	assert.Equal(t,
		CacheKey("Supermercado Coto", "COTO", -4300, "ars"),
		CacheKey("SUPERMERCADO COTO", "coto", -4300, "ARS"))
}
