// Package identity canonicalizes transaction fields into stable keys: a
// normalized merchant name, a fingerprint hash for dedup and feedback
// aggregation, and a coarse cache key for result memoization.
package identity

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// noiseTokens are card-network markers and processor prefixes that carry no
// merchant identity.
var noiseTokens = map[string]bool{
	"visa":       true,
	"mastercard": true,
	"master":     true,
	"maestro":    true,
	"amex":       true,
	"debito":     true,
	"credito":    true,
	"debit":      true,
	"credit":     true,
	"pos":        true,
	"tap":        true,
	"compra":     true,
	"purchase":   true,
	"card":       true,
	"ach":        true,
	"pago":       true,
	"qr":         true,
}

// merchantAliases maps normalized fragments of known brands to their
// canonical names. Checked by substring after folding and lowercasing.
var merchantAliases = []struct {
	fragment  string
	canonical string
}{
	{"amzn", "Amazon"},
	{"amazon", "Amazon"},
	{"mercadopago", "MercadoLibre"},
	{"mercado pago", "MercadoLibre"},
	{"mercadolibre", "MercadoLibre"},
	{"wal-mart", "Walmart"},
	{"wm supercenter", "Walmart"},
	{"walmart", "Walmart"},
	{"coto", "Coto"},
	{"carrefour", "Carrefour"},
	{"starbucks", "Starbucks"},
	{"netflix", "Netflix"},
	{"spotify", "Spotify"},
	{"uber eats", "Uber Eats"},
	{"uber", "Uber"},
	{"pedidosya", "PedidosYa"},
	{"rappi", "Rappi"},
	{"mcdonald", "McDonald's"},
	{"ypf", "YPF"},
	{"shell", "Shell"},
	{"google", "Google"},
	{"apple.com", "Apple"},
	{"paypal", "PayPal"},
}

var (
	// Trailing transaction references: long digit runs, *REF-style ids.
	refSuffixRegex  = regexp.MustCompile(`(\*[A-Za-z0-9]+|#?\d{4,})$`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// foldAccents strips combining marks (é -> e). Transformers carry state,
// so a fresh chain is built per call; NormalizeMerchant runs concurrently.
func foldAccents(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		return s
	}
	return folded
}

// NormalizeMerchant canonicalizes a raw merchant string: folds accents,
// lowercases, strips card-network noise and trailing reference numbers,
// collapses whitespace, and maps known brands through the alias table.
// Unknown merchants are returned title-cased. An empty or all-noise input
// normalizes to "".
func NormalizeMerchant(raw string) string {
	s := strings.ToLower(strings.TrimSpace(foldAccents(raw)))
	if s == "" {
		return ""
	}

	s = refSuffixRegex.ReplaceAllString(s, "")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	words := strings.Fields(s)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if noiseTokens[strings.Trim(w, ".*")] {
			continue
		}
		kept = append(kept, w)
	}
	s = strings.Join(kept, " ")
	if s == "" {
		return ""
	}

	for _, alias := range merchantAliases {
		if strings.Contains(s, alias.fragment) {
			return alias.canonical
		}
	}

	return cases.Title(language.Und).String(s)
}
