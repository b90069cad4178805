package identity

import (
	"crypto/sha1" //nolint:gosec // content addressing, not security
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Fingerprint hashes the economic identity of a transaction: amount, day,
// normalized merchant, account suffix and external message id. Free-text
// description deliberately does not participate, so re-deliveries with
// reworded descriptions collapse to the same fingerprint.
func Fingerprint(amount float64, date time.Time, merchantClean, accountSuffix, messageID string) string {
	day := ""
	if !date.IsZero() {
		day = date.UTC().Format("2006-01-02")
	}

	data := fmt.Sprintf("%.2f|%s|%s|%s|%s",
		amount,
		day,
		strings.ToLower(merchantClean),
		accountSuffix,
		messageID)

	hash := sha1.Sum([]byte(data)) //nolint:gosec // content addressing
	return fmt.Sprintf("%x", hash)
}

// CacheKey hashes the coarse "economic shape" of a request: description,
// merchant, amount and currency, ignoring date and account. Repeated
// patterns memoize under one key regardless of when they occur. Kept
// separate from Fingerprint on purpose; merging them would change cache
// hit-rate and feedback-aggregation granularity.
func CacheKey(description, merchant string, amount float64, currency string) string {
	data := fmt.Sprintf("%s|%s|%.2f|%s",
		strings.ToLower(strings.TrimSpace(description)),
		strings.ToLower(strings.TrimSpace(merchant)),
		amount,
		strings.ToUpper(currency))

	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
