// Package identity derives the stable keys the dedupe ledger is built on:
// the offering identity (symbol + opening date) and the salted,
// non-reversible dedupe key for a (recipient, offering) pair.
package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"ipowatch/internal/types"
)

// ForOffering derives the ledger's top-level key for an offering:
// "Symbol|OpeningDate". Two offerings with equal symbol and opening date
// are the same offering, even across runs.
//
// Returns offering_missing_field if either component is blank after
// trimming — such a row is unidentifiable and must never reach the ledger.
func ForOffering(o types.Offering) (string, error) {
	symbol := strings.TrimSpace(o.Symbol)
	opening := strings.TrimSpace(o.OpeningDate)
	if symbol == "" || opening == "" {
		return "", types.NewAppError(types.ErrCodeOfferingMissingField,
			"offering lacks Symbol or Opening Date", nil)
	}
	return symbol + "|" + opening, nil
}

// DedupeKey computes the suppression token for a (recipient, offering)
// pair: lowercase-hex HMAC-SHA256 over "recipient|offeringID" keyed by the
// shared salt. Deterministic for fixed inputs, not invertible without the
// salt, and disjoint across salts so one deployment's ledger leaks nothing
// about another's recipients.
func DedupeKey(salt types.SecretString, recipient, offeringID string) string {
	mac := hmac.New(sha256.New, []byte(salt.Unmask()))
	mac.Write([]byte(recipient + "|" + offeringID))
	return hex.EncodeToString(mac.Sum(nil))
}

// EventUID derives the calendar UID for an offering: plain SHA-256 hex of
// the offering identity. The UID is intentionally recipient-independent so
// repeated runs regenerate the same event.
func EventUID(offeringID string) string {
	sum := sha256.Sum256([]byte(offeringID))
	return hex.EncodeToString(sum[:])
}
