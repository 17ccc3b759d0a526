// Package fingerprint computes the identity keys used for duplicate detection.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/lepinkainen/catalogue/internal/record"
)

// Key prefixes. The content fingerprint is a bare hex digest.
const (
	SourcePrefix  = "source:"
	ISBNPrefix    = "isbn:"
	DOIPrefix     = "doi:"
	BarcodePrefix = "barcode:"
)

// Content returns the SHA-256 digest of lowercase(title|author|isbn|doi).
// Missing fields contribute an empty string.
func Content(r record.Record) string {
	joined := strings.Join([]string{
		r.Title,
		r.AuthorName(),
		record.Value(r.ISBN),
		record.Value(r.DOI),
	}, "|")

	sum := sha256.Sum256([]byte(strings.ToLower(joined)))
	return hex.EncodeToString(sum[:])
}

// IsContentless reports whether a record carries none of the content
// fingerprint inputs. The "Untitled" placeholder does not count as a title.
func IsContentless(r record.Record) bool {
	title := strings.TrimSpace(r.Title)
	if title != "" && title != record.UntitledTitle {
		return false
	}
	return r.AuthorName() == "" && record.Value(r.ISBN) == "" && record.Value(r.DOI) == ""
}

// Keys returns every identity key of r, in a fixed order: content fingerprint,
// source id, ISBN, DOI, barcode. Absent fields produce no key, and contentless
// records get no content fingerprint, otherwise every such record would
// collide with every other.
func Keys(r record.Record) []string {
	keys := make([]string, 0, 5)

	if !IsContentless(r) {
		keys = append(keys, Content(r))
	}
	if v := strings.TrimSpace(record.Value(r.SourceID)); v != "" {
		keys = append(keys, SourcePrefix+v)
	}
	if v := record.CanonicalISBN(record.Value(r.ISBN)); v != "" {
		keys = append(keys, ISBNPrefix+v)
	}
	if v := record.CanonicalDOI(record.Value(r.DOI)); v != "" {
		keys = append(keys, DOIPrefix+v)
	}
	if v := strings.TrimSpace(record.Value(r.Barcode)); v != "" {
		keys = append(keys, BarcodePrefix+v)
	}

	return keys
}
