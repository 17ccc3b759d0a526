package merge

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBarcodePrefix is prepended to generated barcodes.
	DefaultBarcodePrefix = "CAT"
	// BarcodeLength is the total length of a generated barcode.
	BarcodeLength = 16
	// barcodeSuffixLength random characters end every barcode.
	barcodeSuffixLength = 6
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// BarcodeFunc generates a barcode for a record admitted at the given time.
type BarcodeFunc func(now time.Time) string

// NewBarcodeGenerator returns a generator producing fixed-length barcodes made
// of prefix, a base36 millisecond timestamp and a random base36 suffix.
func NewBarcodeGenerator(prefix string) BarcodeFunc {
	prefix = strings.ToUpper(prefix)
	return func(now time.Time) string {
		stampLen := BarcodeLength - len(prefix) - barcodeSuffixLength
		if stampLen < 1 {
			stampLen = 1
		}

		stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
		stamp = fitLeft(stamp, stampLen)

		return fitLeft(prefix, BarcodeLength-stampLen-barcodeSuffixLength) + stamp + randomBase36(barcodeSuffixLength)
	}
}

// fitLeft left-pads s with zeros, or keeps its last n characters.
func fitLeft(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) >= n {
		return s[len(s)-n:]
	}
	return strings.Repeat("0", n-len(s)) + s
}

func randomBase36(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	limit := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			v = big.NewInt(time.Now().UnixNano() % int64(len(base36)))
		}
		sb.WriteByte(base36[v.Int64()])
	}
	return sb.String()
}
