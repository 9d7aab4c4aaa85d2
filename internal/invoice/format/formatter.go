package format

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

const (
	DefaultInvoiceIDPrefix = "INV-"
	DefaultInvoiceIDLength = 8

	invoiceIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// largest multiple of len(invoiceIDAlphabet) that fits in a byte
	rejectAbove = 252
)

// NewInvoiceID returns prefix followed by length uppercase alphanumerics
// drawn from crypto/rand.
func NewInvoiceID(prefix string, length int) (string, error) {
	return newInvoiceID(rand.Reader, prefix, length)
}

func newInvoiceID(src io.Reader, prefix string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid invoice id length: %d", length)
	}

	var b strings.Builder
	b.Grow(len(prefix) + length)
	b.WriteString(prefix)

	buf := make([]byte, length*2)
	written := 0
	for written < length {
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, v := range buf {
			if v >= rejectAbove {
				continue
			}
			b.WriteByte(invoiceIDAlphabet[int(v)%len(invoiceIDAlphabet)])
			written++
			if written == length {
				break
			}
		}
	}
	return b.String(), nil
}

// IsInvoiceID reports whether id has the given prefix and a well-formed suffix.
func IsInvoiceID(id, prefix string, length int) bool {
	if !strings.HasPrefix(id, prefix) {
		return false
	}
	suffix := id[len(prefix):]
	if len(suffix) != length {
		return false
	}
	for i := 0; i < len(suffix); i++ {
		if !strings.ContainsRune(invoiceIDAlphabet, rune(suffix[i])) {
			return false
		}
	}
	return true
}
