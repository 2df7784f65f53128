package ingestion

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText converts file bytes to a string. Valid UTF-8 is used as-is; otherwise the
// bytes are decoded as Windows-1251 (common for Russian mail exports), and as a last
// resort invalid sequences are dropped.
func DecodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	if decoded, err := charmap.Windows1251.NewDecoder().Bytes(data); err == nil && utf8.Valid(decoded) {
		return string(decoded)
	}
	return strings.ToValidUTF8(string(data), "")
}
