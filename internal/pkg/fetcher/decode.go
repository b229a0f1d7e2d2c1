package fetcher

import (
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

const byteOrderMark = "\ufeff"

// Converts a response body to UTF-8 text without a leading byte-order mark.
func decodeBody(raw []byte, contentType string) string {
	return strings.TrimPrefix(decodeCharset(raw, contentType), byteOrderMark)
}

// The declared or sniffed charset wins; chardet is consulted only when that
// guess is uncertain and the bytes are not already valid UTF-8.
func decodeCharset(raw []byte, contentType string) string {
	if len(raw) == 0 {
		return ""
	}

	enc, name, certain := charset.DetermineEncoding(raw, contentType)
	if !certain && utf8.Valid(raw) {
		return string(raw)
	}
	if !certain {
		if detected, err := chardet.NewHtmlDetector().DetectBest(raw); err == nil {
			if candidate, candidateName := charset.Lookup(detected.Charset); candidate != nil {
				enc, name = candidate, candidateName
			}
		}
	}
	if name == "utf-8" {
		return string(raw)
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
