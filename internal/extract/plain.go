package extract

import (
	"context"
	"strings"
	"unicode/utf8"
)

// extractPlain returns content as text. Invalid UTF-8 sequences are replaced with U+FFFD.
func extractPlain(_ context.Context, content []byte) (string, error) {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�"), nil
	}
	return string(content), nil
}
