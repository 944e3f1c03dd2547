package base

import (
	"strings"
	"unicode/utf8"
)

// decodeCommand decodes one receive as UTF-8. Invalid sequences are replaced
// with U+FFFD so the command is always valid text.
func decodeCommand(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
