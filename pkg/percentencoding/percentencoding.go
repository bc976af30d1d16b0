// Package percentencoding implements URL percent-encoding[1] of object keys.
//
// Unlike net/url.PathEscape, EncodePath keeps "/" literal so that keys like
// "a/b/c.txt" stay hierarchical in the request path, while every other
// reserved character is escaped.
//
// [1]: https://en.wikipedia.org/wiki/Percent-encoding
package percentencoding

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrIncompleteInput = errors.New("incomplete input")

// EncodePath escapes everything except unreserved characters and "/".
func EncodePath(s string) string {
	return encode(s, true)
}

// EncodeComponent escapes everything except unreserved characters.
func EncodeComponent(s string) string {
	return encode(s, false)
}

func encode(s string, slashSafe bool) string {
	var result strings.Builder

	result.Grow(len(s))

	for _, c := range []byte(s) {
		switch {
		case c >= '0' && c <= '9':
			fallthrough
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			fallthrough
		case c == '-' || c == '_' || c == '.' || c == '~':
			result.WriteByte(c)
		case c == '/' && slashSafe:
			result.WriteByte(c)
		default:
			result.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}

	return result.String()
}

func Decode(s string) (string, error) {
	var result strings.Builder

	for i := 0; i < len(s); i++ {
		if s[i] == '%' {
			if (i + 2) >= len(s) {
				return "", ErrIncompleteInput
			}

			value, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return "", err
			}

			i += 2

			result.WriteByte(byte(value))
		} else {
			result.WriteByte(s[i])
		}
	}

	return result.String(), nil
}
