package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// reEntity matches a single named, decimal or hexadecimal character reference.
var reEntity = regexp.MustCompile(`&(?:#[0-9]+|#[xX][0-9a-fA-F]+|[a-zA-Z]+);`)

// namedEntities is the fixed table of named references WordPress emits in
// titles and excerpts. Unknown names are left as written.
var namedEntities = map[string]string{
	"quot":   `"`,
	"apos":   "'",
	"lt":     "<",
	"gt":     ">",
	"amp":    "&",
	"nbsp":   " ",
	"ndash":  "–",
	"mdash":  "—",
	"hellip": "…",
	"lsquo":  "‘",
	"rsquo":  "’",
	"ldquo":  `"`,
	"rdquo":  `"`,
}

// decimalOverrides flattens the typographic quotes wptexturize produces
// into ASCII. Only the decimal spelling is affected.
var decimalOverrides = map[string]string{
	"8216": "'",
	"8217": "'",
	"8220": `"`,
	"8221": `"`,
}

// DecodeEntities replaces character references in s in a single
// left-to-right pass, so decoded output is never decoded again.
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return reEntity.ReplaceAllStringFunc(s, decodeEntity)
}

func decodeEntity(ref string) string {
	body := ref[1 : len(ref)-1]
	if body[0] != '#' {
		if v, ok := namedEntities[body]; ok {
			return v
		}
		return ref
	}

	digits := body[1:]
	base := 10
	if digits[0] == 'x' || digits[0] == 'X' {
		digits = digits[1:]
		base = 16
	} else if v, ok := decimalOverrides[strings.TrimLeft(digits, "0")]; ok {
		return v
	}

	n, err := strconv.ParseInt(digits, base, 32)
	if err != nil || n == 0 {
		return ref
	}
	r := rune(n)
	if !utf8.ValidRune(r) {
		return ref
	}
	return string(r)
}
