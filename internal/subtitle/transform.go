package subtitle

import (
	"regexp"
	"strings"
	"unicode"
)

// TextTransform is a pure per-entry text rewrite applied by batch
// document operations.
type TextTransform func(string) string

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	multiSpaceRe = regexp.MustCompile(`[ \t]+`)
)

// RemoveHTMLTags strips markup like <i> and <font> from subtitle text.
func RemoveHTMLTags(s string) string {
	s = htmlTagRe.ReplaceAllString(s, "")
	return collapseSpaces(s)
}

// RemovePunctuation strips punctuation and symbol runes, keeping
// letters, digits and whitespace.
func RemovePunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return collapseSpaces(b.String())
}

// AddSpacesBetweenCJKAndAlphanumeric inserts a single space at every
// boundary between a CJK rune and an ASCII letter or digit.
func AddSpacesBetweenCJKAndAlphanumeric(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	for i, r := range runes {
		if i > 0 {
			prev := runes[i-1]
			if (isCJK(prev) && isASCIIAlphanumeric(r)) || (isASCIIAlphanumeric(prev) && isCJK(r)) {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToUpperCase converts subtitle text to upper case.
func ToUpperCase(s string) string {
	return strings.ToUpper(s)
}

// ToLowerCase converts subtitle text to lower case.
func ToLowerCase(s string) string {
	return strings.ToLower(s)
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

func isASCIIAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// collapseSpaces reduces space runs to a single space per line while
// preserving line breaks.
func collapseSpaces(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(multiSpaceRe.ReplaceAllString(line, " "))
	}
	return strings.Join(lines, "\n")
}
