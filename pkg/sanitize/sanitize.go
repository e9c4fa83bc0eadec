// Package sanitize normalizes untrusted text before it is stored.
//
// Values recorded from login forms and request headers are attacker
// controlled. Markup is stripped, control characters removed and whitespace
// collapsed so that a stored value is plain single-line text. Output escaping
// is still the job of whatever renders the value.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Longest values kept, in runes
const (
	MaxUsernameLength  = 60
	MaxIPAddressLength = 100
)

var percentOctet = regexp.MustCompile(`%[a-fA-F0-9]{2}`)

// angleBrackets can only survive stripping as decoded character references
var angleBrackets = strings.NewReplacer("<", "", ">", "")

// maxStripPasses bounds how many layers of entity encoding are unwrapped
const maxStripPasses = 4

// Text strips markup, percent-encoded octets and control characters from s
// and truncates the result to max runes. max <= 0 disables truncation.
func Text(s string, max int) string {
	s = strings.ToValidUTF8(s, "")
	s = stripMarkup(s)
	s = percentOctet.ReplaceAllString(s, "")
	s = collapse(s)
	return truncate(s, max)
}

// Username is Text capped at MaxUsernameLength runes
func Username(s string) string {
	return Text(s, MaxUsernameLength)
}

// stripMarkup strips tags until the text stops changing, so markup hidden
// behind character references is removed too. Any angle bracket left over
// is dropped.
func stripMarkup(s string) string {
	for i := 0; i < maxStripPasses; i++ {
		next := StripTags(s)
		if next == s {
			break
		}
		s = next
	}
	return angleBrackets.Replace(s)
}

// StripTags returns the text content of s with every tag, comment and
// doctype removed. Character references are decoded.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var b strings.Builder
	skip := 0 // depth inside script/style, whose text is not content
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF is the only error a strings.Reader produces
			return b.String()
		case html.StartTagToken:
			if isRawTextTag(z) {
				skip++
			}
		case html.EndTagToken:
			if skip > 0 && isRawTextTag(z) {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

// collapse drops control characters, turns every whitespace run into a
// single space and trims the ends
func collapse(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r), r == utf8.RuneError, unicode.Is(unicode.Cf, r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}

	return b.String()
}

func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
