package httpsaudit

import (
	"strings"
)

// TranslatePattern converts a ruleset pattern from the JavaScript dialect the
// corpus is written in to one with the same meaning under Go's engines.
// Greedy optional groups "(...)?" are rewritten as "(...|)" so that the group
// always participates in the match and its back-reference is always defined.
// Lazy optional groups and lookaround groups are left alone.
func TranslatePattern(p string) string {
	var b strings.Builder
	b.Grow(len(p) + 4)

	// One entry per open group, true when the group is a lookaround.
	var groups []bool
	inClass := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '\\':
			b.WriteByte(c)
			if i+1 < len(p) {
				i++
				b.WriteByte(p[i])
			}
		case inClass:
			if c == ']' {
				inClass = false
			}
			b.WriteByte(c)
		case c == '[':
			inClass = true
			b.WriteByte(c)
		case c == '(':
			groups = append(groups, isLookaround(p[i:]))
			b.WriteByte(c)
		case c == ')':
			lookaround := false
			if n := len(groups); n > 0 {
				lookaround = groups[n-1]
				groups = groups[:n-1]
			}
			if !lookaround && greedyOptionalAt(p, i+1) {
				b.WriteString("|)")
				i++
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func greedyOptionalAt(p string, i int) bool {
	return i < len(p) && p[i] == '?' && (i+1 >= len(p) || p[i+1] != '?')
}

func isLookaround(s string) bool {
	for _, prefix := range []string{"(?=", "(?!", "(?<=", "(?<!"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// TranslateReplacement converts a JavaScript replacement template into Go's
// template syntax. "$1" becomes "${1}" so that a following digit or letter is
// not read as part of the group name, "$&" becomes "${0}", and any other
// dollar sign is kept literal.
func TranslateReplacement(t string) string {
	var b strings.Builder
	b.Grow(len(t) + 8)
	for i := 0; i < len(t); i++ {
		c := t[i]
		if c != '$' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(t) {
			b.WriteString("$$")
			continue
		}
		next := t[i+1]
		switch {
		case next == '$':
			b.WriteString("$$")
			i++
		case next == '&':
			b.WriteString("${0}")
			i++
		case isDigit(next):
			j := i + 1
			for j < len(t) && isDigit(t[j]) {
				j++
			}
			b.WriteString("${")
			b.WriteString(t[i+1 : j])
			b.WriteByte('}')
			i = j - 1
		default:
			b.WriteString("$$")
		}
	}
	return b.String()
}

// maxGroupRef returns the highest numbered group a translated template refers
// to, or -1 when it refers to none.
func maxGroupRef(template string) int {
	max := -1
	for i := 0; i+1 < len(template); i++ {
		if template[i] != '$' {
			continue
		}
		if template[i+1] == '$' {
			i++
			continue
		}
		if template[i+1] != '{' {
			continue
		}
		n, j := 0, i+2
		for j < len(template) && isDigit(template[j]) {
			n = n*10 + int(template[j]-'0')
			j++
		}
		if j > i+2 && j < len(template) && template[j] == '}' && n > max {
			max = n
		}
		i = j
	}
	return max
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
