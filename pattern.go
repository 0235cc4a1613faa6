package httpsaudit

import (
	"regexp"
	"time"

	"github.com/dlclark/regexp2"
)

// matchTimeout bounds a single evaluation on the backtracking engine.
const matchTimeout = 250 * time.Millisecond

// pattern is a compiled ruleset regular expression. Most of the corpus
// compiles under RE2; the rest (lookaround, back-references) runs on regexp2
// in ECMAScript mode.
type pattern interface {
	MatchString(s string) (bool, error)
	// ReplaceAll expands template, in Go's ${N} syntax, for every match.
	ReplaceAll(s, template string) (string, error)
	NumSubexp() int
	String() string
}

// compilePattern translates expr out of the JavaScript dialect and compiles
// it, preferring RE2.
func compilePattern(expr string) (pattern, error) {
	translated := TranslatePattern(expr)
	if re, err := regexp.Compile(translated); err == nil {
		return &re2Pattern{re: re}, nil
	}
	re, err := regexp2.Compile(translated, regexp2.ECMAScript)
	if err != nil {
		return nil, &RuleSyntaxError{Pattern: expr, Err: err}
	}
	re.MatchTimeout = matchTimeout
	return &ecmaPattern{re: re}, nil
}

type re2Pattern struct {
	re *regexp.Regexp
}

func (p *re2Pattern) MatchString(s string) (bool, error) {
	return p.re.MatchString(s), nil
}

func (p *re2Pattern) ReplaceAll(s, template string) (string, error) {
	return p.re.ReplaceAllString(s, template), nil
}

func (p *re2Pattern) NumSubexp() int {
	return p.re.NumSubexp()
}

func (p *re2Pattern) String() string {
	return p.re.String()
}

type ecmaPattern struct {
	re *regexp2.Regexp
}

func (p *ecmaPattern) MatchString(s string) (bool, error) {
	return p.re.MatchString(s)
}

func (p *ecmaPattern) ReplaceAll(s, template string) (string, error) {
	return p.re.Replace(s, template, -1, -1)
}

func (p *ecmaPattern) NumSubexp() int {
	return len(p.re.GetGroupNumbers()) - 1
}

func (p *ecmaPattern) String() string {
	return p.re.String()
}
