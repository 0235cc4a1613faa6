package httpsaudit

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateReplacement(t *testing.T) {
	to := "https://secure$1.prositehosting.co.uk/"
	expected := "https://secure${1}.prositehosting.co.uk/"
	assert.Equal(t, expected, TranslateReplacement(to))

	to = "https://secure$20.prositehosting.co.uk/"
	expected = "https://secure${20}.prositehosting.co.uk/"
	assert.Equal(t, expected, TranslateReplacement(to))

	assert.Equal(t, "https://${1}a${2}/", TranslateReplacement("https://$1a$2/"))
	assert.Equal(t, "https://${0}", TranslateReplacement("https://$&"))
	assert.Equal(t, "cost$$5", TranslateReplacement("cost$$5"))
	assert.Equal(t, "a$$b", TranslateReplacement("a$b"))
	assert.Equal(t, "a$$", TranslateReplacement("a$"))
	assert.Equal(t, "https:", TranslateReplacement("https:"))
}

func TestTranslatePattern(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{`^http://(?:www\.)?example\.com/`, `^http://(?:www\.|)example\.com/`},
		{`^http://(www\.)?example\.com/`, `^http://(www\.|)example\.com/`},
		{`^http://((?:a|b)\.)?x\.com/`, `^http://((?:a|b)\.|)x\.com/`},
		{`^http://(?:(\w+)\.)?x\.com/`, `^http://(?:(\w+)\.|)x\.com/`},
		{`^http://(a)??b`, `^http://(a)??b`},
		{`^http://\(a\)?b`, `^http://\(a\)?b`},
		{`^http://[()?]x`, `^http://[()?]x`},
		{`^http://[\]()]?(a)?`, `^http://[\]()]?(a|)`},
		{`^http://(?!www\.)(\w+)\.x\.com/`, `^http://(?!www\.)(\w+)\.x\.com/`},
		{`^http:`, `^http:`},
	}
	for _, c := range cases {
		assert.Equal(t, c.out, TranslatePattern(c.in), c.in)
	}
}

func TestTranslatedOptionalGroupMatchesTheSame(t *testing.T) {
	orig := regexp.MustCompile(`^http://(www\.)?example\.com/`)
	translated := regexp.MustCompile(TranslatePattern(`^http://(www\.)?example\.com/`))
	for _, u := range []string{"http://example.com/", "http://www.example.com/", "http://wwwexample.com/"} {
		assert.Equal(t, orig.MatchString(u), translated.MatchString(u), u)
		assert.Equal(t,
			orig.ReplaceAllString(u, "https://${1}example.com/"),
			translated.ReplaceAllString(u, "https://${1}example.com/"), u)
	}
}

func TestMaxGroupRef(t *testing.T) {
	assert.Equal(t, -1, maxGroupRef("https:"))
	assert.Equal(t, 2, maxGroupRef("https://${1}.x/${2}"))
	assert.Equal(t, 0, maxGroupRef("${0}"))
	assert.Equal(t, -1, maxGroupRef("$${1}"))
	assert.Equal(t, 12, maxGroupRef("${12}"))
}

func TestCompilePatternFallback(t *testing.T) {
	p, err := compilePattern(`^http://example\.com/`)
	assert.NoError(t, err)
	assert.IsType(t, &re2Pattern{}, p)

	p, err = compilePattern(`^http://(?!www\.)example\.com/`)
	assert.NoError(t, err)
	assert.IsType(t, &ecmaPattern{}, p)

	_, err = compilePattern(`^http://(unclosed`)
	var rerr *RuleSyntaxError
	assert.ErrorAs(t, err, &rerr)
}
