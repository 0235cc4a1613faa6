package httpsaudit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRuleset(t *testing.T, xml string) *Ruleset {
	rs, err := ParseRuleset([]byte(xml))
	require.NoError(t, err)
	return rs
}

func TestRuleApply(t *testing.T) {
	r, err := NewRule(`^http://(\w+)\.example\.com/`, "https://$1.example.net/", false)
	require.NoError(t, err)

	out, err := r.Apply("http://www.example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "https://www.example.net/a", out)

	out, err = r.Apply("http://other.org/")
	require.NoError(t, err)
	assert.Equal(t, "http://other.org/", out, "no match leaves the url alone")
}

func TestRuleApplyReplacesEveryMatch(t *testing.T) {
	r, err := NewRule(`http:`, "https:", false)
	require.NoError(t, err)
	out, err := r.Apply("http://x.com/?next=http://y.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://x.com/?next=https://y.com/", out)
}

func TestRuleApplyBadBackReference(t *testing.T) {
	r, err := NewRule(`^http://example\.com/`, "https://example.com/$1", false)
	require.NoError(t, err, "bad references only fail when applied")

	_, err = r.Apply("http://example.com/")
	var serr *SubstitutionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "http://example.com/", serr.URL)

	out, err := r.Apply("http://other.com/")
	assert.NoError(t, err, "non-matching urls never expand the template")
	assert.Equal(t, "http://other.com/", out)
}

func TestRuleWeakFlagIgnored(t *testing.T) {
	weak, err := NewRule(`^http:`, "https:", true)
	require.NoError(t, err)
	strong, err := NewRule(`^http:`, "https:", false)
	require.NoError(t, err)

	a, _ := weak.Apply("http://x.com/")
	b, _ := strong.Apply("http://x.com/")
	assert.Equal(t, a, b)
}

func TestRulesetMatchesHost(t *testing.T) {
	rs := mustRuleset(t, `<ruleset name="Example">
		<target host="*.example.com"/>
		<target host="example.org"/>
	</ruleset>`)

	assert.True(t, rs.MatchesHost("www.example.com"))
	assert.True(t, rs.MatchesHost("a.b.example.com"))
	assert.True(t, rs.MatchesHost("WWW.Example.com"))
	assert.True(t, rs.MatchesHost("example.org"))
	assert.False(t, rs.MatchesHost("example.com"))
	assert.False(t, rs.MatchesHost("notexample.com"))
	assert.False(t, rs.MatchesHost("www.example.com.evil.org"))
	assert.False(t, rs.MatchesHost("sub.example.org"))
	assert.False(t, rs.MatchesHost("exampleXorg"), "dots are literal")
}

func TestRulesetWithoutTargetsMatchesNothing(t *testing.T) {
	rs := mustRuleset(t, `<ruleset name="Empty"><rule from="^http:" to="https:"/></ruleset>`)
	assert.False(t, rs.MatchesHost(""))
	assert.False(t, rs.MatchesHost("example.com"))
}

func TestRulesetApplyDecisions(t *testing.T) {
	base := `<target host="example.com"/>
		<exclusion pattern="^http://example\.com/insecure/"/>
		<rule from="^http://example\.com/" to="https://example.com/"/>`

	active := mustRuleset(t, `<ruleset name="A">`+base+`</ruleset>`)
	disabled := mustRuleset(t, `<ruleset name="A" default_off="x">`+base+`</ruleset>`)
	platform := mustRuleset(t, `<ruleset name="A" platform="mixedcontent">`+base+`</ruleset>`)

	cases := []struct {
		name   string
		rs     *Ruleset
		in     string
		out    string
		result bool
	}{
		{"upgrade", active, "http://example.com/x", "https://example.com/x", true},
		{"excluded", active, "http://example.com/insecure/x", "http://example.com/insecure/x", true},
		{"already secure", active, "https://example.com/x", "https://example.com/x", true},
		{"disabled", disabled, "http://example.com/x", "http://example.com/x", true},
		{"platform", platform, "http://example.com/x", "http://example.com/x", true},
		{"no rule", active, "http://example.com", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, ok, err := c.rs.Apply(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.result, ok)
			assert.Equal(t, c.out, out)
		})
	}
}

func TestRulesetStopsAtFirstSecureResult(t *testing.T) {
	rs := mustRuleset(t, `<ruleset name="A">
		<target host="example.com"/>
		<rule from="^http://example\.com/" to="https://example.com/"/>
		<rule from="^https://example\.com/" to="https://broken.example.com/"/>
	</ruleset>`)
	out, ok, err := rs.Apply("http://example.com/x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/x", out)
}

func TestRulesetSubstitutionError(t *testing.T) {
	rs := mustRuleset(t, `<ruleset name="A">
		<target host="example.com"/>
		<rule from="^http://example\.com/" to="https://example.com/$3"/>
	</ruleset>`)
	_, ok, err := rs.Apply("http://example.com/x")
	assert.False(t, ok)
	var serr *SubstitutionError
	assert.ErrorAs(t, err, &serr)
}
