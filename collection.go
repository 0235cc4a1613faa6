package httpsaudit

import (
	"net"
	"net/url"
	"strings"

	"github.com/armon/go-radix"
	"github.com/getlantern/golog"
)

// Rewrite changes an HTTP URL to HTTPS, reporting whether it did.
type Rewrite func(u *url.URL) (string, bool)

// Collection holds every loaded ruleset and finds the ones covering a URL.
// Add is not safe for concurrent use; once loading is done the Collection is
// read-only and may be shared between goroutines.
type Collection struct {
	log      golog.Logger
	rulesets []*Ruleset

	// Targets without wildcards, keyed by host.
	plain map[string][]*Ruleset
	// Targets of the form "*suffix", keyed by the reversed suffix so that a
	// host's reversed form walks through every suffix it ends with.
	suffixes *radix.Tree
	// Other wildcard targets with a literal prefix, keyed by that prefix.
	prefixes *radix.Tree
	// Everything else gets checked on every lookup.
	scan []*Ruleset
}

// NewCollection creates an empty Collection. A nil log uses the package
// default.
func NewCollection(log golog.Logger) *Collection {
	if log == nil {
		log = golog.LoggerFor("httpsaudit")
	}
	return &Collection{
		log:      log,
		plain:    make(map[string][]*Ruleset),
		suffixes: radix.New(),
		prefixes: radix.New(),
	}
}

// Add indexes rs under each of its targets. Rulesets are members by identity,
// so adding two equal rulesets keeps both.
func (c *Collection) Add(rs *Ruleset) {
	c.rulesets = append(c.rulesets, rs)
	for _, target := range rs.Targets {
		host := strings.ToLower(target)
		star := strings.IndexByte(host, '*')
		switch {
		case star < 0:
			c.plain[host] = appendUnique(c.plain[host], rs)
		case star == 0 && strings.LastIndexByte(host, '*') == 0:
			insert(c.suffixes, reverse(host[1:]), rs)
		case star > 0:
			insert(c.prefixes, host[:star], rs)
		default:
			c.scan = appendUnique(c.scan, rs)
		}
	}
}

// Len returns the number of rulesets in the collection.
func (c *Collection) Len() int {
	return len(c.rulesets)
}

// SelectCandidates returns every ruleset whose targets match the host of
// rawURL. The port and any userinfo are ignored.
func (c *Collection) SelectCandidates(rawURL string) []*Ruleset {
	host := Host(rawURL)
	if host == "" {
		return nil
	}

	var candidates []*Ruleset
	seen := make(map[*Ruleset]bool)
	consider := func(rulesets []*Ruleset) {
		for _, rs := range rulesets {
			if seen[rs] {
				continue
			}
			seen[rs] = true
			if rs.MatchesHost(host) {
				candidates = append(candidates, rs)
			}
		}
	}

	consider(c.plain[host])
	c.suffixes.WalkPath(reverse(host), func(_ string, v interface{}) bool {
		consider(v.([]*Ruleset))
		return false
	})
	c.prefixes.WalkPath(host, func(_ string, v interface{}) bool {
		consider(v.([]*Ruleset))
		return false
	})
	consider(c.scan)
	return candidates
}

// Apply returns the upgraded form of rawURL, or rawURL itself when no
// candidate ruleset upgrades it. Rulesets that fail while rewriting are
// skipped.
func (c *Collection) Apply(rawURL string) string {
	out, _ := c.TryApply(rawURL)
	return out
}

// TryApply is like Apply but also returns the first rewrite error hit when no
// ruleset upgraded the URL.
func (c *Collection) TryApply(rawURL string) (string, error) {
	var firstErr error
	for _, rs := range c.SelectCandidates(rawURL) {
		out, ok, err := rs.Apply(rawURL)
		if err != nil {
			c.log.Debugf("Ruleset %v could not rewrite %v: %v", rs.Name, rawURL, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok && out != "" && out != rawURL {
			return out, nil
		}
	}
	return rawURL, firstErr
}

// Rewriter adapts the collection to a Rewrite for callers holding parsed
// URLs.
func (c *Collection) Rewriter() Rewrite {
	return func(u *url.URL) (string, bool) {
		if u.Scheme != "http" {
			return "", false
		}
		original := u.String()
		out := c.Apply(original)
		if out == original {
			return "", false
		}
		return out, true
	}
}

func insert(t *radix.Tree, key string, rs *Ruleset) {
	var existing []*Ruleset
	if v, ok := t.Get(key); ok {
		existing = v.([]*Ruleset)
	}
	t.Insert(key, appendUnique(existing, rs))
}

func appendUnique(rulesets []*Ruleset, rs *Ruleset) []*Ruleset {
	for _, existing := range rulesets {
		if existing == rs {
			return rulesets
		}
	}
	return append(rulesets, rs)
}

// Host extracts the lowercased host from a URL, dropping any port and
// userinfo. It doesn't fully parse the URL; candidate URLs don't always
// survive url.Parse.
func Host(rawURL string) string {
	rest := rawURL
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndexByte(rest, '@'); i >= 0 {
		rest = rest[i+1:]
	}
	return strings.ToLower(withoutPort(rest))
}

func withoutPort(hostport string) string {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport
	}
	return host
}

func reverse(input string) string {
	runes := []rune(input)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
