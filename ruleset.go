package httpsaudit

import (
	"regexp"
	"strings"
)

const secureScheme = "https://"

// Ruleset is a set of rules to apply to a set of targets with flags for things
// like whether or not the set is active, targets, rules, exclusions, etc.
// A Ruleset is immutable once parsed.
type Ruleset struct {
	Name string
	// Platform restricts the ruleset to a browser platform such as
	// "mixedcontent". We don't run on any platform, so any value makes the
	// ruleset inert.
	Platform string
	Disabled bool

	Targets    []string
	Exclusions []string
	Rules      []*Rule

	targets   *regexp.Regexp
	exclusion pattern
}

func newRuleset(name, platform string, disabled bool, targets, exclusions []string, rules []*Rule) (*Ruleset, error) {
	rs := &Ruleset{
		Name:       name,
		Platform:   platform,
		Disabled:   disabled,
		Targets:    targets,
		Exclusions: exclusions,
		Rules:      rules,
	}
	var err error
	if rs.targets, err = compileTargets(targets); err != nil {
		return nil, err
	}
	if len(exclusions) > 0 {
		alternatives := make([]string, 0, len(exclusions))
		for _, e := range exclusions {
			alternatives = append(alternatives, "(?:"+e+")")
		}
		if rs.exclusion, err = compilePattern(strings.Join(alternatives, "|")); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// compileTargets builds a single matcher that accepts exactly the hosts
// described by the target patterns, where "*" stands for one or more
// characters. Host names compare case-insensitively.
func compileTargets(hosts []string) (*regexp.Regexp, error) {
	alternatives := make([]string, 0, len(hosts))
	for _, host := range hosts {
		alternatives = append(alternatives, strings.ReplaceAll(regexp.QuoteMeta(host), `\*`, ".+"))
	}
	expr := "(?i)^(?:" + strings.Join(alternatives, "|") + ")$"
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &RuleSyntaxError{Pattern: expr, Err: err}
	}
	return re, nil
}

// MatchesHost reports whether host, without scheme or port, is one of the
// ruleset's targets.
func (rs *Ruleset) MatchesHost(host string) bool {
	return len(rs.Targets) > 0 && rs.targets.MatchString(host)
}

// Apply attempts to upgrade url. Inert, excluded and already secure URLs come
// back unchanged with ok set. When no rule in the chain produces a secure URL
// ok is false.
func (rs *Ruleset) Apply(url string) (result string, ok bool, err error) {
	if rs.Disabled || rs.Platform != "" {
		return url, true, nil
	}
	if rs.exclusion != nil {
		excluded, err := rs.exclusion.MatchString(url)
		if err != nil {
			return "", false, &SubstitutionError{Pattern: strings.Join(rs.Exclusions, "|"), URL: url, Err: err}
		}
		if excluded {
			return url, true, nil
		}
	}
	if isSecure(url) {
		return url, true, nil
	}

	current := url
	for _, rule := range rs.Rules {
		current, err = rule.Apply(current)
		if err != nil {
			return "", false, err
		}
		if isSecure(current) {
			return current, true, nil
		}
	}
	return "", false, nil
}

func isSecure(url string) bool {
	return len(url) >= len(secureScheme) && strings.EqualFold(url[:len(secureScheme)], secureScheme)
}
