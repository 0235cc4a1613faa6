package httpsaudit

import (
	"fmt"
)

// A Rule maps the regular expression to match and the string to change it to.
// It also stores the compiled regular expression for efficiency.
type Rule struct {
	From string
	To   string

	// Downgrade is parsed from the ruleset but does not affect matching.
	Downgrade bool

	from     pattern
	to       string
	maxGroup int
}

// NewRule compiles a rule from its source pattern and replacement template.
func NewRule(from, to string, downgrade bool) (*Rule, error) {
	p, err := compilePattern(from)
	if err != nil {
		return nil, err
	}
	template := TranslateReplacement(to)
	return &Rule{
		From:      from,
		To:        to,
		Downgrade: downgrade,
		from:      p,
		to:        template,
		maxGroup:  maxGroupRef(template),
	}, nil
}

// Apply replaces every match of the rule's pattern in url. A url the pattern
// doesn't match is returned as is.
func (r *Rule) Apply(url string) (string, error) {
	matched, err := r.from.MatchString(url)
	if err != nil {
		return "", &SubstitutionError{Pattern: r.From, URL: url, Err: err}
	}
	if !matched {
		return url, nil
	}
	if r.maxGroup > r.from.NumSubexp() {
		return "", &SubstitutionError{
			Pattern: r.From,
			URL:     url,
			Err:     fmt.Errorf("replacement %q refers to group %d of %d", r.To, r.maxGroup, r.from.NumSubexp()),
		}
	}
	out, err := r.from.ReplaceAll(url, r.to)
	if err != nil {
		return "", &SubstitutionError{Pattern: r.From, URL: url, Err: err}
	}
	return out, nil
}
