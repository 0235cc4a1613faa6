package httpsaudit

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

// rulesetBuilder accumulates the children of a <ruleset> element.
type rulesetBuilder struct {
	targets    []string
	exclusions []string
	rules      []*Rule
}

// A childParser consumes one child element of a ruleset.
type childParser func(b *rulesetBuilder, el *etree.Element) error

var childParsers = map[string]childParser{
	"rule":         parseRule,
	"securecookie": parseSecureCookie,
	"target":       parseTarget,
	"exclusion":    parseExclusion,
	"test":         parseTest,
}

// ParseRuleset parses a single XML ruleset document.
func ParseRuleset(data []byte) (*Ruleset, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &DocumentSyntaxError{Cause: err.Error()}
	}
	root := doc.Root()
	if root == nil {
		return nil, &DocumentSyntaxError{Cause: "no root element"}
	}
	return ParseElement(root)
}

// ParseElement builds a Ruleset from a <ruleset> element. Unknown elements and
// attributes are rejected rather than ignored.
func ParseElement(root *etree.Element) (*Ruleset, error) {
	if root.FullTag() != "ruleset" {
		return nil, syntaxError(root, "expected <ruleset>, got <%s>", root.FullTag())
	}
	attrs, err := readAttrs(root, "name", "platform", "default_off")
	if err != nil {
		return nil, err
	}
	name := attrs["name"]
	if name == "" {
		return nil, syntaxError(root, "missing name")
	}
	off, hasOff := attrs["default_off"]

	b := &rulesetBuilder{}
	for _, child := range root.ChildElements() {
		parse, ok := childParsers[child.FullTag()]
		if !ok {
			return nil, syntaxError(child, "unknown element <%s>", child.FullTag())
		}
		if len(child.ChildElements()) > 0 {
			return nil, syntaxError(child, "unexpected children of <%s>", child.FullTag())
		}
		if err := parse(b, child); err != nil {
			return nil, err
		}
	}
	return newRuleset(name, attrs["platform"], hasOff && flag(off), b.targets, b.exclusions, b.rules)
}

func parseRule(b *rulesetBuilder, el *etree.Element) error {
	attrs, err := readAttrs(el, "from", "to", "downgrade")
	if err != nil {
		return err
	}
	from, hasFrom := attrs["from"]
	to, hasTo := attrs["to"]
	if !hasFrom || !hasTo {
		return syntaxError(el, "rule needs both from and to")
	}
	downgrade, hasDowngrade := attrs["downgrade"]
	r, err := NewRule(from, to, hasDowngrade && flag(downgrade))
	if err != nil {
		return err
	}
	b.rules = append(b.rules, r)
	return nil
}

func parseSecureCookie(b *rulesetBuilder, el *etree.Element) error {
	_, err := readAttrs(el, "host", "name")
	return err
}

func parseTarget(b *rulesetBuilder, el *etree.Element) error {
	attrs, err := readAttrs(el, "host")
	if err != nil {
		return err
	}
	host, ok := attrs["host"]
	if !ok {
		return syntaxError(el, "target needs a host")
	}
	b.targets = append(b.targets, host)
	return nil
}

func parseExclusion(b *rulesetBuilder, el *etree.Element) error {
	attrs, err := readAttrs(el, "pattern")
	if err != nil {
		return err
	}
	p, ok := attrs["pattern"]
	if !ok {
		return syntaxError(el, "exclusion needs a pattern")
	}
	b.exclusions = append(b.exclusions, p)
	return nil
}

func parseTest(b *rulesetBuilder, el *etree.Element) error {
	attrs, err := readAttrs(el, "url")
	if err != nil {
		return err
	}
	if _, ok := attrs["url"]; !ok {
		return syntaxError(el, "test needs a url")
	}
	return nil
}

// readAttrs returns the element's attributes, failing on any key not in
// allowed.
func readAttrs(el *etree.Element, allowed ...string) (map[string]string, error) {
	attrs := make(map[string]string, len(el.Attr))
	for _, a := range el.Attr {
		key := a.FullKey()
		known := false
		for _, k := range allowed {
			if k == key {
				known = true
				break
			}
		}
		if !known {
			return nil, syntaxError(el, "unexpected attribute %q on <%s>", key, el.FullTag())
		}
		attrs[key] = a.Value
	}
	return attrs, nil
}

// flag interprets a boolean-ish attribute. Free text such as a default_off
// reason counts as true.
func flag(v string) bool {
	if v == "" {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return true
}

func syntaxError(el *etree.Element, format string, args ...interface{}) error {
	return &DocumentSyntaxError{
		Cause:    fmt.Sprintf(format, args...),
		Fragment: fragment(el),
	}
}

// fragment serializes el without its children.
func fragment(el *etree.Element) string {
	shallow := etree.NewElement(el.FullTag())
	for _, a := range el.Attr {
		shallow.CreateAttr(a.FullKey(), a.Value)
	}
	doc := etree.NewDocument()
	doc.SetRoot(shallow)
	s, err := doc.WriteToString()
	if err != nil {
		return "<" + el.FullTag() + ">"
	}
	return s
}
