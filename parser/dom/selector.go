package dom

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Selectors are a small subset of CSS: type and universal selectors,
// [attr], [attr="value"], [attr!="value"], .class and #id, combined with
// the descendant (" ") and child (">") combinators. Comma separated lists
// match if any member matches.

type combinator uint8

const (
	descendant combinator = iota
	child
)

type attrMatcher struct {
	key     string
	value   string
	op      string
	present bool
}

type compound struct {
	tagName string
	attrs   []attrMatcher
	// combinator joining this compound to the one before it
	comb combinator
}

type complexSelector []compound

type selectorList []complexSelector

var selectorCache sync.Map

func compileSelector(s string) (selectorList, error) {
	if cached, ok := selectorCache.Load(s); ok {
		return cached.(selectorList), nil
	}
	sel, err := parseSelector(s)
	if err != nil {
		return nil, err
	}
	selectorCache.Store(s, sel)
	return sel, nil
}

func parseSelector(s string) (selectorList, error) {
	var list selectorList
	for _, part := range strings.Split(s, ",") {
		cs, err := parseComplex(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid selector %q", s)
		}
		list = append(list, cs)
	}
	return list, nil
}

func parseComplex(s string) (complexSelector, error) {
	if s == "" {
		return nil, errors.New("empty selector")
	}
	var (
		cs   complexSelector
		comb = descendant
		i    = 0
	)
	for i < len(s) {
		switch {
		case s[i] == ' ' || s[i] == '\t' || s[i] == '\n':
			i++
			continue
		case s[i] == '>':
			if len(cs) == 0 {
				return nil, errors.New("selector cannot start with a combinator")
			}
			comb = child
			i++
			continue
		}
		c, n, err := parseCompound(s[i:])
		if err != nil {
			return nil, err
		}
		c.comb = comb
		cs = append(cs, c)
		comb = descendant
		i += n
	}
	if comb == child {
		return nil, errors.New("selector cannot end with a combinator")
	}
	return cs, nil
}

func isNameChar(b byte) bool {
	return b == '-' || b == '_' || b == ':' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func scanName(s string) int {
	n := 0
	for n < len(s) && isNameChar(s[n]) {
		n++
	}
	return n
}

func parseCompound(s string) (compound, int, error) {
	var c compound
	i := 0
	if i < len(s) && s[i] == '*' {
		c.tagName = "*"
		i++
	} else if n := scanName(s); n > 0 {
		c.tagName = strings.ToLower(s[:n])
		i = n
	}
	for i < len(s) {
		switch s[i] {
		case '.', '#':
			n := scanName(s[i+1:])
			if n == 0 {
				return c, 0, errors.Errorf("expected name after %q", s[i])
			}
			key := "class"
			op := "~="
			if s[i] == '#' {
				key, op = "id", "="
			}
			c.attrs = append(c.attrs, attrMatcher{key: key, op: op, value: s[i+1 : i+1+n]})
			i += 1 + n
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return c, 0, errors.New("unterminated attribute selector")
			}
			m, err := parseAttrMatcher(s[i+1 : i+end])
			if err != nil {
				return c, 0, err
			}
			c.attrs = append(c.attrs, m)
			i += end + 1
		default:
			if i == 0 {
				return c, 0, errors.Errorf("unexpected %q", s[i])
			}
			return c, i, nil
		}
	}
	return c, i, nil
}

func parseAttrMatcher(s string) (attrMatcher, error) {
	for _, op := range []string{"!=", "~=", "="} {
		if idx := strings.Index(s, op); idx > 0 {
			value := strings.TrimSpace(s[idx+len(op):])
			value = strings.Trim(value, `"'`)
			return attrMatcher{key: strings.TrimSpace(s[:idx]), op: op, value: value}, nil
		}
	}
	key := strings.TrimSpace(s)
	if key == "" {
		return attrMatcher{}, errors.New("empty attribute selector")
	}
	return attrMatcher{key: key, present: true}, nil
}

func (m attrMatcher) match(n *Node) bool {
	attr := n.Attribute(m.key)
	if m.present {
		return attr != nil
	}
	value, ok := "", false
	if attr != nil {
		value, ok = attr.StaticValue()
	}
	switch m.op {
	case "!=":
		return !ok || value != m.value
	case "~=":
		return ok && containsToken(value, m.value)
	default:
		return ok && value == m.value
	}
}

func containsToken(list, token string) bool {
	for _, field := range strings.Fields(list) {
		if field == token {
			return true
		}
	}
	return false
}

func (c compound) match(n *Node) bool {
	if n.NodeType != ElementNode {
		return false
	}
	if c.tagName != "" && !n.Is(c.tagName) {
		return false
	}
	for _, m := range c.attrs {
		if !m.match(n) {
			return false
		}
	}
	return true
}

func (cs complexSelector) matchAt(n *Node, idx int) bool {
	if !cs[idx].match(n) {
		return false
	}
	if idx == 0 {
		return true
	}
	switch cs[idx].comb {
	case child:
		parent := n.ParentNode
		return parent != nil && !parent.IsRootElement() && cs.matchAt(parent, idx-1)
	default:
		for cur := n.ParentNode; cur != nil && !cur.IsRootElement(); cur = cur.ParentNode {
			if cs.matchAt(cur, idx-1) {
				return true
			}
		}
		return false
	}
}

func (l selectorList) match(n *Node) bool {
	for _, cs := range l {
		if cs.matchAt(n, len(cs)-1) {
			return true
		}
	}
	return false
}
