package dom

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/heathj/htmllint/meta"
)

type NodeType uint16

const (
	ElementNode NodeType = iota + 1
	TextNode
	DocumentNode
)

// OpenState records how an element was (or was not) closed.
type OpenState uint8

const (
	// Open elements are still on the active-node stack or were closed by
	// the end of the document.
	Open OpenState = iota
	// EndTag is set on nodes built from an explicit end tag.
	EndTag
	// Void elements never have an end tag.
	Void
	// SelfClosed elements were written as <foo/>.
	SelfClosed
	// ImplicitClosed elements were terminated by a sibling or ancestor tag.
	ImplicitClosed
)

var openStateNames = map[OpenState]string{
	Open:           "open",
	EndTag:         "end-tag",
	Void:           "void",
	SelfClosed:     "self-closed",
	ImplicitClosed: "implicit-closed",
}

func (s OpenState) String() string {
	return openStateNames[s]
}

// Node is an element, a text node or the document root. Children are owned
// by their parent; ParentNode is only used for upward queries.
type Node struct {
	NodeType   NodeType
	NodeName   string
	Data       string
	Location   Location
	State      OpenState
	Meta       *meta.Element
	Attributes NamedNodeMap
	ParentNode *Node
	ChildNodes []*Node
}

// NewElement creates a detached element node.
func NewElement(tagName string, m *meta.Element, state OpenState, loc Location) *Node {
	return &Node{
		NodeType: ElementNode,
		NodeName: strings.ToLower(tagName),
		Meta:     m,
		State:    state,
		Location: loc,
	}
}

// NewTextNode creates a detached text node.
func NewTextNode(text string, loc Location) *Node {
	return &Node{
		NodeType: TextNode,
		NodeName: "#text",
		Data:     text,
		Location: loc,
	}
}

// TagName is the lowercased tag name, empty for non-element nodes.
func (n *Node) TagName() string {
	if n.NodeType != ElementNode {
		return ""
	}
	return n.NodeName
}

// Is tests the tag name. "*" matches any element.
func (n *Node) Is(tagName string) bool {
	if n.NodeType != ElementNode {
		return false
	}
	return tagName == "*" || strings.EqualFold(n.NodeName, tagName)
}

// IsRootElement returns true for the synthetic document root.
func (n *Node) IsRootElement() bool {
	return n.NodeType == DocumentNode
}

// VoidElement returns true when metadata declares the element void.
func (n *Node) VoidElement() bool {
	return n.Meta != nil && n.Meta.Void
}

// AnnotatedName renders the tag for messages, e.g. "<div>".
func (n *Node) AnnotatedName() string {
	return "<" + n.NodeName + ">"
}

// AppendChild attaches on as the last child of n.
// https://dom.spec.whatwg.org/#concept-node-append
func (n *Node) AppendChild(on *Node) *Node {
	on.ParentNode = n
	n.ChildNodes = append(n.ChildNodes, on)
	return on
}

// AppendText adds text, merging with a trailing text node.
func (n *Node) AppendText(text string, loc Location) {
	if last := len(n.ChildNodes) - 1; last >= 0 && n.ChildNodes[last].NodeType == TextNode {
		prev := n.ChildNodes[last]
		prev.Data += text
		prev.Location.Size = loc.End() - prev.Location.Offset
		return
	}
	n.AppendChild(NewTextNode(text, loc))
}

// ChildElements returns the element children in document order; text is
// excluded.
func (n *Node) ChildElements() []*Node {
	var elements []*Node
	for _, child := range n.ChildNodes {
		if child.NodeType == ElementNode {
			elements = append(elements, child)
		}
	}
	return elements
}

// TextContent concatenates the raw text of all descendants.
func (n *Node) TextContent() string {
	if n.NodeType == TextNode {
		return n.Data
	}
	var sb strings.Builder
	for _, child := range n.ChildNodes {
		sb.WriteString(child.TextContent())
	}
	return sb.String()
}

// DecodedTextContent is TextContent with character references resolved.
func (n *Node) DecodedTextContent() string {
	return html.UnescapeString(n.TextContent())
}

// SetAttribute appends an attribute to the element.
func (n *Node) SetAttribute(attr *Attribute) *Attribute {
	return n.Attributes.SetNamedItem(attr)
}

// Attribute returns the first attribute with the key or nil.
func (n *Node) Attribute(key string) *Attribute {
	return n.Attributes.GetNamedItem(key)
}

func (n *Node) HasAttribute(key string) bool {
	return n.Attributes.GetNamedItem(key) != nil
}

// AttributeValue returns the static value of an attribute. ok is false when
// the attribute is missing, has no value or is dynamic.
func (n *Node) AttributeValue(key string) (string, bool) {
	attr := n.Attributes.GetNamedItem(key)
	if attr == nil {
		return "", false
	}
	return attr.StaticValue()
}

// HasAncestor returns true if any ancestor element has the tag name.
func (n *Node) HasAncestor(tagName string) bool {
	for cur := n.ParentNode; cur != nil && !cur.IsRootElement(); cur = cur.ParentNode {
		if cur.Is(tagName) {
			return true
		}
	}
	return false
}

// Closest returns the node itself or its nearest ancestor matching the
// selector, or nil when none matches or the selector is invalid.
func (n *Node) Closest(selector string) *Node {
	sel, err := compileSelector(selector)
	if err != nil {
		return nil
	}
	for cur := n; cur != nil && !cur.IsRootElement(); cur = cur.ParentNode {
		if sel.match(cur) {
			return cur
		}
	}
	return nil
}

// Matches tests the node against a selector.
func (n *Node) Matches(selector string) bool {
	sel, err := compileSelector(selector)
	if err != nil {
		return false
	}
	return sel.match(n)
}

// Visit calls fn for every descendant element, parents before children.
func (n *Node) Visit(fn func(*Node)) {
	for _, child := range n.ChildNodes {
		if child.NodeType != ElementNode {
			continue
		}
		fn(child)
		child.Visit(fn)
	}
}
