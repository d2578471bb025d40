package dom

import (
	"strconv"
	"strings"
)

// Document owns the synthetic root of a parsed source.
type Document struct {
	Root *Node
	// Doctype is the value of the doctype declaration, e.g. "html".
	Doctype string
}

// NewDocument creates an empty document rooted at loc.
func NewDocument(loc Location) *Document {
	return &Document{
		Root: &Node{
			NodeType: DocumentNode,
			NodeName: "#document",
			Location: loc,
		},
	}
}

// VisitDepthFirst calls fn for every element, parents before children.
func (d *Document) VisitDepthFirst(fn func(*Node)) {
	d.Root.Visit(fn)
}

// Elements returns every element in document order.
func (d *Document) Elements() []*Node {
	var all []*Node
	d.VisitDepthFirst(func(n *Node) {
		all = append(all, n)
	})
	return all
}

func serializeNode(node *Node, indent int) string {
	switch node.NodeType {
	case ElementNode:
		e := "<" + node.NodeName + ">"
		if node.State != Open && node.State != EndTag {
			e += " (" + node.State.String() + ")"
		}
		spaces := "| " + strings.Repeat("  ", indent)
		for _, attr := range node.Attributes.Items() {
			e += "\n" + spaces + attr.Key
			switch {
			case attr.Dynamic != nil:
				e += "={{" + attr.Dynamic.Expr + "}}"
			case attr.Value != nil:
				e += "=" + strconv.Quote(*attr.Value)
			}
		}
		return e
	case TextNode:
		return strconv.Quote(node.Data)
	default:
		return "#document"
	}
}

func (node *Node) serialize(indent int) string {
	ser := serializeNode(node, indent) + "\n"
	if node.NodeType != DocumentNode {
		ser = "| " + strings.Repeat("  ", indent-1) + ser
	}
	for _, child := range node.ChildNodes {
		ser += child.serialize(indent + 1)
	}
	return ser
}

// String renders the subtree one node per line, children indented below
// their parent.
func (node *Node) String() string {
	return strings.TrimRight(node.serialize(0), "\n")
}

func (d *Document) String() string {
	return d.Root.String()
}

// ActiveStack is the parser's record of currently open elements. It is
// only used while a document is being built and is never part of the tree.
type ActiveStack struct {
	root  *Node
	nodes []*Node
}

func NewActiveStack(root *Node) *ActiveStack {
	return &ActiveStack{root: root}
}

// Active returns the current node, the root when nothing is open.
func (s *ActiveStack) Active() *Node {
	if len(s.nodes) == 0 {
		return s.root
	}
	return s.nodes[len(s.nodes)-1]
}

func (s *ActiveStack) Push(n *Node) {
	s.nodes = append(s.nodes, n)
}

// Pop removes the current node. The root is never popped.
func (s *ActiveStack) Pop() *Node {
	if len(s.nodes) == 0 {
		return nil
	}
	top := s.nodes[len(s.nodes)-1]
	s.nodes = s.nodes[:len(s.nodes)-1]
	return top
}

func (s *ActiveStack) Len() int {
	return len(s.nodes)
}
