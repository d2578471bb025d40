package dom

// NamedNodeMap holds the attributes of an element in the order they were
// written. Duplicated keys are kept; lookups return the first one.
type NamedNodeMap struct {
	items []*Attribute
}

func (n *NamedNodeMap) Len() int {
	return len(n.items)
}

// Items returns the attributes in insertion order.
func (n *NamedNodeMap) Items() []*Attribute {
	return n.items
}

// GetNamedItem finds the first attribute with the given key, ignoring case.
func (n *NamedNodeMap) GetNamedItem(key string) *Attribute {
	for _, attr := range n.items {
		if attr.is(key) {
			return attr
		}
	}
	return nil
}

// GetAll returns every attribute with the given key.
func (n *NamedNodeMap) GetAll(key string) []*Attribute {
	var all []*Attribute
	for _, attr := range n.items {
		if attr.is(key) {
			all = append(all, attr)
		}
	}
	return all
}

// SetNamedItem appends the attribute.
func (n *NamedNodeMap) SetNamedItem(attr *Attribute) *Attribute {
	n.items = append(n.items, attr)
	return attr
}
