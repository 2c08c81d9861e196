package ead

import (
	"strings"
)

// NodeType distinguishes the kinds of tree nodes.
type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
)

// Attr is a single element attribute. Names are lower-cased local names.
type Attr struct {
	Name  string
	Value string
}

// Node is one node of a parsed markup tree. A parsed tree is never mutated;
// Without and Replace return detached copies.
type Node struct {
	Type     NodeType
	Name     string
	Data     string
	Attrs    []Attr
	parent   *Node
	children []*Node
}

// Parent returns the enclosing node, or nil for a tree or copy root.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// Children returns the node's children. The slice must not be modified.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	return n.children
}

// Elements returns the element children of n.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children() {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Is reports whether n is an element with the given name.
func (n *Node) Is(name string) bool {
	return n != nil && n.Type == ElementNode && n.Name == name
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Child returns the first direct child element with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children() {
		if c.Is(name) {
			return c
		}
	}
	return nil
}

// Find returns the first descendant element named name, in document order.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.walk(false, func(c *Node) bool {
		if c.Is(name) {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAll returns every descendant element named name, in document order.
func (n *Node) FindAll(name string) []*Node {
	var out []*Node
	n.walk(false, func(c *Node) bool {
		if c.Is(name) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// FindScoped is Find restricted to n's own level: it never enters a nested
// component (c, c01..c99) or the dsc wrapper.
func (n *Node) FindScoped(name string) *Node {
	var found *Node
	n.walk(true, func(c *Node) bool {
		if c.Is(name) {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAllScoped is FindAll restricted to n's own level.
func (n *Node) FindAllScoped(name string) []*Node {
	var out []*Node
	n.walk(true, func(c *Node) bool {
		if c.Is(name) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// walk visits the descendants of n in document order until visit returns false.
func (n *Node) walk(scoped bool, visit func(*Node) bool) bool {
	for _, c := range n.Children() {
		if c.Type != ElementNode {
			continue
		}
		if scoped && IsComponent(c.Name) {
			continue
		}
		if !visit(c) {
			return false
		}
		if !c.walk(scoped, visit) {
			return false
		}
	}
	return true
}

// IsComponent reports whether name tags a nested component or the
// description-of-subordinates wrapper.
func IsComponent(name string) bool {
	if name == "dsc" || name == "c" {
		return true
	}
	if len(name) < 2 || len(name) > 3 || name[0] != 'c' {
		return false
	}
	for _, r := range name[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String returns the direct string value of n: the data of a text node, the
// data of an element's single text child, or the string of its single element
// child. Whitespace-only text children are ignored when counting. It returns
// "" when n has no children or several.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	if n.Type == TextNode {
		return n.Data
	}
	var only *Node
	for _, c := range n.children {
		if c.Type == TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if only != nil {
			return ""
		}
		only = c
	}
	if only == nil {
		return ""
	}
	return only.String()
}

// Without returns a detached copy of n from which every descendant element
// named name is removed, at any depth. n itself is left untouched.
func (n *Node) Without(name string) *Node {
	if n == nil {
		return nil
	}
	var strip func(*Node, *Node) *Node
	strip = func(src, parent *Node) *Node {
		dst := &Node{Type: src.Type, Name: src.Name, Data: src.Data, Attrs: src.Attrs, parent: parent}
		for _, c := range src.children {
			if c.Is(name) {
				continue
			}
			dst.children = append(dst.children, strip(c, dst))
		}
		return dst
	}
	return strip(n, nil)
}

// Replace returns a detached copy of n in which every descendant element
// named name is replaced by the result of fn.
func (n *Node) Replace(name string, fn func(*Node) *Node) *Node {
	if n == nil {
		return nil
	}
	var rewrite func(*Node, *Node) *Node
	rewrite = func(src, parent *Node) *Node {
		if src.Is(name) {
			return fn(src).clone(parent)
		}
		dst := &Node{Type: src.Type, Name: src.Name, Data: src.Data, Attrs: src.Attrs, parent: parent}
		for _, c := range src.children {
			dst.children = append(dst.children, rewrite(c, dst))
		}
		return dst
	}
	root := &Node{Type: n.Type, Name: n.Name, Data: n.Data, Attrs: n.Attrs}
	for _, c := range n.children {
		root.children = append(root.children, rewrite(c, root))
	}
	return root
}

func (n *Node) clone(parent *Node) *Node {
	dst := &Node{Type: n.Type, Name: n.Name, Data: n.Data, Attrs: n.Attrs, parent: parent}
	for _, c := range n.children {
		dst.children = append(dst.children, c.clone(dst))
	}
	return dst
}

// NewElement builds a detached element with the given text content.
func NewElement(name, text string) *Node {
	el := &Node{Type: ElementNode, Name: name}
	if text != "" {
		el.children = []*Node{{Type: TextNode, Data: text, parent: el}}
	}
	return el
}

func (n *Node) appendChild(c *Node) {
	c.parent = n
	n.children = append(n.children, c)
}
