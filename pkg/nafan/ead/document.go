package ead

import (
	"fmt"
	"strings"

	"github.com/nafan/nafan/pkg/nafan/internalerr"
)

// Chronitem is one dated event of a chronology list.
type Chronitem struct {
	Date  string
	Event string
}

// Archdesc returns the archival description element of a parsed document.
// It fails with ErrNoDescriptiveBlock when the element or its did is missing.
func Archdesc(doc *Node) (*Node, error) {
	arch := doc.Find("archdesc")
	if arch == nil {
		return nil, fmt.Errorf("%w: no <archdesc>", internalerr.ErrNoDescriptiveBlock)
	}
	if arch.Child("did") == nil {
		return nil, fmt.Errorf("%w: <archdesc> has no <did>", internalerr.ErrNoDescriptiveBlock)
	}
	return arch, nil
}

// Chronology returns every chronology item below arch, components
// included, in document order. Multiple events of one item are joined
// with "; ".
func Chronology(arch *Node) []Chronitem {
	var out []Chronitem
	for _, ci := range arch.FindAll("chronitem") {
		item := Chronitem{Date: ci.Find("date").Text()}
		var events []string
		for _, ev := range ci.FindAll("event") {
			if t := ev.Text(); t != "" {
				events = append(events, t)
			}
		}
		item.Event = strings.Join(events, "; ")
		out = append(out, item)
	}
	return out
}

// DigitalLink returns the href of the last dao element in the document.
func DigitalLink(doc *Node) string {
	link := ""
	for _, dao := range doc.FindAll("dao") {
		if href, ok := dao.Attr("href"); ok {
			link = href
		}
	}
	return link
}

// Components returns the components of the given depth below n, wherever
// they sit in its subtree.
func Components(n *Node, depth int) []*Node {
	return n.FindAll(LevelTag(depth))
}

// ScopeContentFallback renders the first scopecontent anywhere below n that
// has text, as markup with its head removed and nested titles rendered
// in italics. Unlike the field rules this search crosses component
// boundaries, so a component may borrow the content of a descendant.
func ScopeContentFallback(n *Node) string {
	for _, sc := range n.FindAll("scopecontent") {
		body := sc.Without("head")
		if body.Text() == "" {
			continue
		}
		body = body.Replace("title", func(t *Node) *Node {
			return NewElement("i", t.Text())
		})
		return body.Markup()
	}
	return ""
}
