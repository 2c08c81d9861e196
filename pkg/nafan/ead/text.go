package ead

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/nafan/nafan/pkg/nafan/internalerr"
)

// blockElements separate their text from neighbouring text with a space.
// Inline elements (emph, title, persname, ...) are joined without one.
var blockElements = map[string]bool{
	"p": true, "head": true, "list": true, "item": true, "defitem": true,
	"label": true, "lb": true, "chronlist": true, "chronitem": true,
	"eventgrp": true, "event": true, "blockquote": true, "address": true,
	"addressline": true, "table": true, "tgroup": true, "thead": true,
	"tbody": true, "row": true, "entry": true, "note": true, "unitdate": true,
	"physdesc": true, "extent": true, "dimensions": true,
	"legalstatus": true, "physloc": true, "container": true, "unittitle": true,
	"unitid": true, "origination": true, "repository": true, "abstract": true,
}

// Text returns the de-tagged text of n and all its descendants with
// whitespace runs collapsed to single spaces and the ends trimmed.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.collectText(&b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func (n *Node) collectText(b *strings.Builder) {
	switch n.Type {
	case TextNode:
		b.WriteString(n.Data)
		return
	case ElementNode:
		if blockElements[n.Name] {
			b.WriteByte(' ')
			defer b.WriteByte(' ')
		}
	}
	for _, c := range n.children {
		c.collectText(b)
	}
}

// ExtractText returns clean text for a field element.
//
// Every head below the element is dropped first, nested ones included. With allowParagraphs the full
// de-tagged text is returned. Without it, only the element's direct string
// or the direct string of its one p child is accepted; any other structure
// yields "" and an ErrUnexpectedMarkup error for the caller to record.
// A nil node yields "" and no error.
func ExtractText(n *Node, allowParagraphs bool) (string, error) {
	if n == nil {
		return "", nil
	}
	body := n.Without("head")
	if allowParagraphs {
		return body.Text(), nil
	}

	if s := strings.TrimSpace(body.String()); s != "" {
		return s, nil
	}
	elems := body.Elements()
	if len(elems) == 0 {
		return "", nil
	}
	if len(elems) == 1 && elems[0].Is("p") {
		if s := strings.TrimSpace(elems[0].String()); s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("<%s> holds %d child elements: %w", n.Name, len(elems), internalerr.ErrUnexpectedMarkup)
}

var breaks = strings.NewReplacer("\r", "", "\t", "", "\n", "")

// StripBreaks removes carriage returns, tabs and newlines from text that
// has already been de-tagged.
func StripBreaks(s string) string {
	return breaks.Replace(s)
}

// Markup serialises n back to a markup fragment.
func (n *Node) Markup() string {
	var b strings.Builder
	n.render(&b)
	return b.String()
}

func (n *Node) render(b *strings.Builder) {
	if n == nil {
		return
	}
	switch n.Type {
	case TextNode:
		b.WriteString(html.EscapeString(n.Data))
	case DocumentNode:
		for _, c := range n.children {
			c.render(b)
		}
	case ElementNode:
		b.WriteByte('<')
		b.WriteString(n.Name)
		for _, a := range n.Attrs {
			b.WriteByte(' ')
			b.WriteString(a.Name)
			b.WriteString(`="`)
			b.WriteString(html.EscapeString(a.Value))
			b.WriteByte('"')
		}
		b.WriteByte('>')
		for _, c := range n.children {
			c.render(b)
		}
		b.WriteString("</")
		b.WriteString(n.Name)
		b.WriteByte('>')
	}
}
