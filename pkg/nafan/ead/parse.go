package ead

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/nafan/nafan/pkg/nafan/internalerr"
)

// Parse reads an EAD document into a tree rooted at a document node.
//
// The decoder is lenient the way finding aids in the wild require: it is
// not strict about mismatched end tags, knows the HTML entity set, auto-closes
// void HTML elements and honours the declared character set. A document that
// ends with unclosed elements or holds no element at all is rejected.
func Parse(r io.Reader) (*Node, error) {
	d := xml.NewDecoder(r)
	d.Strict = false
	d.AutoClose = xml.HTMLAutoClose
	d.Entity = xml.HTMLEntity
	d.CharsetReader = charset.NewReaderLabel

	doc := &Node{Type: DocumentNode}
	cur := doc
	elements := 0

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Node{Type: ElementNode, Name: strings.ToLower(t.Name.Local)}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				el.Attrs = append(el.Attrs, Attr{Name: strings.ToLower(a.Name.Local), Value: a.Value})
			}
			cur.appendChild(el)
			cur = el
			elements++
		case xml.EndElement:
			if cur.parent != nil {
				cur = cur.parent
			}
		case xml.CharData:
			if cur == doc {
				continue
			}
			// Coalesce adjacent character data (entities split runs).
			if k := len(cur.children); k > 0 && cur.children[k-1].Type == TextNode {
				cur.children[k-1].Data += string(t)
				continue
			}
			cur.appendChild(&Node{Type: TextNode, Data: string(t)})
		}
	}

	if elements == 0 {
		return nil, fmt.Errorf("%w: no elements", internalerr.ErrParse)
	}
	if cur != doc {
		return nil, fmt.Errorf("%w: unexpected end of document inside <%s>", internalerr.ErrParse, cur.Name)
	}
	return doc, nil
}
