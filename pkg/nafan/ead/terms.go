package ead

import (
	"fmt"
	"strings"

	"github.com/nafan/nafan/pkg/nafan/internalerr"
	"github.com/nafan/nafan/pkg/nafan/store"
)

// Term is one controlled access point found in a controlaccess wrapper.
type Term struct {
	Type store.TermType
	Term string
	Link string
}

// termElements maps vocabulary elements to term types, in extraction order.
var termElements = []struct {
	element string
	typ     store.TermType
}{
	{"corpname", store.TermCorporateBody},
	{"famname", store.TermFamily},
	{"function", store.TermFunction},
	{"genreform", store.TermGenreForm},
	{"geogname", store.TermPlace},
	{"occupation", store.TermOccupation},
	{"persname", store.TermPerson},
	{"subject", store.TermSubject},
	{"title", store.TermTitle},
}

// ExtractControlledTerms returns the terms of the first controlaccess wrapper
// at n's own level. Terms are grouped by kind and kept in document order
// within a kind; duplicates are kept. A term without text is still returned
// and reported.
func ExtractControlledTerms(n *Node) ([]Term, Diagnostics) {
	wrapper := n.FindScoped("controlaccess")
	if wrapper == nil {
		return nil, nil
	}

	var (
		terms []Term
		diags Diagnostics
	)
	for _, te := range termElements {
		for _, el := range wrapper.FindAll(te.element) {
			t := Term{Type: te.typ, Term: strings.TrimSpace(el.String())}
			t.Link, _ = el.Attr("authfilenumber")
			if t.Term == "" {
				diags = append(diags, Diagnostic{
					Field: string(te.typ),
					Err:   fmt.Errorf("<%s> has no direct text: %w", te.element, internalerr.ErrUnexpectedMarkup),
				})
			}
			terms = append(terms, t)
		}
	}
	return terms, diags
}
