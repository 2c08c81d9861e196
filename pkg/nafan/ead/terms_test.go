package ead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nafan/nafan/pkg/nafan/store"
)

func TestExtractControlledTerms_OrderAndLinks(t *testing.T) {
	doc := mustParse(t, `<archdesc><did><unittitle>T</unittitle></did>
	<controlaccess>
		<persname authfilenumber="n79021164" source="lcnaf">Smith, Jane</persname>
		<subject>Farm life</subject>
		<corpname>State Grange</corpname>
		<persname>Smith, John</persname>
		<persname>Smith, Jane</persname>
		<geogname>Ohio</geogname>
		<genreform>Diaries</genreform>
		<controlaccess><subject>Agriculture</subject></controlaccess>
	</controlaccess>
	<dsc><c01><controlaccess><persname>Child, Only</persname></controlaccess></c01></dsc>
	</archdesc>`)

	terms, diags := ExtractControlledTerms(doc.Find("archdesc"))
	assert.Empty(t, diags)

	want := []Term{
		{Type: store.TermCorporateBody, Term: "State Grange"},
		{Type: store.TermGenreForm, Term: "Diaries"},
		{Type: store.TermPlace, Term: "Ohio"},
		{Type: store.TermPerson, Term: "Smith, Jane", Link: "n79021164"},
		{Type: store.TermPerson, Term: "Smith, John"},
		{Type: store.TermPerson, Term: "Smith, Jane"},
		{Type: store.TermSubject, Term: "Farm life"},
		{Type: store.TermSubject, Term: "Agriculture"},
	}
	assert.Equal(t, want, terms)
}

func TestExtractControlledTerms_NoWrapper(t *testing.T) {
	doc := mustParse(t, `<c01><did><unittitle>T</unittitle></did>
		<c02><controlaccess><subject>Nested</subject></controlaccess></c02></c01>`)
	terms, diags := ExtractControlledTerms(doc.Find("c01"))
	assert.Empty(t, terms)
	assert.Empty(t, diags)
}

func TestExtractControlledTerms_EmptyTermReported(t *testing.T) {
	doc := mustParse(t, `<c01><controlaccess><persname><emph>Odd</emph>, Name</persname></controlaccess></c01>`)
	terms, diags := ExtractControlledTerms(doc.Find("c01"))
	require.Len(t, terms, 1)
	assert.Empty(t, terms[0].Term)
	require.Len(t, diags, 1)
	assert.Equal(t, string(store.TermPerson), diags[0].Field)
}
