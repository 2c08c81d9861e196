package ead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChronology(t *testing.T) {
	doc := mustParse(t, `<ead><archdesc><did><unittitle>T</unittitle></did>
	<bioghist><chronlist>
		<chronitem><date>1890</date><event>Born in Ohio</event></chronitem>
		<chronitem><date>1910</date><eventgrp><event>Married</event><event>Moved west</event></eventgrp></chronitem>
	</chronlist></bioghist>
	<dsc><c01><bioghist><chronlist><chronitem><date>1999</date><event>Inner</event></chronitem></chronlist></bioghist></c01></dsc>
	</archdesc></ead>`)
	arch, err := Archdesc(doc)
	require.NoError(t, err)

	assert.Equal(t, []Chronitem{
		{Date: "1890", Event: "Born in Ohio"},
		{Date: "1910", Event: "Married; Moved west"},
		{Date: "1999", Event: "Inner"},
	}, Chronology(arch))
}

func TestDigitalLink_LastWins(t *testing.T) {
	doc := mustParse(t, `<ead><archdesc><did><dao href="first"/></did>
		<dsc><c01><dao href="second"/><dao/></c01></dsc></archdesc></ead>`)
	assert.Equal(t, "second", DigitalLink(doc))
	assert.Empty(t, DigitalLink(mustParse(t, `<ead/>`)))
}

func TestComponents_AnyWhereInSubtree(t *testing.T) {
	doc := mustParse(t, `<ead><archdesc><dsc>
		<c01 id="a"/>
		<odd><c01 id="b"/></odd>
	</dsc></archdesc></ead>`)
	assert.Len(t, Components(doc, 1), 2)
	assert.Empty(t, Components(doc, 2))
}

func TestScopeContentFallback(t *testing.T) {
	doc := mustParse(t, `<c01><did><unittitle>Series</unittitle></did>
		<scopecontent><head>Scope</head></scopecontent>
		<c02><scopecontent><head>Scope</head><p>Letters about <title>Walden</title>.</p></scopecontent></c02>
	</c01>`)

	got := ScopeContentFallback(doc.Find("c01"))
	assert.Equal(t, "<scopecontent><p>Letters about <i>Walden</i>.</p></scopecontent>", got)
	assert.Empty(t, ScopeContentFallback(mustParse(t, `<c01/>`)))
}
