package ead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nafan/nafan/pkg/nafan/store"
)

const collection = `<ead><archdesc level="collection">
  <did>
    <unittitle>Smith Family Papers</unittitle>
    <unitdate type="inclusive">1890-1960</unitdate>
    <unitdate type="bulk">1900-1920</unitdate>
    <unitid>MS 12</unitid>
    <unitid>ark-12</unitid>
    <origination label="Creator"><persname>Smith, Jane</persname></origination>
    <origination><corpname>Smith &amp; Sons</corpname></origination>
    <physdesc><extent>3 linear feet</extent><extent>6 boxes</extent></physdesc>
    <repository><corpname>State Archives</corpname></repository>
    <abstract>Letters and diaries of the Smith family.</abstract>
    <langmaterial>Materials in <language langcode="eng">English</language>.</langmaterial>
    <container type="box">1</container>
    <container type="folder">2</container>
  </did>
  <accessrestrict><head>Access</head><p>Open for research.</p></accessrestrict>
  <userestrict><p>Copyright retained.</p></userestrict>
  <prefercite><p>Smith Family Papers, State Archives</p></prefercite>
  <bioghist><p>The Smiths farmed in Ohio.</p></bioghist>
  <scopecontent><p>Correspondence and diaries.</p></scopecontent>
  <custodhist><p>Held by the family.</p></custodhist>
  <acqinfo><p>Gift, 1999.</p></acqinfo>
  <processinfo><p>Processed 2001.</p></processinfo>
  <processinfo><list><item>no paragraph</item></list></processinfo>
  <processinfo><p>Revised 2010.</p></processinfo>
  <originalsloc><p>Originals in Ohio.</p></originalsloc>
  <dsc>
    <c01><did><unittitle>Series 1</unittitle><unitdate>1901</unitdate></did>
      <accessrestrict><p>Closed.</p></accessrestrict>
    </c01>
  </dsc>
</archdesc></ead>`

func TestParseDescriptiveBlock_Archdesc(t *testing.T) {
	arch, err := Archdesc(mustParse(t, collection))
	require.NoError(t, err)

	d, diags := ParseDescriptiveBlock(arch, store.LevelArchdesc)

	assert.Equal(t, "Smith Family Papers", d.Title)
	assert.Equal(t, "1890-1960 [bulk 1900-1920]", d.Date)
	assert.Equal(t, "MS 12; ark-12; ", d.ReferenceCode)
	assert.Equal(t, "Smith, Jane Smith & Sons", d.Creator)
	assert.Equal(t, "3 linear feet; 6 boxes; ", d.Extent)
	assert.Equal(t, "State Archives", d.IntraRepository)
	assert.Equal(t, "Letters and diaries of the Smith family.", d.Abstract)
	assert.Equal(t, "Materials in English.", d.Languages)
	assert.Equal(t, "box 1 folder 2 ", d.Container)
	assert.Equal(t, "Open for research.", d.GoverningAccess)
	assert.Equal(t, "Copyright retained.", d.Rights)
	assert.Equal(t, "Smith Family Papers, State Archives", d.Citation)
	assert.Equal(t, "The Smiths farmed in Ohio.", d.Bioghist)
	assert.Equal(t, "Correspondence and diaries.", d.ScopeAndContent)
	assert.Equal(t, "Held by the family.", d.Custodhist)
	assert.Equal(t, "Gift, 1999.", d.Acqinfo)
	assert.Equal(t, "Processed 2001. Revised 2010.", d.Processinfo)
	assert.Equal(t, "Originals in Ohio.", d.OriginalsLocation)

	require.Len(t, diags, 1)
	assert.Equal(t, "processinfo", diags[0].Field)
	assert.Equal(t, store.LevelArchdesc, diags[0].Level)
}

func TestParseDescriptiveBlock_Deterministic(t *testing.T) {
	arch, err := Archdesc(mustParse(t, collection))
	require.NoError(t, err)

	first, _ := ParseDescriptiveBlock(arch, store.LevelArchdesc)
	second, _ := ParseDescriptiveBlock(arch, store.LevelArchdesc)
	assert.Equal(t, first, second)
}

func TestParseDescriptiveBlock_DoesNotLeakChildFields(t *testing.T) {
	doc := mustParse(t, `<c01>
		<c02><did><unittitle>Nested Title</unittitle><unitdate>1950</unitdate></did>
			<accessrestrict><p>Restricted.</p></accessrestrict>
		</c02>
	</c01>`)

	d, _ := ParseDescriptiveBlock(doc.Find("c01"), "c01")
	assert.Equal(t, store.DefaultTitle, d.Title)
	assert.Empty(t, d.Date)
	assert.Empty(t, d.GoverningAccess)
}

func TestParseDescriptiveBlock_CreatorKeepsDecodedText(t *testing.T) {
	arch, err := Archdesc(mustParse(t, `<ead><archdesc><did>
		<origination>&lt;Smith&gt; &amp;amp; Co</origination>
	</did></archdesc></ead>`))
	require.NoError(t, err)

	d, diags := ParseDescriptiveBlock(arch, store.LevelArchdesc)
	assert.Empty(t, diags)
	assert.Equal(t, "<Smith> &amp; Co", d.Creator)
}

func TestParseDescriptiveBlock_TitleGuard(t *testing.T) {
	doc := mustParse(t, `<c01><did><unittitle>Own Title</unittitle></did></c01>`)
	d, _ := ParseDescriptiveBlock(doc.Find("c01"), "c01")
	assert.Equal(t, "Own Title", d.Title)

	// A unittitle wrapped in a note is not the component's own.
	doc = mustParse(t, `<c01><did><note><unittitle>Stray</unittitle></note></did></c01>`)
	d, _ = ParseDescriptiveBlock(doc.Find("c01"), "c01")
	assert.Equal(t, store.DefaultTitle, d.Title)
}

func TestParseDescriptiveBlock_TitleFallbacks(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"direct string", `<c01><did><unittitle> Letters </unittitle></did></c01>`, "Letters"},
		{"leading text", `<c01><did><unittitle>Letters, <unitdate>1901</unitdate></unittitle></did></c01>`, "Letters,"},
		{"leading element", `<c01><did><unittitle><emph>Diaries</emph> and notes</unittitle></did></c01>`, "Diaries"},
		{"nested title", `<c01><did><unittitle><emph><title>Ledger</title> vol. 2</emph> copy</unittitle></did></c01>`, "Ledger"},
		{"missing", `<c01><did><unitdate>1901</unitdate></did></c01>`, store.DefaultTitle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := ParseDescriptiveBlock(mustParse(t, tt.src).Find("c01"), "c01")
			assert.Equal(t, tt.want, d.Title)
		})
	}
}

func TestParseDescriptiveBlock_BulkDateOnly(t *testing.T) {
	doc := mustParse(t, `<archdesc><did><unittitle>Smith Papers</unittitle><unitdate type="bulk">1950-1960</unitdate></did></archdesc>`)
	d, diags := ParseDescriptiveBlock(doc.Find("archdesc"), store.LevelArchdesc)
	assert.Equal(t, "[bulk 1950-1960]", d.Date)
	assert.Empty(t, diags)
}

func TestParseDescriptiveBlock_LanguageCodes(t *testing.T) {
	doc := mustParse(t, `<c01><did><unittitle>T</unittitle>
		<langmaterial><language langcode="fre"/><language>German</language></langmaterial>
	</did></c01>`)
	d, _ := ParseDescriptiveBlock(doc.Find("c01"), "c01")
	assert.Equal(t, "German", d.Languages)

	doc = mustParse(t, `<c01><did><unittitle>T</unittitle>
		<langmaterial><language langcode="fre"/></langmaterial>
	</did></c01>`)
	d, _ = ParseDescriptiveBlock(doc.Find("c01"), "c01")
	assert.Equal(t, "fre", d.Languages)
}

func TestParseDescriptiveBlock_CitationDiagnostic(t *testing.T) {
	doc := mustParse(t, `<c01><did><unittitle>T</unittitle></did>
		<prefercite><p>One</p><p>Two</p></prefercite>
	</c01>`)
	d, diags := ParseDescriptiveBlock(doc.Find("c01"), "c01")
	assert.Empty(t, d.Citation)
	assert.Equal(t, []string{"citation"}, diags.Fields())
}

func TestParseDescriptiveBlock_Nil(t *testing.T) {
	d, diags := ParseDescriptiveBlock(nil, "c01")
	assert.Equal(t, store.DefaultTitle, d.Title)
	assert.Empty(t, diags)
}

func TestBelongsToLevel(t *testing.T) {
	doc := mustParse(t, `<c01><did><unittitle>A</unittitle></did><unittitle>B</unittitle>
		<c02><did><unittitle>C</unittitle></did></c02></c01>`)
	titles := doc.FindAll("unittitle")
	require.Len(t, titles, 3)

	assert.True(t, BelongsToLevel(titles[0], "c01"))
	assert.True(t, BelongsToLevel(titles[1], "c01"))
	assert.False(t, BelongsToLevel(titles[2], "c01"))
	assert.True(t, BelongsToLevel(titles[2], "c02"))
	assert.False(t, BelongsToLevel(nil, "c01"))
}
