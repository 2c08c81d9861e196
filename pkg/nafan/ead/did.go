package ead

import (
	"fmt"
	"strings"

	"github.com/nafan/nafan/pkg/nafan/internalerr"
	"github.com/nafan/nafan/pkg/nafan/store"
)

// Diagnostic reports a field that could not be extracted. The field is left
// empty (or partially filled for list fields) and processing continues.
type Diagnostic struct {
	Level string
	Field string
	Err   error
}

func (d Diagnostic) Error() string {
	if d.Level == "" {
		return fmt.Sprintf("%s: %v", d.Field, d.Err)
	}
	return fmt.Sprintf("%s/%s: %v", d.Level, d.Field, d.Err)
}

func (d Diagnostic) Unwrap() error { return d.Err }

// Diagnostics collects the field-local failures of one extraction.
type Diagnostics []Diagnostic

// Fields returns the names of the fields that failed, in order.
func (ds Diagnostics) Fields() []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Field
	}
	return out
}

type fieldRunner struct {
	level string
	diags Diagnostics
}

func (r *fieldRunner) report(field string, err error) {
	r.diags = append(r.diags, Diagnostic{Level: r.level, Field: field, Err: err})
}

// run evaluates one field rule. A failing or panicking rule leaves the
// field empty.
func (r *fieldRunner) run(field string, rule func() (string, error)) (out string) {
	defer func() {
		if p := recover(); p != nil {
			out = ""
			r.report(field, fmt.Errorf("%v: %w", p, internalerr.ErrUnexpectedMarkup))
		}
	}()
	s, err := rule()
	if err != nil {
		r.report(field, err)
		return ""
	}
	return s
}

// ParseDescriptiveBlock extracts the descriptive fields of n for the given
// level tag ("archdesc", "c01", ...).
//
// Identification fields are read from n's did child (or n itself when it has
// none). Narrative fields are read from the did first and then from n, which
// lets the archdesc carry its access, use, history and content notes outside
// the did. No lookup descends into a nested component.
func ParseDescriptiveBlock(n *Node, level string) (store.Description, Diagnostics) {
	r := &fieldRunner{level: level}
	if n == nil {
		return store.Description{Title: store.DefaultTitle}, nil
	}
	block := n.Child("did")
	if block == nil {
		block = n
	}

	lookup := func(name string) *Node {
		if el := block.FindScoped(name); el != nil {
			return el
		}
		if block != n {
			return n.FindScoped(name)
		}
		return nil
	}
	lookupAll := func(name string) []*Node {
		if els := block.FindAllScoped(name); len(els) > 0 {
			return els
		}
		if block != n {
			return n.FindAllScoped(name)
		}
		return nil
	}
	narrative := func(name string, allowParagraphs bool) func() (string, error) {
		return func() (string, error) {
			return ExtractText(lookup(name), allowParagraphs)
		}
	}

	var d store.Description
	d.Title = r.run("title", func() (string, error) { return title(block, level), nil })
	if d.Title == "" {
		d.Title = store.DefaultTitle
	}
	d.Date = r.run("date", func() (string, error) { return dates(block), nil })
	d.Container = r.run("container", func() (string, error) { return containers(block), nil })
	d.IntraRepository = r.run("intra_repository", func() (string, error) {
		repo := block.FindScoped("repository")
		if !BelongsToLevel(repo, level) {
			return "", nil
		}
		return repo.Find("corpname").Text(), nil
	})
	d.ReferenceCode = r.run("reference_code", func() (string, error) { return suffixed(block.FindAllScoped("unitid")), nil })
	d.Creator = r.run("creator", func() (string, error) {
		var parts []string
		for _, o := range block.FindAllScoped("origination") {
			parts = append(parts, o.Text())
		}
		return strings.TrimSpace(StripBreaks(strings.Join(parts, " "))), nil
	})
	d.Extent = r.run("extent", func() (string, error) { return suffixed(block.FindAllScoped("extent")), nil })
	d.Abstract = r.run("abstract", narrative("abstract", true))
	d.Languages = r.run("languages", func() (string, error) { return languages(block), nil })
	d.GoverningAccess = r.run("governing_access", narrative("accessrestrict", true))
	d.Rights = r.run("rights", narrative("userestrict", true))
	d.Citation = r.run("citation", narrative("prefercite", false))
	d.Bioghist = r.run("bioghist", narrative("bioghist", true))
	d.ScopeAndContent = r.run("scope_and_content", narrative("scopecontent", true))
	d.Custodhist = r.run("custodhist", narrative("custodhist", true))
	d.Acqinfo = r.run("acqinfo", narrative("acqinfo", true))
	d.OriginalsLocation = r.run("originals_location", narrative("originalsloc", true))
	d.Note = r.run("note", narrative("note", true))
	d.Processinfo = r.run("processinfo", func() (string, error) {
		var parts []string
		for i, entry := range lookupAll("processinfo") {
			s := strings.TrimSpace(entry.Find("p").String())
			if s == "" {
				r.report("processinfo", fmt.Errorf("entry %d has no paragraph text: %w", i, internalerr.ErrUnexpectedMarkup))
				continue
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " "), nil
	})

	return d, r.diags
}

// title picks the first unittitle declared by level and falls back through
// its first child and a nested title before giving up.
func title(block *Node, level string) string {
	var t *Node
	for _, c := range block.FindAllScoped("unittitle") {
		if BelongsToLevel(c, level) {
			t = c
			break
		}
	}
	if t == nil {
		return ""
	}
	if s := strings.TrimSpace(t.String()); s != "" {
		return s
	}
	for _, c := range t.Children() {
		if c.Type == TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if s := strings.TrimSpace(c.String()); s != "" {
			return s
		}
		break
	}
	return strings.TrimSpace(t.Find("title").String())
}

func dates(block *Node) string {
	var b strings.Builder
	for _, d := range block.FindAllScoped("unitdate") {
		v := d.Text()
		if v == "" {
			continue
		}
		if typ, _ := d.Attr("type"); strings.EqualFold(typ, "bulk") {
			b.WriteString(" [bulk " + v + "]")
			continue
		}
		b.WriteString(" " + v)
	}
	return strings.TrimSpace(b.String())
}

func containers(block *Node) string {
	var b strings.Builder
	for _, c := range block.FindAllScoped("container") {
		if typ, ok := c.Attr("type"); ok {
			b.WriteString(typ)
		}
		if v := c.Text(); v != "" {
			b.WriteString(" " + v + " ")
		}
	}
	return b.String()
}

// suffixed joins the text of els, each followed by "; ".
func suffixed(els []*Node) string {
	var b strings.Builder
	for _, el := range els {
		if v := el.Text(); v != "" {
			b.WriteString(v + "; ")
		}
	}
	return b.String()
}

func languages(block *Node) string {
	var parts []string
	for _, lm := range block.FindAllScoped("langmaterial") {
		if v := lm.Text(); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	for _, l := range block.FindAllScoped("language") {
		if v := l.Text(); v != "" {
			parts = append(parts, v)
		} else if code, ok := l.Attr("langcode"); ok && code != "" {
			parts = append(parts, code)
		}
	}
	return strings.Join(parts, " ")
}
