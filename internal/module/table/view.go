package table

import (
	"context"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/simp-lee/datatable/internal/dataset"
	"github.com/simp-lee/datatable/internal/pkg"
	"github.com/simp-lee/datatable/internal/query"
	"github.com/simp-lee/datatable/internal/urlstate"
)

var titleCaser = cases.Title(language.English)

// Label turns a camelCase field name into a column heading, for example
// "estimatedHours" into "Estimated Hours".
func Label(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return titleCaser.String(b.String())
}

// Column is one table heading. SortURL toggles the column's order.
type Column struct {
	Name     string
	Label    string
	Sortable bool
	SortDir  string
	SortURL  string
}

// Row is one rendered record. Toggle is the selectedIds value that flips the
// row's selection, comma separated and empty when nothing stays selected.
type Row struct {
	ID       int
	Selected bool
	Toggle   string
	Cells    []string
}

// TextFilter is a free text or numeric input of the toolbar.
type TextFilter struct {
	Name  string
	Label string
	Value string
	Type  string
}

// FacetOption is one checkbox of a facet filter.
type FacetOption struct {
	Value   string
	Count   int
	Checked bool
}

// Facet is a tags filter with per-value counts.
type Facet struct {
	Name    string
	Label   string
	Options []FacetOption
}

// PageLink is one numbered page of the pager.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}

// Pager describes the pagination controls.
type Pager struct {
	PageIndex  int
	PageCount  int
	PageSize   int
	TotalCount int
	First      int
	Last       int
	PrevURL    string
	NextURL    string
	Pages      []PageLink
	PageSizes  []int
}

// View is the data of the table page template.
type View struct {
	Name        string
	Title       string
	Path        string
	Search      string
	Columns     []Column
	Rows        []Row
	TextFilters []TextFilter
	Facets      []Facet
	HasDate     bool
	From        string
	To          string
	Filtered    bool
	Pager       Pager
	CSRFToken   string
}

// pageSizes are offered by the page size selector.
var pageSizes = []int{10, 20, 30, 40, 50}

// buildView renders page and facets under the state decoded from search.
// Links are computed with the synchronizer so that they carry the canonical
// search a merge would navigate to.
func buildView[T any](ctx context.Context, src *dataset.Source[T], path string, search url.Values, page query.Page[T], facets map[string][]query.FacetCount) (View, error) {
	codec := src.Codec()
	schema := src.Schema()
	sync := urlstate.NewSynchronizer(urlstate.NewMemoryRouter(search), codec)
	st := sync.Read()

	link := func(patch query.State) string {
		return urlstate.Location(path, codec.Encode(sync.Next(patch)))
	}

	v := View{
		Name:     src.Name(),
		Title:    Label(src.Name()),
		Path:     path,
		Search:   codec.Encode(urlstate.Strip(st)).Encode(),
		HasDate:  schema.HasDate(),
		From:     st[query.KeyFrom].Text(),
		To:       st[query.KeyTo].Text(),
		Filtered: len(urlstate.Strip(st.Filters())) > 0 || !st[query.KeyFrom].Empty() || !st[query.KeyTo].Empty(),
	}

	cur, sorted := st.Sort()
	fields := schema.Fields()
	for _, f := range fields {
		col := Column{Name: f.Name, Label: Label(f.Name), Sortable: f.Sortable()}
		if col.Sortable {
			if sorted && cur.Field == f.Name {
				col.SortDir = string(cur.Direction)
			}
			col.SortURL = link(query.State{query.KeySortBy: query.CycleSort(st, f.Name)})
		}
		v.Columns = append(v.Columns, col)

		switch f.Rule {
		case query.TextContains, query.NumberEquals:
			typ := "search"
			if f.Rule == query.NumberEquals {
				typ = "number"
			}
			v.TextFilters = append(v.TextFilters, TextFilter{
				Name:  f.Name,
				Label: Label(f.Name),
				Value: st[f.Name].Text(),
				Type:  typ,
			})
		case query.TagsMatchAny:
			checked := st[f.Name].Tags()
			facet := Facet{Name: f.Name, Label: Label(f.Name)}
			for _, fc := range facets[f.Name] {
				facet.Options = append(facet.Options, FacetOption{
					Value:   fc.Value,
					Count:   fc.Count,
					Checked: slices.Contains(checked, fc.Value),
				})
			}
			v.Facets = append(v.Facets, facet)
		}
	}

	selection, selectedIDs := st.Selection()
	if counts, ok := facets[query.KeySelection]; ok {
		facet := Facet{Name: query.KeySelection, Label: Label(query.KeySelection)}
		for _, fc := range counts {
			facet.Options = append(facet.Options, FacetOption{
				Value:   fc.Value,
				Count:   fc.Count,
				Checked: slices.Contains(selection, fc.Value),
			})
		}
		v.Facets = append(v.Facets, facet)
	}

	for _, rec := range page.Items {
		id := schema.ID(rec)
		row := Row{
			ID:       id,
			Selected: slices.Contains(selectedIDs, id),
			Toggle:   joinIDs(toggleID(selectedIDs, id)),
			Cells:    make([]string, len(fields)),
		}
		for i, f := range fields {
			row.Cells[i] = schema.Display(rec, f.Name)
		}
		v.Rows = append(v.Rows, row)
	}

	v.Pager = Pager{
		PageIndex:  page.PageIndex,
		PageCount:  page.PageCount,
		PageSize:   page.PageSize,
		TotalCount: page.TotalCount,
		PageSizes:  pageSizes,
	}
	if len(page.Items) > 0 {
		v.Pager.First = page.PageIndex*page.PageSize + 1
		v.Pager.Last = v.Pager.First + len(page.Items) - 1
	}

	nav, err := pkg.Navigate(ctx, page)
	if err != nil {
		return View{}, err
	}
	pageLink := func(i int) string {
		return link(query.State{query.KeyPageIndex: query.Int(i)})
	}
	if nav.HasPrev() {
		v.Pager.PrevURL = pageLink(nav.Prev)
	}
	if nav.HasNext() {
		v.Pager.NextURL = pageLink(nav.Next)
	}
	for _, i := range nav.Pages {
		v.Pager.Pages = append(v.Pager.Pages, PageLink{
			Number:  i + 1,
			URL:     pageLink(i),
			Current: i == page.PageIndex,
		})
	}
	return v, nil
}

func toggleID(ids []int, id int) []int {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(slices.Clone(ids), i, i+1)
	}
	return append(slices.Clone(ids), id)
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
