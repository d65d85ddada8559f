package tui

import (
	"context"

	"github.com/simp-lee/datatable/internal/dataset"
	"github.com/simp-lee/datatable/internal/query"
	"github.com/simp-lee/datatable/internal/urlstate"
)

// Result is one loaded page rendered to strings. IDs holds the record id of
// each row.
type Result struct {
	Rows       [][]string
	IDs        []int
	TotalCount int
	PageIndex  int
	PageSize   int
	PageCount  int
	Facets     map[string][]query.FacetCount
}

// Table is the dataset shown by the browser.
type Table interface {
	Name() string
	Codec() *urlstate.Codec
	Columns() []Column
	Load(ctx context.Context, st query.State) (Result, error)
}

// Column describes one field of the table.
type Column struct {
	Name     string
	Rule     query.FilterRule
	Sortable bool
}

type sourceTable[T any] struct {
	src *dataset.Source[T]
}

// FromSource adapts a dataset source for the browser.
func FromSource[T any](src *dataset.Source[T]) Table {
	return sourceTable[T]{src: src}
}

func (t sourceTable[T]) Name() string           { return t.src.Name() }
func (t sourceTable[T]) Codec() *urlstate.Codec { return t.src.Codec() }

func (t sourceTable[T]) Columns() []Column {
	fields := t.src.Schema().Fields()
	cols := make([]Column, len(fields))
	for i, f := range fields {
		cols[i] = Column{Name: f.Name, Rule: f.Rule, Sortable: f.Sortable()}
	}
	return cols
}

func (t sourceTable[T]) Load(ctx context.Context, st query.State) (Result, error) {
	page, err := t.src.Fetch(ctx, st)
	if err != nil {
		return Result{}, err
	}
	facets, err := t.src.Facets(ctx, st)
	if err != nil {
		return Result{}, err
	}

	schema := t.src.Schema()
	fields := schema.Fields()
	res := Result{
		Rows:       make([][]string, len(page.Items)),
		IDs:        make([]int, len(page.Items)),
		TotalCount: page.TotalCount,
		PageIndex:  page.PageIndex,
		PageSize:   page.PageSize,
		PageCount:  page.PageCount,
		Facets:     facets,
	}
	for i, rec := range page.Items {
		cells := make([]string, len(fields))
		for j, f := range fields {
			cells[j] = schema.Display(rec, f.Name)
		}
		res.Rows[i] = cells
		res.IDs[i] = schema.ID(rec)
	}
	return res, nil
}
