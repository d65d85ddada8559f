package pkg

import (
	"context"

	"github.com/simp-lee/pagination"

	"github.com/simp-lee/datatable/internal/query"
)

// pagesInRange is the width of the numbered page window.
const pagesInRange = 5

// PageNav is the navigation around one evaluated page. All indexes are zero
// based like pageIndex; Prev and Next are -1 when there is no such page.
type PageNav struct {
	Index int
	Count int
	Pages []int
	Prev  int
	Next  int
	Last  int
}

// HasPrev reports whether a previous page exists.
func (n PageNav) HasPrev() bool { return n.Prev >= 0 }

// HasNext reports whether a next page exists.
func (n PageNav) HasNext() bool { return n.Next >= 0 }

// Navigate computes the navigation of page. The page is already sliced by
// the query engine, so the paginator only contributes the page window and
// the neighbours. An index past the last page keeps the last page as its
// previous page.
func Navigate[T any](ctx context.Context, page query.Page[T]) (PageNav, error) {
	nav := PageNav{Index: page.PageIndex, Count: page.PageCount, Prev: -1, Next: -1, Last: -1}
	if page.PageCount == 0 {
		return nav, nil
	}

	p := pagination.NewPaginator(
		pagination.WithItemsPerPage[T](page.PageSize),
		pagination.WithPagesInRange[T](pagesInRange),
		pagination.WithKnownTotal[T](int64(page.TotalCount)),
		pagination.WithSliceCallback(func(context.Context, int, int) ([]T, error) {
			return page.Items, nil
		}),
	)
	res, err := p.Paginate(ctx, page.PageIndex+1)
	if err != nil {
		return nav, err
	}

	nav.Pages = make([]int, len(res.Pages))
	for i, n := range res.Pages {
		nav.Pages[i] = n - 1
	}
	nav.Last = res.LastPage - 1
	if res.PreviousPage != nil {
		nav.Prev = *res.PreviousPage - 1
	}
	if res.NextPage != nil {
		nav.Next = *res.NextPage - 1
	}
	if page.PageIndex > nav.Last {
		nav.Prev, nav.Next = nav.Last, -1
	}
	return nav, nil
}
