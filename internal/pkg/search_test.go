package pkg

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func bindSearch(t *testing.T, rawQuery string) (SearchParams, bool, *httptest.ResponseRecorder) {
	t.Helper()
	c, w := newTestContext(httptest.NewRequest(http.MethodGet, "/api/v1/tasks?"+rawQuery, nil))
	p, ok := BindSearch(c)
	return p, ok, w
}

func TestBindSearch_Valid(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"empty", ""},
		{"filters only", "status=done&title=fix"},
		{"pagination", "pageIndex=0&pageSize=50"},
		{"sort", "sortBy=title.asc"},
		{"sort on dotted field", "sortBy=meta.owner.desc"},
		{"calendar dates", "from=2020-01-01&to=2020-01-31"},
		{"rfc3339 date", "from=2020-01-01T10:00:00Z"},
		{"unix millis", "to=1580515200000"},
		{"selection repeated", "selection=SELECTED&selection=NOT_SELECTED"},
		{"selection comma list", "selection=SELECTED,NOT_SELECTED"},
		{"selected ids", "selectedIds=1,2&selectedIds=7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, w := bindSearch(t, tt.query)
			if !ok {
				t.Fatalf("BindSearch(%q) rejected: %s", tt.query, w.Body.String())
			}
		})
	}
}

func TestBindSearch_Values(t *testing.T) {
	p, ok, _ := bindSearch(t, "pageIndex=3&pageSize=25&sortBy=code.desc&selection=SELECTED")
	if !ok {
		t.Fatal("BindSearch rejected a valid query")
	}
	if p.PageIndex == nil || *p.PageIndex != 3 {
		t.Errorf("PageIndex = %v, want 3", p.PageIndex)
	}
	if p.PageSize == nil || *p.PageSize != 25 {
		t.Errorf("PageSize = %v, want 25", p.PageSize)
	}
	if p.SortBy != "code.desc" {
		t.Errorf("SortBy = %q, want %q", p.SortBy, "code.desc")
	}
	if len(p.Selection) != 1 || p.Selection[0] != "SELECTED" {
		t.Errorf("Selection = %v, want [SELECTED]", p.Selection)
	}
}

func TestBindSearch_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantField string
		wantRule  string
	}{
		{"negative page index", "pageIndex=-1", "pageIndex", "min=0"},
		{"zero page size", "pageSize=0", "pageSize", "min=1"},
		{"sort without direction", "sortBy=title", "sortBy", "sortspec"},
		{"sort bad direction", "sortBy=title.up", "sortBy", "sortspec"},
		{"bad date", "from=yesterday", "from", "datebound"},
		{"bad selection", "selection=MAYBE", "selection", "listof=SELECTED NOT_SELECTED"},
		{"bad id", "selectedIds=1,x", "selectedIds", "idlist"},
		{"negative id", "selectedIds=-4", "selectedIds", "idlist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, w := bindSearch(t, tt.query)
			if ok {
				t.Fatalf("BindSearch(%q) accepted an invalid query", tt.query)
			}
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
			resp := decodeValidation(t, w)
			if got := resp.Errors[tt.wantField]; got != tt.wantRule {
				t.Errorf("errors[%s] = %q, want %q (all: %v)", tt.wantField, got, tt.wantRule, resp.Errors)
			}
		})
	}
}

func TestBindSearch_NonNumericPageIndex(t *testing.T) {
	_, ok, w := bindSearch(t, "pageIndex=two")
	if ok {
		t.Fatal("BindSearch accepted a non-numeric page index")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestRegisterValidations_Idempotent(t *testing.T) {
	RegisterValidations()
	RegisterValidations()

	if _, ok, _ := bindSearch(t, "sortBy=title.asc"); !ok {
		t.Error("validation rules not usable after repeated registration")
	}
}
