package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacets_CountsEachTagOfMultiValuedRecords(t *testing.T) {
	got := Facets(sampleRows(), rowSchema, nil, "status")

	assert.Equal(t, []FacetCount{
		{Value: "todo", Count: 2},
		{Value: "done", Count: 3},
		{Value: "archived", Count: 2},
	}, got)
}

func TestFacets_IgnoresOwnFilterButHonorsOthers(t *testing.T) {
	st := State{
		"status": Tags("done"),
		"title":  Text("deploy"),
	}

	got := Facets(sampleRows(), rowSchema, st, "status")

	// Rows 4 and 5 match the title filter; the status filter itself is skipped.
	assert.Equal(t, []FacetCount{
		{Value: "todo", Count: 1},
		{Value: "done", Count: 2},
	}, got)
}

func TestFacets_DuplicateTagsCountOnce(t *testing.T) {
	rows := []row{{ID: 1, Status: []string{"done", "done"}}}
	got := Facets(rows, rowSchema, nil, "status")
	assert.Equal(t, []FacetCount{{Value: "todo", Count: 0}, {Value: "done", Count: 1}}, got)
}

func TestFacets_HonorsSelectionAndDateRange(t *testing.T) {
	st := State{
		KeySelection:   Tags(Selected),
		KeySelectedIDs: IDs(2, 3, 4),
		KeyTo:          Text("2020-01-31"),
	}
	got := Facets(sampleRows(), rowSchema, st, "status")
	assert.Equal(t, []FacetCount{
		{Value: "todo", Count: 0},
		{Value: "done", Count: 1},
		{Value: "archived", Count: 2},
	}, got)
}

func TestFacets_NumberField(t *testing.T) {
	got := Facets(sampleRows(), rowSchema, nil, "hours")
	assert.Equal(t, []FacetCount{
		{Value: "1", Count: 1},
		{Value: "3", Count: 2},
		{Value: "5", Count: 1},
		{Value: "8", Count: 1},
	}, got)
}

func TestFacets_UnknownOrDateField(t *testing.T) {
	assert.Nil(t, Facets(sampleRows(), rowSchema, nil, "nope"))
	assert.Nil(t, Facets(sampleRows(), rowSchema, nil, "createdAt"))
}

func TestFacetsAll(t *testing.T) {
	got := FacetsAll(sampleRows(), rowSchema, State{"hours": Number(3)})
	require.Len(t, got, 1)
	assert.Equal(t, []FacetCount{
		{Value: "todo", Count: 1},
		{Value: "done", Count: 0},
		{Value: "archived", Count: 1},
	}, got["status"])
}

func TestSelectionFacet(t *testing.T) {
	st := State{
		"title":        Text("deploy"),
		KeySelection:   Tags(NotSelected),
		KeySelectedIDs: IDs(4, 1),
	}

	// Rows 4 and 5 match the title; the selection filter itself is skipped.
	assert.Equal(t, []FacetCount{
		{Value: Selected, Count: 1},
		{Value: NotSelected, Count: 1},
	}, SelectionFacet(sampleRows(), rowSchema, st))

	assert.Equal(t, []FacetCount{
		{Value: Selected, Count: 0},
		{Value: NotSelected, Count: 5},
	}, SelectionFacet(sampleRows(), rowSchema, nil))
}

func TestNewSchema_Validation(t *testing.T) {
	id := func(r row) int { return r.ID }
	title := func(r row) string { return r.Title }
	created := func(r row) time.Time { return r.Created }

	tests := []struct {
		name string
		cfg  SchemaConfig[row]
	}{
		{"missing id", SchemaConfig[row]{Fields: []Field[row]{TextField("title", title)}}},
		{"bad name", SchemaConfig[row]{ID: id, Fields: []Field[row]{TextField("ti-tle", title)}}},
		{"reserved name", SchemaConfig[row]{ID: id, Fields: []Field[row]{TextField(KeyPageSize, title)}}},
		{"duplicate", SchemaConfig[row]{ID: id, Fields: []Field[row]{TextField("title", title), TextField("title", title)}}},
		{"nil accessor", SchemaConfig[row]{ID: id, Fields: []Field[row]{TextField[row]("title", nil)}}},
		{"two dates", SchemaConfig[row]{ID: id, Fields: []Field[row]{DateField("a", created), DateField("b", created)}}},
		{"zero field", SchemaConfig[row]{ID: id, Fields: []Field[row]{{Name: "x"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestSchema_Params(t *testing.T) {
	p := rowSchema.Params()

	assert.Equal(t, KindText, p["title"])
	assert.Equal(t, KindTags, p["status"])
	assert.Equal(t, KindNumber, p["hours"])
	assert.Equal(t, KindText, p[KeyFrom])
	assert.Equal(t, KindIDs, p[KeySelectedIDs])
	_, hasDateField := p["createdAt"]
	assert.False(t, hasDateField)
}

func TestSchema_Display(t *testing.T) {
	r := sampleRows()[1]
	assert.Equal(t, "write docs", rowSchema.Display(r, "title"))
	assert.Equal(t, "done,archived", rowSchema.Display(r, "status"))
	assert.Equal(t, "5", rowSchema.Display(r, "hours"))
	assert.Equal(t, "2020-01-15", rowSchema.Display(r, "createdAt"))
	assert.Equal(t, "", rowSchema.Display(r, "missing"))
}
