// Package tui is a terminal browser for the generated datasets. Its filter
// state lives in an in-memory search string, the same representation the
// web pages keep in their URL.
package tui

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simp-lee/datatable/internal/query"
	"github.com/simp-lee/datatable/internal/urlstate"
)

// Options configure the browser.
type Options struct {
	// Debounce is the quiet period of the filter box.
	Debounce time.Duration
	// Search is the initial search, as it would appear in a page URL.
	Search url.Values
	// FilterField is the text field edited by the filter box. It defaults
	// to the first text field of the table.
	FilterField string
}

var pageSizes = []int{10, 20, 30, 40, 50}

type patchMsg query.State

// loadedMsg carries a page loaded for search.
type loadedMsg struct {
	search string
	res    Result
	err    error
}

// mailbox hands debounced patches to the program. A newer patch replaces one
// that has not been taken yet.
type mailbox struct {
	mu    sync.Mutex
	patch query.State
	ready chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{ready: make(chan struct{}, 1)}
}

func (b *mailbox) put(p query.State) {
	b.mu.Lock()
	b.patch = p
	b.mu.Unlock()
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// clear drops a patch that has not been taken yet.
func (b *mailbox) clear() {
	b.mu.Lock()
	b.patch = nil
	b.mu.Unlock()
	select {
	case <-b.ready:
	default:
	}
}

func (b *mailbox) take() query.State {
	for {
		<-b.ready
		b.mu.Lock()
		p := b.patch
		b.patch = nil
		b.mu.Unlock()
		if p != nil {
			return p
		}
	}
}

// Model is the bubbletea model of the browser.
type Model struct {
	table  Table
	cols   []Column
	router *urlstate.MemoryRouter
	sync   *urlstate.Synchronizer

	input  textinput.Model
	filter *urlstate.DebouncedInput
	box    *mailbox

	facet       string
	facetCursor int
	sortCursor  int
	rowCursor   int

	res     Result
	err     error
	loading bool
	width   int
}

// New returns a browser over t. The facet row toggles the first tags field.
func New(t Table, opts Options) Model {
	router := urlstate.NewMemoryRouter(opts.Search)
	m := Model{
		table:   t,
		cols:    t.Columns(),
		router:  router,
		sync:    urlstate.NewSynchronizer(router, t.Codec()),
		box:     newMailbox(),
		loading: true,
		width:   120,
	}

	textField := opts.FilterField
	for _, c := range m.cols {
		switch {
		case c.Rule == query.TextContains && textField == "":
			textField = c.Name
		case c.Rule == query.TagsMatchAny && m.facet == "":
			m.facet = c.Name
		}
	}

	m.input = textinput.New()
	m.input.Prompt = "/ "
	m.input.Placeholder = "filter " + textField
	m.input.CharLimit = 100
	m.input.Width = 40
	m.input.SetValue(m.sync.Read()[textField].Text())
	m.filter = urlstate.NewDebouncedInput(textField, false, opts.Debounce, m.box.put)

	for i, c := range m.cols {
		if c.Sortable {
			m.sortCursor = i
			break
		}
	}
	return m
}

// Search returns the encoded current search.
func (m Model) Search() string { return m.router.String() }

// State returns the decoded current state.
func (m Model) State() query.State { return m.sync.Read() }

// Close cancels a pending filter update.
func (m Model) Close() { m.filter.Close() }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForPatch())
}

func (m Model) load() tea.Cmd {
	st := m.sync.Read()
	search := m.router.String()
	return func() tea.Msg {
		res, err := m.table.Load(context.Background(), st)
		return loadedMsg{search: search, res: res, err: err}
	}
}

func (m Model) waitForPatch() tea.Cmd {
	return func() tea.Msg {
		return patchMsg(m.box.take())
	}
}

// merge applies patch to the search and reloads the page.
func (m Model) merge(patch query.State) (Model, tea.Cmd) {
	m.sync.Merge(patch)
	m.loading = true
	return m, m.load()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case patchMsg:
		next, cmd := m.merge(query.State(msg))
		return next, tea.Batch(cmd, next.waitForPatch())

	case loadedMsg:
		if msg.search != m.router.String() {
			// Superseded by a later merge whose load is still on its way.
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.res = msg.res
		}
		if n := len(m.facetOptions()); m.facetCursor >= n {
			m.facetCursor = max(n-1, 0)
		}
		if n := len(m.res.Rows); m.rowCursor >= n {
			m.rowCursor = max(n-1, 0)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.filter.Close()
		return m, tea.Quit
	case "enter", "esc":
		m.input.Blur()
		if m.filter.Pending() {
			m.filter.Flush()
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.filter.SetValue(v)
	}
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.sync.Read()

	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.filter.Close()
		return m, tea.Quit

	case "/":
		cmd := m.input.Focus()
		return m, cmd

	case "right", "n":
		if m.res.PageIndex+1 < m.res.PageCount {
			return m.merge(query.State{query.KeyPageIndex: query.Int(m.res.PageIndex + 1)})
		}
	case "left", "p":
		if m.res.PageIndex > 0 {
			return m.merge(query.State{query.KeyPageIndex: query.Int(m.res.PageIndex - 1)})
		}

	case "tab":
		m.sortCursor = m.nextSortable(1)
	case "shift+tab":
		m.sortCursor = m.nextSortable(-1)
	case "s":
		if m.sortCursor < len(m.cols) && m.cols[m.sortCursor].Sortable {
			return m.merge(query.State{query.KeySortBy: query.CycleSort(st, m.cols[m.sortCursor].Name)})
		}

	case "+", "=":
		return m.merge(query.State{query.KeyPageSize: query.Int(stepPageSize(st.PageSize(), 1))})
	case "-":
		return m.merge(query.State{query.KeyPageSize: query.Int(stepPageSize(st.PageSize(), -1))})

	case "]":
		if n := len(m.facetOptions()); n > 0 {
			m.facetCursor = (m.facetCursor + 1) % n
		}
	case "[":
		if n := len(m.facetOptions()); n > 0 {
			m.facetCursor = (m.facetCursor - 1 + n) % n
		}
	case " ", "x":
		opts := m.facetOptions()
		if m.facet == "" || m.facetCursor >= len(opts) {
			return m, nil
		}
		tags := toggle(st[m.facet].Tags(), opts[m.facetCursor].Value)
		v := query.Unset()
		if len(tags) > 0 {
			v = query.Tags(tags...)
		}
		return m.merge(query.State{m.facet: v, query.KeyPageIndex: query.Unset()})

	case "up", "k":
		m.rowCursor = max(m.rowCursor-1, 0)
	case "down", "j":
		m.rowCursor = min(m.rowCursor+1, max(len(m.res.Rows)-1, 0))
	case "m":
		if m.rowCursor >= len(m.res.IDs) {
			return m, nil
		}
		_, ids := st.Selection()
		ids = toggle(ids, m.res.IDs[m.rowCursor])
		v := query.Unset()
		if len(ids) > 0 {
			v = query.IDs(ids...)
		}
		return m.merge(query.State{query.KeySelectedIDs: v})
	case "v":
		return m.merge(query.State{query.KeySelection: nextSelection(st), query.KeyPageIndex: query.Unset()})

	case "r":
		m.filter.Close()
		m.box.clear()
		m.filter = urlstate.NewDebouncedInput(m.filter.Field(), false, m.filter.Delay(), m.box.put)
		m.input.SetValue("")
		m.sync.Reset()
		m.loading = true
		return m, m.load()
	}
	return m, nil
}

func (m Model) facetOptions() []query.FacetCount {
	if m.facet == "" {
		return nil
	}
	return m.res.Facets[m.facet]
}

func (m Model) nextSortable(step int) int {
	n := len(m.cols)
	for i := 1; i <= n; i++ {
		j := ((m.sortCursor+step*i)%n + n) % n
		if m.cols[j].Sortable {
			return j
		}
	}
	return m.sortCursor
}

func stepPageSize(cur, step int) int {
	i := slices.Index(pageSizes, cur)
	if i < 0 {
		i, _ = slices.BinarySearch(pageSizes, cur)
		if step > 0 {
			i--
		}
	}
	i = min(max(i+step, 0), len(pageSizes)-1)
	return pageSizes[i]
}

func toggle[E comparable](list []E, v E) []E {
	if i := slices.Index(list, v); i >= 0 {
		return slices.Delete(slices.Clone(list), i, i+1)
	}
	return append(slices.Clone(list), v)
}

// nextSelection cycles the selection filter: all rows, selected rows, the
// rest.
func nextSelection(st query.State) query.Value {
	switch tags, _ := st.Selection(); {
	case len(tags) == 0:
		return query.Tags(query.Selected)
	case len(tags) == 1 && tags[0] == query.Selected:
		return query.Tags(query.NotSelected)
	default:
		return query.Unset()
	}
}

// Run starts the browser on the terminal and returns the final search.
func Run(t Table, opts Options) (string, error) {
	m := New(t, opts)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		m.Close()
		return "", fmt.Errorf("run browser: %w", err)
	}
	if fm, ok := final.(Model); ok {
		m = fm
	}
	m.Close()
	return m.Search(), nil
}
