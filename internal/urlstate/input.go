package urlstate

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/simp-lee/datatable/internal/debounce"
	"github.com/simp-lee/datatable/internal/query"
)

// DebouncedInput buffers the raw text of one filter box and forwards it as a
// patch once typing has paused. The forwarded patch also resets pageIndex.
type DebouncedInput struct {
	field   string
	numeric bool
	forward func(query.State)
	timer   *debounce.Debouncer

	mu    sync.Mutex
	value string
}

// NewDebouncedInput returns an input for field. When numeric is set the raw
// text is converted to a number before it is forwarded.
func NewDebouncedInput(field string, numeric bool, delay time.Duration, forward func(query.State)) *DebouncedInput {
	return &DebouncedInput{
		field:   field,
		numeric: numeric,
		forward: forward,
		timer:   debounce.New(delay),
	}
}

// Field returns the name of the filtered field.
func (in *DebouncedInput) Field() string { return in.field }

// Delay returns the quiet period.
func (in *DebouncedInput) Delay() time.Duration { return in.timer.Delay() }

// Value returns the buffered text.
func (in *DebouncedInput) Value() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.value
}

// SetValue replaces the buffered text and restarts the quiet period.
func (in *DebouncedInput) SetValue(raw string) {
	in.mu.Lock()
	in.value = raw
	in.mu.Unlock()

	patch := query.State{
		in.field:           in.coerce(raw),
		query.KeyPageIndex: query.Int(query.DefaultPageIndex),
	}
	in.timer.Trigger(func() { in.forward(patch) })
}

// Flush forwards the buffered text immediately, dropping the pending timer.
func (in *DebouncedInput) Flush() {
	in.timer.Cancel()
	raw := in.Value()
	in.forward(query.State{
		in.field:           in.coerce(raw),
		query.KeyPageIndex: query.Int(query.DefaultPageIndex),
	})
}

// Pending reports whether a forward is scheduled.
func (in *DebouncedInput) Pending() bool { return in.timer.Pending() }

// Close cancels any pending forward. The input cannot be used afterwards.
func (in *DebouncedInput) Close() { in.timer.Stop() }

func (in *DebouncedInput) coerce(raw string) query.Value {
	if !in.numeric {
		return query.Text(raw)
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return query.Text("")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return query.Number(math.NaN())
	}
	return query.Number(f)
}
