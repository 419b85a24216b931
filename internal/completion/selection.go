package completion

// Key is a navigation event understood by the completion popup.
type Key int

const (
	// KeyOther is any key the completion popup does not handle.
	KeyOther Key = iota
	// KeyArrowUp moves the selection up, stopping at the first match.
	KeyArrowUp
	// KeyArrowDown moves the selection down, wrapping past the last match.
	KeyArrowDown
	// KeyEnter submits the selected match.
	KeyEnter
)

func (k Key) String() string {
	switch k {
	case KeyArrowUp:
		return "ArrowUp"
	case KeyArrowDown:
		return "ArrowDown"
	case KeyEnter:
		return "Enter"
	default:
		return "Other"
	}
}

// Viewport is told to bring a row into view whenever the selection moves.
type Viewport interface {
	ScrollToItem(index int)
}

// ViewportFunc adapts a function to Viewport.
type ViewportFunc func(index int)

// ScrollToItem implements Viewport.
func (f ViewportFunc) ScrollToItem(index int) { f(index) }

// Selection tracks the highlighted match among n matches.
//
// With n > 0 the index is always in [0, n). With n == 0 nothing is selected and
// navigation is ignored until matches reappear, at which point the index starts
// over at 0.
type Selection struct {
	index    int
	n        int
	viewport Viewport
}

// NewSelection returns an empty selection. viewport may be nil.
func NewSelection(viewport Viewport) *Selection {
	return &Selection{viewport: viewport}
}

// Index returns the selected index, or false when nothing is selected.
func (s *Selection) Index() (int, bool) {
	if s.n == 0 {
		return 0, false
	}
	return s.index, true
}

// Len returns the number of matches the selection ranges over.
func (s *Selection) Len() int {
	return s.n
}

// Resize updates the match count, clamping the index into range.
func (s *Selection) Resize(n int) {
	if n < 0 {
		n = 0
	}
	prev := s.n
	s.n = n
	switch {
	case n == 0:
		s.index = 0
	case prev == 0:
		s.setIndex(0)
	case s.index >= n:
		s.setIndex(n - 1)
	}
}

// Select moves the selection to index, clamped into range.
func (s *Selection) Select(index int) {
	if s.n == 0 {
		return
	}
	if index < 0 {
		index = 0
	}
	if index >= s.n {
		index = s.n - 1
	}
	s.setIndex(index)
}

// Move applies a navigation key. It reports whether the key was a navigation
// key that was consumed; Enter and other keys are left to the caller.
func (s *Selection) Move(key Key) bool {
	if s.n == 0 {
		return false
	}
	switch key {
	case KeyArrowDown:
		s.setIndex((s.index + 1) % s.n)
		return true
	case KeyArrowUp:
		if s.index > 0 {
			s.setIndex(s.index - 1)
		} else {
			s.setIndex(0)
		}
		return true
	default:
		return false
	}
}

// Reset clears the selection.
func (s *Selection) Reset() {
	s.index = 0
	s.n = 0
}

func (s *Selection) setIndex(index int) {
	s.index = index
	if s.viewport != nil {
		s.viewport.ScrollToItem(index)
	}
}
