package ui

// listViewport keeps the selected popup row in view. The session reports
// selection changes through ScrollToItem; the visible window only moves when
// the selection leaves it.
type listViewport struct {
	offset int
	target int
}

// ScrollToItem implements completion.Viewport.
func (v *listViewport) ScrollToItem(index int) {
	v.target = index
}

// window returns the [start, end) range of n items shown in rows lines.
func (v *listViewport) window(n, rows int) (int, int) {
	if n <= 0 || rows <= 0 {
		v.offset = 0
		return 0, 0
	}
	if rows > n {
		rows = n
	}
	if v.target < v.offset {
		v.offset = v.target
	}
	if v.target >= v.offset+rows {
		v.offset = v.target - rows + 1
	}
	if v.offset > n-rows {
		v.offset = n - rows
	}
	if v.offset < 0 {
		v.offset = 0
	}
	return v.offset, v.offset + rows
}
