package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingViewport struct {
	scrolled []int
}

func (v *recordingViewport) ScrollToItem(index int) {
	v.scrolled = append(v.scrolled, index)
}

func TestSelectionStartsAtZero(t *testing.T) {
	s := NewSelection(nil)
	_, ok := s.Index()
	assert.False(t, ok, "nothing selected without matches")

	s.Resize(3)
	idx, ok := s.Index()
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 3, s.Len())
}

func TestSelectionArrowDownWraps(t *testing.T) {
	s := NewSelection(nil)
	s.Resize(3)
	s.Select(2)

	assert.True(t, s.Move(KeyArrowDown))
	idx, _ := s.Index()
	assert.Equal(t, 0, idx)

	s.Move(KeyArrowDown)
	s.Move(KeyArrowDown)
	idx, _ = s.Index()
	assert.Equal(t, 2, idx)
}

func TestSelectionArrowUpClamps(t *testing.T) {
	s := NewSelection(nil)
	s.Resize(3)

	assert.True(t, s.Move(KeyArrowUp))
	idx, _ := s.Index()
	assert.Equal(t, 0, idx, "ArrowUp at the top stays at the top")

	s.Select(2)
	s.Move(KeyArrowUp)
	idx, _ = s.Index()
	assert.Equal(t, 1, idx)
}

func TestSelectionIgnoresOtherKeys(t *testing.T) {
	s := NewSelection(nil)
	s.Resize(2)
	s.Select(1)
	assert.False(t, s.Move(KeyOther))
	assert.False(t, s.Move(KeyEnter))
	idx, _ := s.Index()
	assert.Equal(t, 1, idx)
}

func TestSelectionClampOnShrink(t *testing.T) {
	s := NewSelection(nil)
	s.Resize(6)
	s.Select(4)

	s.Resize(2)
	idx, ok := s.Index()
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	s.Move(KeyArrowDown)
	idx, _ = s.Index()
	assert.Equal(t, 0, idx, "navigation continues from the clamped index")
}

func TestSelectionGrowKeepsIndex(t *testing.T) {
	s := NewSelection(nil)
	s.Resize(3)
	s.Select(2)
	s.Resize(10)
	idx, _ := s.Index()
	assert.Equal(t, 2, idx)
}

func TestSelectionEmptySuppressesNavigation(t *testing.T) {
	s := NewSelection(nil)
	s.Resize(3)
	s.Select(2)

	s.Resize(0)
	assert.False(t, s.Move(KeyArrowDown))
	assert.False(t, s.Move(KeyArrowUp))
	_, ok := s.Index()
	assert.False(t, ok)

	s.Resize(4)
	idx, ok := s.Index()
	require.True(t, ok)
	assert.Equal(t, 0, idx, "a reappearing list starts over")
}

func TestSelectionScrollsIntoView(t *testing.T) {
	vp := &recordingViewport{}
	s := NewSelection(vp)

	s.Resize(3)
	s.Move(KeyArrowDown)
	s.Move(KeyArrowDown)
	s.Move(KeyArrowDown)
	s.Select(2)
	s.Resize(1)

	assert.Equal(t, []int{0, 1, 2, 0, 2, 0}, vp.scrolled)
}

func TestSelectionSelectClamps(t *testing.T) {
	s := NewSelection(nil)
	s.Select(3)
	_, ok := s.Index()
	assert.False(t, ok)

	s.Resize(3)
	s.Select(-5)
	idx, _ := s.Index()
	assert.Equal(t, 0, idx)
	s.Select(99)
	idx, _ = s.Index()
	assert.Equal(t, 2, idx)

	s.Reset()
	assert.Equal(t, 0, s.Len())
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "ArrowUp", KeyArrowUp.String())
	assert.Equal(t, "ArrowDown", KeyArrowDown.String())
	assert.Equal(t, "Enter", KeyEnter.String())
	assert.Equal(t, "Other", KeyOther.String())
}
