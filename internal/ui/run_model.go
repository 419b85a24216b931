package ui

import (
	"os"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"
)

// RunModel runs the editor until the user accepts or cancels and returns the
// final model. Width/height of 0 auto-detect the terminal size, falling back to
// 80x24. Start keys are replayed first; if they already end the edit the
// program is not started. When watch is non-nil it is called once the program
// exists with a function that delivers messages (typically ReloadMsg) to it.
func RunModel(m *Model, width, height int, startKeys []string, watch func(send func(tea.Msg)), opts ...tea.ProgramOption) (*Model, error) {
	if len(startKeys) > 0 {
		ApplyStartupKeys(m, startKeys)
		if m.Accepted || m.Cancelled {
			return m, nil
		}
	}

	runW, runH := width, height
	if runW <= 0 || runH <= 0 {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			if runW <= 0 {
				runW = w
			}
			if runH <= 0 {
				runH = h
			}
		}
	}
	if runW <= 0 {
		runW = 80
	}
	if runH <= 0 {
		runH = 24
	}
	m.Update(tea.WindowSizeMsg{Width: runW, Height: runH})
	opts = append(opts, tea.WithWindowSize(runW, runH))

	prog := tea.NewProgram(m, opts...)
	if watch != nil {
		watch(prog.Send)
	}
	finalModel, err := prog.Run()
	if fm, ok := finalModel.(*Model); ok && fm != nil {
		return fm, err
	}
	return m, err
}
