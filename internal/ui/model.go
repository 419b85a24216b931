// Package ui is the interactive expression editor: a text input with a
// completion popup driven by a completion.Session.
package ui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/pausecomplete/internal/completion"
	"github.com/oakwood-commons/pausecomplete/internal/protocol"
)

// DefaultPopupWidth is the popup width in cells when none is configured.
const DefaultPopupWidth = 32

const (
	selectedPrefix = "❯ "
	rowPrefix      = "  "
)

// Options configure a Model.
type Options struct {
	// Contexts are the pause/frame pairs ctrl+n and ctrl+p cycle through.
	// The first one is selected initially.
	Contexts   []protocol.PauseContext
	Expression string
	MaxRows    int
	PopupWidth int
	Theme      Theme
	NoColor    bool
	Logger     logr.Logger
	// Describe labels a pause context in the status line.
	Describe func(protocol.PauseContext) string
}

// Model is the Bubble Tea model of the editor.
type Model struct {
	Input   textinput.Model
	Session *completion.Session

	NoColor    bool
	PopupWidth int
	Width      int
	Height     int
	ErrMsg     string

	// Set when the program ends.
	Accepted  bool
	Cancelled bool
	Result    string

	ctx      context.Context
	log      logr.Logger
	view     *listViewport
	styles   styles
	contexts []protocol.PauseContext
	current  int
	describe func(protocol.PauseContext) string
	inflight *completion.Request
}

// resolvedMsg carries a finished candidate resolution back to Update.
type resolvedMsg struct {
	res completion.Resolution
}

// ReloadMsg replaces the candidate source, for example after the recording
// changed on disk. A non-nil Err keeps the current source.
type ReloadMsg struct {
	Source completion.CandidateSource
	Err    error
}

// NewModel creates an editor resolving candidates from source. ctx bounds
// every resolution the model starts.
func NewModel(ctx context.Context, source completion.CandidateSource, opts Options) *Model {
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	if opts.PopupWidth <= 0 {
		opts.PopupWidth = DefaultPopupWidth
	}
	if opts.Describe == nil {
		opts.Describe = describeContext
	}
	if opts.Theme.SelectedFG == nil {
		opts.Theme = ThemeFromConfig(fallbackColors)
	}

	view := &listViewport{}
	m := &Model{
		NoColor:    opts.NoColor,
		PopupWidth: opts.PopupWidth,
		ctx:        ctx,
		log:        opts.Logger,
		view:       view,
		styles:     newStyles(opts.Theme, opts.NoColor),
		contexts:   opts.Contexts,
		describe:   opts.Describe,
	}
	m.Session = completion.NewSession(source,
		completion.WithViewport(view),
		completion.WithMaxVisibleRows(opts.MaxRows),
		completion.WithLogger(opts.Logger),
	)

	ti := textinput.New()
	ti.Prompt = selectedPrefix
	ti.Placeholder = "expression"
	ti.CharLimit = 500
	ti.SetWidth(80)
	ti.Focus()
	m.Input = ti

	if len(m.contexts) > 0 {
		m.Session.SetPause(m.contexts[0])
	}
	if opts.Expression != "" {
		m.Input.SetValue(opts.Expression)
		m.Input.CursorEnd()
		m.track(m.Session.SetExpression(opts.Expression))
	}
	return m
}

func describeContext(pc protocol.PauseContext) string {
	if !pc.HasPause() {
		return "no pause"
	}
	if !pc.HasFrame() {
		return fmt.Sprintf("pause %s", pc.PauseID)
	}
	return fmt.Sprintf("pause %s · frame %s", pc.PauseID, pc.FrameID)
}

// Init starts the cursor blink and any resolution queued by NewModel.
func (m *Model) Init() tea.Cmd {
	if m.inflight != nil {
		return tea.Batch(textinput.Blink, m.resolveCmd(m.inflight))
	}
	return textinput.Blink
}

// Update handles key presses, window resizes, resolutions and reloads.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		if w := msg.Width - runewidth.StringWidth(m.Input.Prompt) - 1; w > 0 {
			m.Input.SetWidth(w)
		}
		return m, nil
	case resolvedMsg:
		if m.Session.Apply(msg.res) {
			m.inflight = nil
		}
		return m, nil
	case ReloadMsg:
		if msg.Err != nil {
			m.ErrMsg = fmt.Sprintf("reload failed: %v", msg.Err)
			return m, nil
		}
		m.ErrMsg = ""
		return m, m.track(m.Session.SetSource(msg.Source))
	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func keyName(msg tea.KeyPressMsg) string {
	switch msg.Code {
	case tea.KeyUp:
		return "up"
	case tea.KeyDown:
		return "down"
	case tea.KeyEnter:
		return "enter"
	case tea.KeyEscape:
		return "esc"
	case 0x03: // Ctrl+C
		return "ctrl+c"
	}
	return msg.String()
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch name := keyName(msg); name {
	case "ctrl+c":
		m.Cancelled = true
		return m, tea.Quit
	case "esc":
		if m.Session.Active() {
			m.Session.Cancel()
			return m, nil
		}
		m.Cancelled = true
		return m, tea.Quit
	case "ctrl+n", "ctrl+p":
		return m, m.cycleContext(name == "ctrl+n")
	case "up", "down", "enter":
		out := m.Session.HandleKey(sessionKey(name))
		if out.Submitted {
			m.complete(out.Value)
			return m, nil
		}
		if out.Handled || name != "enter" {
			return m, nil
		}
		m.Accepted = true
		m.Result = m.Input.Value()
		return m, tea.Quit
	}

	before := m.Input.Value()
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	if after := m.Input.Value(); after != before {
		m.ErrMsg = ""
		return m, tea.Batch(cmd, m.track(m.Session.SetExpression(after)))
	}
	return m, cmd
}

func sessionKey(name string) completion.Key {
	switch name {
	case "up":
		return completion.KeyArrowUp
	case "down":
		return completion.KeyArrowDown
	case "enter":
		return completion.KeyEnter
	}
	return completion.KeyOther
}

// complete rewrites the input with the accepted match. The session keeps the
// new text but stays closed until the next edit.
func (m *Model) complete(match string) {
	value := m.Session.Split().Complete(match)
	m.Session.Reset(value)
	m.Input.SetValue(value)
	m.Input.CursorEnd()
	m.log.V(1).Info("completion accepted", "match", match, "expression", value)
}

func (m *Model) cycleContext(forward bool) tea.Cmd {
	if len(m.contexts) < 2 {
		return nil
	}
	if forward {
		m.current = (m.current + 1) % len(m.contexts)
	} else {
		m.current = (m.current - 1 + len(m.contexts)) % len(m.contexts)
	}
	return m.track(m.Session.SetPause(m.contexts[m.current]))
}

// Context returns the pause context completions are resolved against.
func (m *Model) Context() protocol.PauseContext {
	return m.Session.Pause()
}

func (m *Model) track(req *completion.Request) tea.Cmd {
	if req == nil {
		return nil
	}
	m.inflight = req
	return m.resolveCmd(req)
}

func (m *Model) resolveCmd(req *completion.Request) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return resolvedMsg{res: req.Resolve(ctx)}
	}
}

// Settle resolves the outstanding request, if any, on the calling goroutine.
func (m *Model) Settle() {
	if m.inflight == nil {
		return
	}
	m.Session.Await(m.ctx, m.inflight)
	m.inflight = nil
}

// View renders the input, the popup and the status line.
func (m *Model) View() tea.View {
	return tea.NewView(m.Render())
}

// Render returns the editor as plain text with styles applied.
func (m *Model) Render() string {
	var b strings.Builder
	b.WriteString(m.Input.View())
	if popup := m.popupView(); popup != "" {
		b.WriteString("\n")
		b.WriteString(popup)
	}
	b.WriteString("\n")
	b.WriteString(m.statusView())
	return b.String()
}

func (m *Model) popupView() string {
	if !m.Session.Active() {
		return ""
	}
	matches := m.Session.Matches()
	if len(matches) == 0 {
		return ""
	}
	selected, _ := m.Session.SelectedIndex()
	start, end := m.view.window(len(matches), m.Session.VisibleRows())

	width := m.PopupWidth - runewidth.StringWidth(selectedPrefix)
	if width < 1 {
		width = 1
	}
	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		name := fitName(matches[i], width)
		if i == selected {
			rows = append(rows, m.styles.selected.Render(selectedPrefix+name))
		} else {
			rows = append(rows, m.styles.row.Render(rowPrefix+name))
		}
	}
	return m.styles.popup.Render(strings.Join(rows, "\n"))
}

// fitName truncates or pads name to exactly width cells.
func fitName(name string, width int) string {
	if runewidth.StringWidth(name) > width {
		name = runewidth.Truncate(name, width, "…")
	}
	return runewidth.FillRight(name, width)
}

func (m *Model) statusView() string {
	parts := []string{m.describe(m.Session.Pause())}
	switch m.Session.Status() {
	case completion.StatusPending:
		parts = append(parts, "resolving…")
	case completion.StatusFailed:
		parts = append(parts, m.styles.err.Render("no completions"))
	case completion.StatusReady:
		if n := len(m.Session.Matches()); n > 0 {
			idx, _ := m.Session.SelectedIndex()
			parts = append(parts, fmt.Sprintf("%d/%d", idx+1, n))
		} else {
			parts = append(parts, "no matches")
		}
	}
	if m.ErrMsg != "" {
		parts = append(parts, m.styles.err.Render(m.ErrMsg))
	}
	return m.styles.status.Render(strings.Join(parts, " · "))
}
