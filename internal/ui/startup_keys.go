package ui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
)

// ApplyStartupKeys replays key tokens against the model, resolving candidates
// after every key so navigation sees the same popup a user would. Tokens mix
// Vim-style keys and literal text ("doc<Down><CR>"); a leading backslash makes
// the whole token literal. Replay stops once the editor accepts or cancels.
func ApplyStartupKeys(m *Model, keys []string) {
	if m == nil {
		return
	}
	for _, raw := range keys {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		if strings.HasPrefix(token, `\`) {
			if !pressText(m, strings.TrimPrefix(token, `\`)) {
				return
			}
			continue
		}
		for _, segment := range parseTokenSegments(token) {
			if !segment.isVimKey {
				if !pressText(m, segment.text) {
					return
				}
				continue
			}
			msgs, ok := keyMsgsFromToken(segment.text)
			if !ok {
				// Unknown <...> tokens are typed as-is.
				if !pressText(m, segment.text) {
					return
				}
				continue
			}
			for _, msg := range msgs {
				if !press(m, msg) {
					return
				}
			}
		}
	}
}

func pressText(m *Model, text string) bool {
	for _, r := range text {
		if !press(m, tea.KeyPressMsg{Code: r, Text: string(r)}) {
			return false
		}
	}
	return true
}

// press delivers one key and reports whether replay should continue.
func press(m *Model, msg tea.KeyPressMsg) bool {
	m.Update(msg)
	m.Settle()
	return !m.Accepted && !m.Cancelled
}

type tokenSegment struct {
	text     string
	isVimKey bool
}

// parseTokenSegments splits a token into <...> keys and literal text.
// Example: "doc<Down>x" -> "doc", "<Down>", "x".
func parseTokenSegments(token string) []tokenSegment {
	var segments []tokenSegment
	remaining := token
	for len(remaining) > 0 {
		start := strings.Index(remaining, "<")
		if start == -1 {
			segments = append(segments, tokenSegment{text: remaining})
			break
		}
		if start > 0 {
			segments = append(segments, tokenSegment{text: remaining[:start]})
		}
		end := strings.Index(remaining[start:], ">")
		if end == -1 {
			segments = append(segments, tokenSegment{text: remaining[start:]})
			break
		}
		segments = append(segments, tokenSegment{text: remaining[start : start+end+1], isVimKey: true})
		remaining = remaining[start+end+1:]
	}
	return segments
}

// keyMsgsFromToken maps a Vim-style key such as "<Esc>", "<CR>", "<C-n>" or
// "<Down>" to key messages.
func keyMsgsFromToken(token string) ([]tea.KeyPressMsg, bool) {
	if !strings.HasPrefix(token, "<") || !strings.HasSuffix(token, ">") {
		return nil, false
	}
	switch strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(token, "<"), ">")) {
	case "esc", "c-[", "escape":
		return []tea.KeyPressMsg{{Code: tea.KeyEscape}}, true
	case "cr", "enter", "return":
		return []tea.KeyPressMsg{{Code: tea.KeyEnter}}, true
	case "space":
		return []tea.KeyPressMsg{{Code: ' ', Text: " "}}, true
	case "bs", "backspace":
		return []tea.KeyPressMsg{{Code: tea.KeyBackspace}}, true
	case "left":
		return []tea.KeyPressMsg{{Code: tea.KeyLeft}}, true
	case "right":
		return []tea.KeyPressMsg{{Code: tea.KeyRight}}, true
	case "up":
		return []tea.KeyPressMsg{{Code: tea.KeyUp}}, true
	case "down":
		return []tea.KeyPressMsg{{Code: tea.KeyDown}}, true
	case "home":
		return []tea.KeyPressMsg{{Code: tea.KeyHome}}, true
	case "end":
		return []tea.KeyPressMsg{{Code: tea.KeyEnd}}, true
	case "c-c":
		return []tea.KeyPressMsg{{Code: 0x03}}, true // Ctrl+C
	case "c-n":
		return []tea.KeyPressMsg{{Code: 'n', Mod: tea.ModCtrl}}, true
	case "c-p":
		return []tea.KeyPressMsg{{Code: 'p', Mod: tea.ModCtrl}}, true
	}
	return nil, false
}
