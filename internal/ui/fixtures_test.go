package ui

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/pausecomplete/internal/completion"
	"github.com/oakwood-commons/pausecomplete/internal/protocol"
)

var (
	p1 = protocol.PauseContext{PauseID: "p1", FrameID: "f0"}
	p2 = protocol.PauseContext{PauseID: "p2", FrameID: "f0"}

	natoAlphabet = []string{
		"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel",
		"india", "juliet", "kilo", "lima", "mike", "november", "oscar",
	}
)

// testSource serves scope names per pause and property names per head.
func testSource(scopes map[protocol.PauseID][]string, objects map[string][]string) completion.CandidateSource {
	return completion.SourceFunc(func(_ context.Context, req completion.Request) completion.Result {
		if !req.Split.HasHead {
			return completion.Ready(scopes[req.Pause.PauseID], nil)
		}
		names, ok := objects[req.Split.Head]
		if !ok {
			return completion.Failed(errors.New("not an object"))
		}
		return completion.Ready(nil, names)
	})
}

func defaultSource() completion.CandidateSource {
	return testSource(
		map[protocol.PauseID][]string{
			"p1": {"document", "window", "items", "index"},
			"p2": {"total", "toString"},
		},
		map[string][]string{
			"document": {"body", "baseURI", "title", "defaultView"},
			"window":   natoAlphabet,
		},
	)
}

func newTestModel(t *testing.T, opts Options) *Model {
	t.Helper()
	if opts.Contexts == nil {
		opts.Contexts = []protocol.PauseContext{p1}
	}
	opts.NoColor = true
	return NewModel(context.Background(), defaultSource(), opts)
}

func key(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// typeText sends runes without resolving outstanding requests.
func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}
