package formatter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	Expression string   `json:"expression" yaml:"expression" toml:"expression"`
	Matches    []string `json:"matches" yaml:"matches" toml:"matches"`
}

func (r report) Lines() []string { return r.Matches }

func (r report) Tree() Node {
	n := Node{Label: r.Expression}
	for _, m := range r.Matches {
		n.Children = append(n.Children, Node{Label: m})
	}
	return n
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatList},
		{in: "json", want: FormatJSON},
		{in: " YAML ", want: FormatYAML},
		{in: "toml", want: FormatTOML},
		{in: "tree", want: FormatTree},
		{in: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "valid values are list, json, yaml, toml, tree")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender(t *testing.T) {
	r := report{Expression: "window.lo", Matches: []string{"location", "localStorage"}}
	tests := []struct {
		format Format
		want   []string
	}{
		{format: FormatList, want: []string{"location\nlocalStorage\n"}},
		{format: FormatJSON, want: []string{`"expression": "window.lo"`, `"location"`}},
		{format: FormatYAML, want: []string{"expression: window.lo", "- location"}},
		{format: FormatTOML, want: []string{"expression = ", "window.lo", "localStorage"}},
		{format: FormatTree, want: []string{"window.lo", "├── location", "└── localStorage"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			out, err := Render(r, tt.format)
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(out, "\n"))
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestRenderRejectsUnsupported(t *testing.T) {
	_, err := Render(map[string]int{"a": 1}, FormatTree)
	assert.Error(t, err)
	_, err = Render(1, Format("xml"))
	assert.Error(t, err)
}

func TestRenderListFallsBackToStringify(t *testing.T) {
	out, err := Render(map[string]any{"a": 1}, FormatList)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", out)
}

func TestFormatYAMLLiteralBlocks(t *testing.T) {
	out, err := RenderYAML(map[string]string{"msg": "line1\nline2"}, 0)
	require.NoError(t, err)
	assert.Contains(t, out, "msg: |")
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: ""},
		{name: "string", in: "hello", want: "hello"},
		{name: "newlines", in: "a\r\nb", want: `a\nb`},
		{name: "bool", in: true, want: "true"},
		{name: "int64", in: int64(42), want: "42"},
		{name: "float", in: 1.5, want: "1.5"},
		{name: "list", in: []any{"a", 1}, want: `["a",1]`},
		{name: "struct", in: struct{ A int }{A: 1}, want: `{"A":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stringify(tt.in))
		})
	}
}

func TestFormatTreeNesting(t *testing.T) {
	out := RenderTree(Node{Label: "p1", Children: []Node{
		{Label: "f0 renderItem", Children: []Node{{Label: "block blk"}}},
		{Label: "f1 main"},
	}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "p1", lines[0])
	assert.Contains(t, lines[1], "f0 renderItem")
	assert.Contains(t, lines[2], "block blk")
	assert.Contains(t, lines[3], "f1 main")
}
