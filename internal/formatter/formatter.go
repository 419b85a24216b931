// Package formatter renders command output: completion reports and recording
// summaries as plain lists, JSON, YAML, TOML or trees.
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format selects an output encoding.
type Format string

const (
	FormatList Format = "list"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatTree Format = "tree"
)

// ValidFormats lists the accepted -o values.
var ValidFormats = []Format{FormatList, FormatJSON, FormatYAML, FormatTOML, FormatTree}

// ParseFormat validates a user supplied format name. Empty means list.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatList, nil
	}
	for _, valid := range ValidFormats {
		if f == valid {
			return f, nil
		}
	}
	names := make([]string, len(ValidFormats))
	for i, valid := range ValidFormats {
		names[i] = string(valid)
	}
	return "", fmt.Errorf("invalid output format %q: valid values are %s", s, strings.Join(names, ", "))
}

// Lister is implemented by values with a line oriented rendering.
type Lister interface {
	Lines() []string
}

// Treer is implemented by values with a tree rendering.
type Treer interface {
	Tree() Node
}

// Render encodes v in the given format. The output always ends with a newline.
func Render(v interface{}, format Format) (string, error) {
	var out string
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode JSON: %w", err)
		}
		out = string(b)
	case FormatYAML:
		s, err := RenderYAML(v, 2)
		if err != nil {
			return "", fmt.Errorf("failed to encode YAML: %w", err)
		}
		out = s
	case FormatTOML:
		b, err := toml.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode TOML: %w", err)
		}
		out = string(b)
	case FormatTree:
		t, ok := v.(Treer)
		if !ok {
			return "", fmt.Errorf("tree output is not supported for %T", v)
		}
		out = RenderTree(t.Tree())
	case FormatList, "":
		if l, ok := v.(Lister); ok {
			out = strings.Join(l.Lines(), "\n")
		} else {
			out = Stringify(v)
		}
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, nil
}

// RenderYAML renders v as YAML with the given indent. Multi-line strings are
// emitted as literal blocks.
func RenderYAML(v interface{}, indent int) (string, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return "", err
	}
	applyLiteralStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if indent <= 0 {
		indent = 2
	}
	enc.SetIndent(indent)
	if err := enc.Encode(&node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func applyLiteralStyle(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.Contains(n.Value, "\n") {
		n.Style = yaml.LiteralStyle
	}
	for _, c := range n.Content {
		applyLiteralStyle(c)
	}
}

// Stringify returns a compact single-line representation of a value.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return escapeNewlines(t)
	case bool, int, int64, float64:
		return fmt.Sprint(t)
	case map[string]any, []any:
		if b, err := json.Marshal(t); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", t)
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() { //nolint:exhaustive // only composite kinds need JSON
		case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
			if b, err := json.Marshal(v); err == nil {
				return string(b)
			}
		}
		return fmt.Sprintf("%v", v)
	}
}

func escapeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\\n")
}
