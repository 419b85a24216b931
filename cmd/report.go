package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/oakwood-commons/pausecomplete/internal/formatter"
	"github.com/oakwood-commons/pausecomplete/internal/protocol"
	"github.com/oakwood-commons/pausecomplete/internal/ui"
	"github.com/oakwood-commons/pausecomplete/pkg/logger"
)

// completionReport is the command output: the candidates for the edited
// expression or, once accepted, the expression and what it evaluates to.
type completionReport struct {
	Expression string      `json:"expression" yaml:"expression" toml:"expression"`
	Pause      string      `json:"pause" yaml:"pause" toml:"pause"`
	Frame      string      `json:"frame,omitempty" yaml:"frame,omitempty" toml:"frame,omitempty"`
	Status     string      `json:"status" yaml:"status" toml:"status"`
	Matches    []string    `json:"matches" yaml:"matches" toml:"matches"`
	Selected   string      `json:"selected,omitempty" yaml:"selected,omitempty" toml:"selected,omitempty"`
	Accepted   bool        `json:"accepted" yaml:"accepted" toml:"accepted"`
	Result     *evalReport `json:"result,omitempty" yaml:"result,omitempty" toml:"result,omitempty"`
}

type evalReport struct {
	Object     string      `json:"object,omitempty" yaml:"object,omitempty" toml:"object,omitempty"`
	Properties []string    `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties,omitempty"`
	Value      interface{} `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
	Exception  string      `json:"exception,omitempty" yaml:"exception,omitempty" toml:"exception,omitempty"`
}

func buildReport(ctx context.Context, m *ui.Model, backend protocol.Backend) completionReport {
	pc := m.Context()
	r := completionReport{
		Pause:    string(pc.PauseID),
		Frame:    string(pc.FrameID),
		Status:   m.Session.Status().String(),
		Matches:  append([]string{}, m.Session.Matches()...),
		Accepted: m.Accepted,
	}
	if sel, ok := m.Session.Selected(); ok {
		r.Selected = sel
	}
	if !m.Accepted {
		r.Expression = m.Input.Value()
		return r
	}
	r.Expression = m.Result
	r.Result = evaluate(ctx, backend, pc, m.Result)
	return r
}

func evaluate(ctx context.Context, backend protocol.Backend, pc protocol.PauseContext, expr string) *evalReport {
	res, err := backend.Evaluate(ctx, pc.PauseID, pc.FrameID, expr)
	if err != nil {
		logger.FromContext(ctx).V(1).Info("evaluation failed", "expression", expr, "error", err)
		return &evalReport{Exception: err.Error()}
	}
	if res.Exception != "" {
		return &evalReport{Exception: res.Exception}
	}
	if !res.IsObject() {
		return &evalReport{Value: res.Value}
	}
	props, err := backend.GetPropertiesPreview(ctx, pc.PauseID, res.Object, true)
	if err != nil {
		logger.FromContext(ctx).V(1).Info("preview failed", "object", res.Object, "error", err)
	}
	return &evalReport{Object: string(res.Object), Properties: props}
}

// Lines lists the matches or, after acceptance, the expression and its result.
func (r completionReport) Lines() []string {
	if !r.Accepted {
		return r.Matches
	}
	lines := []string{r.Expression}
	if r.Result != nil {
		lines = append(lines, "= "+r.Result.String())
	}
	return lines
}

// Tree renders the matches below the expression, marking the selection.
func (r completionReport) Tree() formatter.Node {
	root := formatter.Node{Label: r.Expression}
	if r.Accepted {
		if r.Result != nil {
			root.Children = append(root.Children, formatter.Node{Label: r.Result.String()})
		}
		return root
	}
	for _, name := range r.Matches {
		label := name
		if name == r.Selected {
			label = "❯ " + name
		}
		root.Children = append(root.Children, formatter.Node{Label: label})
	}
	return root
}

func (e *evalReport) String() string {
	switch {
	case e.Exception != "":
		return "error: " + e.Exception
	case e.Object != "":
		return fmt.Sprintf("{%s}", strings.Join(e.Properties, ", "))
	case e.Value == nil:
		return "undefined"
	default:
		return formatter.Stringify(e.Value)
	}
}
