package cel

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// SelectChain parses expr and, when it is a plain property path such as
// "window.document" or "items[0].name", returns its segments root first.
// Anything else (calls, operators, literals) reports false and has to be
// evaluated.
func (e *Evaluator) SelectChain(expr string) ([]string, bool) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, false
	}
	ast, issues := e.env.Parse(trimmed)
	if issues != nil && issues.Err() != nil {
		return nil, false
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return nil, false
	}
	return chainSegments(parsed.GetExpr())
}

// chainSegments walks ident, select and constant index nodes.
func chainSegments(expr *exprpb.Expr) ([]string, bool) {
	var segments []string
	for expr != nil {
		switch kind := expr.ExprKind.(type) {
		case *exprpb.Expr_IdentExpr:
			segments = append(segments, kind.IdentExpr.GetName())
			reverse(segments)
			return segments, true

		case *exprpb.Expr_SelectExpr:
			sel := kind.SelectExpr
			if sel.GetTestOnly() {
				return nil, false
			}
			segments = append(segments, sel.GetField())
			expr = sel.GetOperand()

		case *exprpb.Expr_CallExpr:
			call := kind.CallExpr
			if call.GetFunction() != "_[_]" || len(call.GetArgs()) != 2 {
				return nil, false
			}
			key, ok := constKey(call.GetArgs()[1].GetConstExpr())
			if !ok {
				return nil, false
			}
			segments = append(segments, key)
			expr = call.GetArgs()[0]

		default:
			return nil, false
		}
	}
	return nil, false
}

// constKey renders an index constant as a property name.
func constKey(c *exprpb.Constant) (string, bool) {
	if c == nil {
		return "", false
	}
	switch c.ConstantKind.(type) {
	case *exprpb.Constant_Int64Value:
		return fmt.Sprintf("%d", c.GetInt64Value()), true
	case *exprpb.Constant_Uint64Value:
		return fmt.Sprintf("%d", c.GetUint64Value()), true
	case *exprpb.Constant_StringValue:
		return c.GetStringValue(), true
	default:
		return "", false
	}
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
