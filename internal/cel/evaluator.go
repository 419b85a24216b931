package cel

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
)

// Evaluator compiles and evaluates CEL expressions against the variables of a
// paused frame.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates a new CEL evaluator with standard library functions.
func NewEvaluator() (*Evaluator, error) {
	env, err := newStandardCELEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// newStandardCELEnv creates a standard CEL environment with common extensions.
func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 4+len(opts))
	allOpts = append(allOpts,
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reserved words cannot be declared as CEL variables.
var reserved = map[string]bool{
	"true": true, "false": true, "null": true, "in": true,
	"as": true, "break": true, "const": true, "continue": true, "else": true,
	"for": true, "function": true, "if": true, "import": true, "let": true,
	"loop": true, "package": true, "namespace": true, "return": true,
	"var": true, "void": true, "while": true,
}

// IsIdentifier reports whether name can be referenced as a CEL variable.
func IsIdentifier(name string) bool {
	return identPattern.MatchString(name) && !reserved[name]
}

// Evaluate evaluates expr with vars bound as dynamically typed variables.
// Names that are not valid CEL identifiers are not visible to the expression.
// Example: "items[0]" or "size(items.filter(x, x > 2))"
func (e *Evaluator) Evaluate(expr string, vars map[string]interface{}) (interface{}, error) {
	names := make([]string, 0, len(vars))
	for name := range vars {
		if IsIdentifier(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	decls := make([]cel.EnvOption, len(names))
	activation := make(map[string]interface{}, len(names))
	for i, name := range names {
		decls[i] = cel.Variable(name, cel.DynType)
		activation[name] = vars[name]
	}

	env, err := e.env.Extend(decls...)
	if err != nil {
		return nil, fmt.Errorf("failed to declare frame variables: %w", err)
	}
	return EvaluateExpressionWithEnv(env, expr, activation)
}

// EvaluateExpressionWithEnv evaluates a CEL expression using the given environment.
// It handles compilation, program creation, evaluation, and result conversion.
func EvaluateExpressionWithEnv(env *cel.Env, expr string, vars map[string]interface{}) (interface{}, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}

	if vars == nil {
		vars = map[string]interface{}{}
	}
	result, _, err := prg.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}

	converted := ToGo(result)

	// Final fallback: if we still have a ref.Val after conversion, use Value()
	if refVal, ok := converted.(ref.Val); ok {
		converted = refVal.Value()
	}

	return converted, nil
}

// ToGo converts CEL types to Go native types recursively.
// Handles both CEL primitive types and collection types (List, Map).
func ToGo(val ref.Val) interface{} {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case types.Null:
		return nil
	}

	innerVal := val.Value()
	switch inner := innerVal.(type) {
	case []ref.Val:
		result := make([]interface{}, len(inner))
		for i, elem := range inner {
			result[i] = ToGo(elem)
		}
		return result
	case []interface{}:
		return convertSlice(inner)
	case map[string]interface{}:
		return convertMapValues(inner)
	case map[ref.Val]ref.Val:
		result := make(map[string]interface{}, len(inner))
		for k, v := range inner {
			result[fmt.Sprintf("%v", k.Value())] = ToGo(v)
		}
		return result
	}
	return innerVal
}

func convertSlice(in []interface{}) []interface{} {
	out := make([]interface{}, len(in))
	for i, elem := range in {
		switch v := elem.(type) {
		case ref.Val:
			out[i] = ToGo(v)
		case map[string]interface{}:
			out[i] = convertMapValues(v)
		default:
			out[i] = elem
		}
	}
	return out
}

// convertMapValues recursively converts map values from CEL types
func convertMapValues(m map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(m))
	for k, v := range m {
		switch inner := v.(type) {
		case ref.Val:
			result[k] = ToGo(inner)
		case map[string]interface{}:
			result[k] = convertMapValues(inner)
		case []interface{}:
			result[k] = convertSlice(inner)
		default:
			result[k] = v
		}
	}
	return result
}
