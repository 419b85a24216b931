package cel

import (
	"reflect"
	"strings"
	"testing"
)

func TestNewEvaluator_CreatesValidEnvironment(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}
	if eval == nil {
		t.Fatal("NewEvaluator returned nil")
	}
	if eval.env == nil {
		t.Fatal("NewEvaluator left the environment unset")
	}
}

func TestEvaluate_FrameVariables(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}

	vars := map[string]interface{}{
		"count": int64(3),
		"name":  "pause",
		"items": []interface{}{int64(1), int64(2), int64(5)},
		"user":  map[string]interface{}{"email": "test@example.com", "tags": []interface{}{"a"}},
	}

	tests := []struct {
		name     string
		expr     string
		expected interface{}
	}{
		{"variable", "count", int64(3)},
		{"arithmetic", "count * 2", int64(6)},
		{"string ext", "name.upperAscii()", "PAUSE"},
		{"index", "items[2]", int64(5)},
		{"field", "user.email", "test@example.com"},
		{"size", "size(items)", int64(3)},
		{"comparison", "count > 2 && name == 'pause'", true},
		{"filter", "items.filter(x, x > 1)", []interface{}{int64(2), int64(5)}},
		{"map literal", "{'a': count}", map[string]interface{}{"a": int64(3)}},
		{"nested map", "user", map[string]interface{}{"email": "test@example.com", "tags": []interface{}{"a"}}},
		{"null", "null", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eval.Evaluate(tt.expr, vars)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("expected %#v, got %#v", tt.expected, result)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}

	tests := []struct {
		name    string
		expr    string
		wantMsg string
	}{
		{"undeclared", "missing + 1", "compilation error"},
		{"syntax", "count +", "compilation error"},
		{"runtime", "items[10]", "eval error"},
	}
	vars := map[string]interface{}{"count": int64(1), "items": []interface{}{}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eval.Evaluate(tt.expr, vars)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected %q in %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestEvaluate_SkipsInvalidIdentifiers(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}
	vars := map[string]interface{}{"$el": int64(1), "in": int64(2), "ok": true}
	result, err := eval.Evaluate("ok", vars)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result != true {
		t.Errorf("expected true, got %v", result)
	}
}

func TestIsIdentifier(t *testing.T) {
	valid := []string{"x", "_private", "window", "item2"}
	invalid := []string{"", "2x", "$el", "a-b", "in", "null", "while"}
	for _, name := range valid {
		if !IsIdentifier(name) {
			t.Errorf("expected %q to be an identifier", name)
		}
	}
	for _, name := range invalid {
		if IsIdentifier(name) {
			t.Errorf("expected %q not to be an identifier", name)
		}
	}
}

func TestSelectChain(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}

	tests := []struct {
		expr     string
		expected []string
		ok       bool
	}{
		{"window", []string{"window"}, true},
		{"window.document.body", []string{"window", "document", "body"}, true},
		{"items[0].name", []string{"items", "0", "name"}, true},
		{"cfg['log-level']", []string{"cfg", "log-level"}, true},
		{" spaced.path ", []string{"spaced", "path"}, true},
		{"f(x).y", nil, false},
		{"a + b", nil, false},
		{"items[i]", nil, false},
		{"has(a.b)", nil, false},
		{"'literal'", nil, false},
		{"a.", nil, false},
		{"", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, ok := eval.SelectChain(tt.expr)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v (%v)", tt.ok, ok, got)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
