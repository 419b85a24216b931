// Package protocol describes the debugger collaborators the completion engine
// consumes: pause and frame identity, scope chains, expression evaluation and
// object property previews.
package protocol

import "context"

// PauseID identifies a frozen point of execution in a recording.
type PauseID string

// FrameID identifies a stack frame at a pause.
type FrameID string

// ObjectID identifies a remote object at a pause.
type ObjectID string

// PauseContext is the pause (and optionally the selected frame) that evaluation
// and variable lookup are scoped to. An empty FrameID means no frame is selected.
type PauseContext struct {
	PauseID PauseID
	FrameID FrameID
}

// HasPause reports whether a pause is available.
func (p PauseContext) HasPause() bool {
	return p.PauseID != ""
}

// HasFrame reports whether a frame is selected.
func (p PauseContext) HasFrame() bool {
	return p.FrameID != ""
}

// Scope is one lexical binding environment of a frame. Its object's properties
// are the variable names bound in that scope.
type Scope struct {
	Kind   string
	Object ObjectID
}

// EvalResult is the outcome of evaluating an expression at a pause.
// Exactly one of Object, Value or Exception is meaningful.
type EvalResult struct {
	Object    ObjectID
	Value     interface{}
	Exception string
}

// IsObject reports whether the evaluation produced an object reference.
func (r EvalResult) IsObject() bool {
	return r.Object != "" && r.Exception == ""
}

// ScopeResolver returns the scope chain of a frame ordered innermost first.
type ScopeResolver interface {
	GetFrameScopes(ctx context.Context, pause PauseID, frame FrameID) ([]Scope, error)
}

// Evaluator evaluates expression text in the context of a pause and frame.
type Evaluator interface {
	Evaluate(ctx context.Context, pause PauseID, frame FrameID, expr string) (EvalResult, error)
}

// PreviewProvider returns an object's property names in preview order.
// When bounded is true the backend may truncate the list.
type PreviewProvider interface {
	GetPropertiesPreview(ctx context.Context, pause PauseID, object ObjectID, bounded bool) ([]string, error)
}

// Backend bundles every collaborator the completion engine needs.
type Backend interface {
	ScopeResolver
	Evaluator
	PreviewProvider
}
