package completion

import (
	"context"
	"errors"
	"fmt"

	"github.com/oakwood-commons/pausecomplete/internal/protocol"
)

// fakeBackend is an in-memory protocol.Backend for tests.
type fakeBackend struct {
	scopes     map[protocol.FrameID][]protocol.Scope
	props      map[protocol.ObjectID][]string
	values     map[string]protocol.EvalResult
	boundedCap int

	scopeErr   error
	previewErr map[protocol.ObjectID]error

	evalCalls    []string
	previewCalls []bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		scopes: map[protocol.FrameID][]protocol.Scope{
			"f0": {
				{Kind: "block", Object: "block"},
				{Kind: "function", Object: "fn"},
				{Kind: "global", Object: "global"},
			},
		},
		props: map[protocol.ObjectID][]string{
			"block":    {"item", "index"},
			"fn":       {"items", "index", "args"},
			"global":   {"window", "document", "items", "isNaN"},
			"document": {"body", "baseURI", "title", "body"},
			"window":   {"document", "location", "localStorage", "length"},
		},
		values: map[string]protocol.EvalResult{
			"document": {Object: "document"},
			"window":   {Object: "window"},
			"count":    {Value: 3.0},
			"oops":     {Exception: "ReferenceError: oops is not defined"},
		},
		previewErr: map[protocol.ObjectID]error{},
	}
}

func (b *fakeBackend) GetFrameScopes(_ context.Context, _ protocol.PauseID, frame protocol.FrameID) ([]protocol.Scope, error) {
	if b.scopeErr != nil {
		return nil, b.scopeErr
	}
	scopes, ok := b.scopes[frame]
	if !ok {
		return nil, fmt.Errorf("unknown frame %s", frame)
	}
	return scopes, nil
}

func (b *fakeBackend) Evaluate(_ context.Context, _ protocol.PauseID, _ protocol.FrameID, expr string) (protocol.EvalResult, error) {
	b.evalCalls = append(b.evalCalls, expr)
	res, ok := b.values[expr]
	if !ok {
		return protocol.EvalResult{}, errors.New("cannot evaluate " + expr)
	}
	return res, nil
}

func (b *fakeBackend) GetPropertiesPreview(_ context.Context, _ protocol.PauseID, object protocol.ObjectID, bounded bool) ([]string, error) {
	b.previewCalls = append(b.previewCalls, bounded)
	if err := b.previewErr[object]; err != nil {
		return nil, err
	}
	props, ok := b.props[object]
	if !ok {
		return nil, fmt.Errorf("unknown object %s", object)
	}
	if bounded && b.boundedCap > 0 && len(props) > b.boundedCap {
		return props[:b.boundedCap], nil
	}
	return props, nil
}

var testPause = protocol.PauseContext{PauseID: "p1", FrameID: "f0"}

func request(expr string, pause protocol.PauseContext) Request {
	return Request{Split: SplitExpression(expr), Pause: pause}
}
