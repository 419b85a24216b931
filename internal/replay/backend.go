package replay

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/pausecomplete/internal/cel"
	"github.com/oakwood-commons/pausecomplete/internal/protocol"
)

var (
	// ErrUnknownPause is returned for a pause id missing from the recording.
	ErrUnknownPause = errors.New("unknown pause")
	// ErrUnknownFrame is returned for a frame id missing from a pause.
	ErrUnknownFrame = errors.New("unknown frame")
	// ErrUnknownObject is returned for an object id missing from a pause.
	ErrUnknownObject = errors.New("unknown object")
)

// DefaultPreviewLimit is the number of properties a bounded preview returns.
const DefaultPreviewLimit = 10

// DefaultEphemeralLimit is how many evaluated objects a pause keeps before the
// oldest is evicted.
const DefaultEphemeralLimit = 256

const maxExactFloatInt = 1 << 53

// maxValueDepth bounds how deep objects are expanded into CEL values.
const maxValueDepth = 4

// Option configures a Backend.
type Option func(*Backend)

// WithPreviewLimit sets how many properties a bounded preview returns.
// Values below 1 disable truncation.
func WithPreviewLimit(n int) Option {
	return func(b *Backend) { b.previewLimit = n }
}

// WithEphemeralLimit caps the evaluated objects kept per pause. Values below 1
// keep the default.
func WithEphemeralLimit(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.ephemeralLimit = n
		}
	}
}

// WithLogger sets the backend logger.
func WithLogger(lgr logr.Logger) Option {
	return func(b *Backend) { b.log = lgr }
}

// Backend implements protocol.Backend over a Recording. Plain property paths
// are walked through the recorded objects; anything else is evaluated with
// CEL over the frame's variables. Object-valued CEL results are registered as
// ephemeral objects so their properties can be previewed. Evaluating the same
// expression in the same frame again reuses its object id.
type Backend struct {
	log            logr.Logger
	eval           *cel.Evaluator
	previewLimit   int
	ephemeralLimit int

	pauses []protocol.PauseID
	index  map[protocol.PauseID]*pauseIndex

	mu  sync.Mutex
	seq int
}

type pauseIndex struct {
	pause     *Pause
	frames    map[protocol.FrameID]*Frame
	objects   map[protocol.ObjectID]*Object
	// Evaluated objects, guarded by Backend.mu. order is oldest first.
	ephemeral map[protocol.ObjectID]*ephemeralObject
	evalIDs   map[string]protocol.ObjectID
	order     []protocol.ObjectID
}

type ephemeralObject struct {
	key string
	obj *Object
}

var _ protocol.Backend = (*Backend)(nil)

// NewBackend indexes rec for lookups. rec must not be modified afterwards.
func NewBackend(rec *Recording, opts ...Option) (*Backend, error) {
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recording: %w", err)
	}
	eval, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}

	b := &Backend{
		log:            logr.Discard(),
		eval:           eval,
		previewLimit:   DefaultPreviewLimit,
		ephemeralLimit: DefaultEphemeralLimit,
		index:          make(map[protocol.PauseID]*pauseIndex, len(rec.Pauses)),
	}
	for _, opt := range opts {
		opt(b)
	}

	for i := range rec.Pauses {
		p := &rec.Pauses[i]
		idx := &pauseIndex{
			pause:     p,
			frames:    make(map[protocol.FrameID]*Frame, len(p.Frames)),
			objects:   make(map[protocol.ObjectID]*Object, len(p.Objects)),
			ephemeral: make(map[protocol.ObjectID]*ephemeralObject),
			evalIDs:   make(map[string]protocol.ObjectID),
		}
		for j := range p.Frames {
			idx.frames[protocol.FrameID(p.Frames[j].ID)] = &p.Frames[j]
		}
		for j := range p.Objects {
			idx.objects[protocol.ObjectID(p.Objects[j].ID)] = &p.Objects[j]
		}
		b.pauses = append(b.pauses, protocol.PauseID(p.ID))
		b.index[protocol.PauseID(p.ID)] = idx
	}
	return b, nil
}

// Pauses returns the recorded pauses in recording order.
func (b *Backend) Pauses() []Pause {
	out := make([]Pause, 0, len(b.pauses))
	for _, id := range b.pauses {
		out = append(out, *b.index[id].pause)
	}
	return out
}

// DefaultContext returns the first pause and its top frame.
func (b *Backend) DefaultContext() protocol.PauseContext {
	if len(b.pauses) == 0 {
		return protocol.PauseContext{}
	}
	pc := protocol.PauseContext{PauseID: b.pauses[0]}
	if frames := b.index[b.pauses[0]].pause.Frames; len(frames) > 0 {
		pc.FrameID = protocol.FrameID(frames[0].ID)
	}
	return pc
}

// Context checks pause and frame exist and returns them as a PauseContext.
// An empty frame selects the pause's top frame.
func (b *Backend) Context(pause, frame string) (protocol.PauseContext, error) {
	idx, err := b.pauseIndex(protocol.PauseID(pause))
	if err != nil {
		return protocol.PauseContext{}, err
	}
	pc := protocol.PauseContext{PauseID: protocol.PauseID(pause)}
	if frame == "" {
		if len(idx.pause.Frames) > 0 {
			pc.FrameID = protocol.FrameID(idx.pause.Frames[0].ID)
		}
		return pc, nil
	}
	if _, ok := idx.frames[protocol.FrameID(frame)]; !ok {
		return protocol.PauseContext{}, fmt.Errorf("%w %s at pause %s", ErrUnknownFrame, frame, pause)
	}
	pc.FrameID = protocol.FrameID(frame)
	return pc, nil
}

// GetFrameScopes implements protocol.ScopeResolver.
func (b *Backend) GetFrameScopes(ctx context.Context, pause protocol.PauseID, frame protocol.FrameID) ([]protocol.Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, _, err := b.frame(pause, frame)
	if err != nil {
		return nil, err
	}
	scopes := make([]protocol.Scope, len(f.Scopes))
	for i, s := range f.Scopes {
		scopes[i] = protocol.Scope{Kind: s.Kind, Object: protocol.ObjectID(s.Object)}
	}
	return scopes, nil
}

// Evaluate implements protocol.Evaluator. Expressions that fail to compile or
// throw are reported as exceptions, not errors.
func (b *Backend) Evaluate(ctx context.Context, pause protocol.PauseID, frame protocol.FrameID, expr string) (protocol.EvalResult, error) {
	if err := ctx.Err(); err != nil {
		return protocol.EvalResult{}, err
	}
	f, idx, err := b.frame(pause, frame)
	if err != nil {
		return protocol.EvalResult{}, err
	}

	if chain, ok := b.eval.SelectChain(expr); ok {
		return b.walk(idx, f, chain), nil
	}

	vars := b.frameVars(idx, f)
	value, err := b.eval.Evaluate(expr, vars)
	if err != nil {
		b.log.V(1).Info("expression threw", "expr", expr, "error", err)
		return protocol.EvalResult{Exception: err.Error()}, nil
	}
	return b.wrap(idx, string(frame)+"\x00"+expr, value), nil
}

// GetPropertiesPreview implements protocol.PreviewProvider.
func (b *Backend) GetPropertiesPreview(ctx context.Context, pause protocol.PauseID, object protocol.ObjectID, bounded bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := b.pauseIndex(pause)
	if err != nil {
		return nil, err
	}
	obj, ok := b.object(idx, object)
	if !ok {
		return nil, fmt.Errorf("%w %s at pause %s", ErrUnknownObject, object, pause)
	}

	n := len(obj.Properties)
	if bounded && b.previewLimit > 0 && n > b.previewLimit {
		n = b.previewLimit
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = obj.Properties[i].Name
	}
	return names, nil
}

func (b *Backend) pauseIndex(pause protocol.PauseID) (*pauseIndex, error) {
	idx, ok := b.index[pause]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownPause, pause)
	}
	return idx, nil
}

func (b *Backend) frame(pause protocol.PauseID, frame protocol.FrameID) (*Frame, *pauseIndex, error) {
	idx, err := b.pauseIndex(pause)
	if err != nil {
		return nil, nil, err
	}
	f, ok := idx.frames[frame]
	if !ok {
		return nil, nil, fmt.Errorf("%w %s at pause %s", ErrUnknownFrame, frame, pause)
	}
	return f, idx, nil
}

func (b *Backend) object(idx *pauseIndex, id protocol.ObjectID) (*Object, bool) {
	if obj, ok := idx.objects[id]; ok {
		return obj, true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := idx.ephemeral[id]
	if !ok {
		return nil, false
	}
	return e.obj, true
}

// lookupVar finds name in the frame's scopes, innermost first.
func (b *Backend) lookupVar(idx *pauseIndex, f *Frame, name string) (Property, bool) {
	for _, s := range f.Scopes {
		if p, ok := findProperty(idx.objects[protocol.ObjectID(s.Object)], name); ok {
			return p, true
		}
	}
	return Property{}, false
}

func findProperty(obj *Object, name string) (Property, bool) {
	if obj == nil {
		return Property{}, false
	}
	for _, p := range obj.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// walk resolves a property path through recorded objects.
func (b *Backend) walk(idx *pauseIndex, f *Frame, chain []string) protocol.EvalResult {
	prop, ok := b.lookupVar(idx, f, chain[0])
	if !ok {
		return protocol.EvalResult{Exception: fmt.Sprintf("ReferenceError: %s is not defined", chain[0])}
	}
	for _, name := range chain[1:] {
		if !prop.IsObject() {
			if prop.Value == nil {
				return protocol.EvalResult{Exception: fmt.Sprintf("TypeError: cannot read properties of undefined (reading '%s')", name)}
			}
			// Properties of primitives are not recorded.
			prop = Property{Name: name}
			continue
		}
		obj, _ := b.object(idx, protocol.ObjectID(prop.Object))
		next, found := findProperty(obj, name)
		if !found {
			next = Property{Name: name}
		}
		prop = next
	}
	if prop.IsObject() {
		return protocol.EvalResult{Object: protocol.ObjectID(prop.Object)}
	}
	return protocol.EvalResult{Value: normalize(prop.Value)}
}

// frameVars flattens the frame's scopes into CEL variables. Inner bindings
// shadow outer ones.
func (b *Backend) frameVars(idx *pauseIndex, f *Frame) map[string]interface{} {
	vars := make(map[string]interface{})
	for _, s := range f.Scopes {
		obj := idx.objects[protocol.ObjectID(s.Object)]
		if obj == nil {
			continue
		}
		for _, p := range obj.Properties {
			if _, shadowed := vars[p.Name]; shadowed {
				continue
			}
			vars[p.Name] = b.toValue(idx, p, maxValueDepth)
		}
	}
	return vars
}

// toValue converts a property into a plain Go value. Arrays become slices,
// other objects become maps. Expansion stops at depth.
func (b *Backend) toValue(idx *pauseIndex, p Property, depth int) interface{} {
	if !p.IsObject() {
		return normalize(p.Value)
	}
	obj := idx.objects[protocol.ObjectID(p.Object)]
	if obj == nil || depth == 0 {
		return nil
	}
	if obj.Class == "Array" {
		items := make([]interface{}, 0, len(obj.Properties))
		for _, elem := range obj.Properties {
			if _, err := strconv.Atoi(elem.Name); err != nil {
				continue
			}
			items = append(items, b.toValue(idx, elem, depth-1))
		}
		return items
	}
	fields := make(map[string]interface{}, len(obj.Properties))
	for _, field := range obj.Properties {
		fields[field.Name] = b.toValue(idx, field, depth-1)
	}
	return fields
}

// wrap turns a CEL result into an EvalResult, registering maps and lists as
// ephemeral objects under key.
func (b *Backend) wrap(idx *pauseIndex, key string, value interface{}) protocol.EvalResult {
	switch v := value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := &Object{Class: "Object"}
		for _, k := range keys {
			obj.Properties = append(obj.Properties, Property{Name: k, Value: v[k]})
		}
		return protocol.EvalResult{Object: b.register(idx, key, obj)}
	case []interface{}:
		obj := &Object{Class: "Array"}
		for i, elem := range v {
			obj.Properties = append(obj.Properties, Property{Name: strconv.Itoa(i), Value: elem})
		}
		obj.Properties = append(obj.Properties, Property{Name: "length", Value: int64(len(v))})
		return protocol.EvalResult{Object: b.register(idx, key, obj)}
	default:
		return protocol.EvalResult{Value: value}
	}
}

// register stores obj under key, replacing an earlier object for the same key
// and evicting the oldest entries past the limit.
func (b *Backend) register(idx *pauseIndex, key string, obj *Object) protocol.ObjectID {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id, ok := idx.evalIDs[key]; ok {
		obj.ID = string(id)
		idx.ephemeral[id].obj = obj
		return id
	}

	b.seq++
	id := protocol.ObjectID(fmt.Sprintf("eval-%d", b.seq))
	obj.ID = string(id)
	idx.ephemeral[id] = &ephemeralObject{key: key, obj: obj}
	idx.evalIDs[key] = id
	idx.order = append(idx.order, id)

	for len(idx.order) > b.ephemeralLimit {
		oldest := idx.order[0]
		idx.order = idx.order[1:]
		delete(idx.evalIDs, idx.ephemeral[oldest].key)
		delete(idx.ephemeral, oldest)
		b.log.V(1).Info("evicted evaluated object", "object", string(oldest))
	}
	return id
}

// normalize maps decoder-specific numeric types onto the types CEL uses.
// JSON has no integers, so integral floats become int64 whichever format the
// recording was written in.
func normalize(v interface{}) interface{} {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) && math.Abs(n) <= maxExactFloatInt {
			return int64(n)
		}
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float32:
		return float64(n)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(n))
		for k, e := range n {
			out[k] = normalize(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(n))
		for i, e := range n {
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}
