package completion

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/pausecomplete/internal/protocol"
)

// DefaultMaxVisibleRows is the most rows a completion popup shows at once.
const DefaultMaxVisibleRows = 10

// requestKey identifies the inputs a candidate set depends on. The tail is not
// part of it: typing more of a name only re-filters the current candidates.
type requestKey struct {
	head       string
	hasHead    bool
	pause      protocol.PauseID
	frame      protocol.FrameID
	generation uint64
}

// Request asks for the candidates of one (head, pause, frame) combination.
// It captures everything it needs, so Resolve may run on any goroutine.
type Request struct {
	Split Split
	Pause protocol.PauseContext

	key    requestKey
	source CandidateSource
}

// Resolve fetches the candidates for the request. It does not touch session state.
func (r *Request) Resolve(ctx context.Context) Resolution {
	if r == nil || r.source == nil {
		return Resolution{Result: Failed(nil)}
	}
	res := r.source.Resolve(ctx, *r)
	if res.Status != StatusReady && res.Status != StatusFailed {
		res = Failed(nil)
	}
	return Resolution{key: r.key, Result: res}
}

// Resolution is a resolved request, ready to be applied to the session that issued it.
type Resolution struct {
	key    requestKey
	Result Result
}

// Outcome describes what a key event did.
type Outcome struct {
	Handled   bool   // The key was consumed by the completion popup
	Submitted bool   // The session ended with a submitted match
	Value     string // The submitted match
}

// Option configures a Session.
type Option func(*Session)

// WithViewport sets the viewport told about selection changes.
func WithViewport(v Viewport) Option {
	return func(s *Session) { s.viewport = v }
}

// WithMaxVisibleRows caps VisibleRows. Values below 1 keep the default.
func WithMaxVisibleRows(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxRows = n
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(lgr logr.Logger) Option {
	return func(s *Session) { s.log = lgr }
}

// WithSubmitHandler registers a callback for submitted matches.
func WithSubmitHandler(fn func(value string)) Option {
	return func(s *Session) { s.onSubmit = fn }
}

// WithCancelHandler registers a callback for cancellation.
func WithCancelHandler(fn func()) Option {
	return func(s *Session) { s.onCancel = fn }
}

// Session wires splitting, candidate resolution, matching and selection for
// one expression editor. It is not safe for concurrent use; only
// Request.Resolve may run off the owning goroutine.
type Session struct {
	source   CandidateSource
	viewport Viewport
	maxRows  int
	log      logr.Logger
	onSubmit func(string)
	onCancel func()

	pause      protocol.PauseContext
	expr       string
	split      Split
	generation uint64
	// closed is set by Submit, Cancel and Reset. Only SetExpression reopens.
	closed bool

	key     requestKey
	hasKey  bool
	result  Result
	version uint64

	memo      matchMemo
	selection *Selection
	sub       *KeySubscription
}

// NewSession creates a session resolving candidates from source.
func NewSession(source CandidateSource, opts ...Option) *Session {
	s := &Session{
		source:  source,
		maxRows: DefaultMaxVisibleRows,
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.selection = NewSelection(s.viewport)
	return s
}

// SetSource swaps the candidate source and invalidates current candidates.
func (s *Session) SetSource(source CandidateSource) *Request {
	s.source = source
	return s.Invalidate()
}

// Invalidate discards current candidates, for example after the backend data
// changed, and returns the request that re-resolves them.
func (s *Session) Invalidate() *Request {
	s.generation++
	s.memo.reset()
	return s.update()
}

// SetPause changes the pause and frame candidates are resolved against.
func (s *Session) SetPause(pause protocol.PauseContext) *Request {
	s.pause = pause
	return s.update()
}

// Pause returns the current pause context.
func (s *Session) Pause() protocol.PauseContext {
	return s.pause
}

// SetExpression changes the expression text. It returns a request when new
// candidates must be resolved, or nil when the current ones still apply or
// there is nothing to complete.
func (s *Session) SetExpression(expr string) *Request {
	s.expr = expr
	s.split = SplitExpression(expr)
	s.closed = false
	return s.update()
}

// Reset replaces the expression text without resolving it, for example after
// the editor wrote an accepted match into its input. An active session ends
// without calling the cancel handler; pause changes and invalidation leave the
// session closed until the next SetExpression.
func (s *Session) Reset(expr string) {
	s.expr = expr
	s.split = SplitExpression(expr)
	s.end()
	s.closed = true
}

// Expression returns the current expression text.
func (s *Session) Expression() string {
	return s.expr
}

// Split returns the current expression split.
func (s *Session) Split() Split {
	return s.split
}

func (s *Session) update() *Request {
	if s.closed {
		return nil
	}
	if s.expr == "" || !s.pause.HasPause() {
		s.end()
		return nil
	}
	if !s.Active() {
		s.sub = &KeySubscription{session: s}
	}

	key := requestKey{
		head:       s.split.Head,
		hasHead:    s.split.HasHead,
		pause:      s.pause.PauseID,
		frame:      s.pause.FrameID,
		generation: s.generation,
	}
	if s.hasKey && key == s.key {
		s.refresh()
		return nil
	}

	s.key = key
	s.hasKey = true
	s.result = Pending()
	s.version++
	s.refresh()
	return &Request{Split: s.split, Pause: s.pause, key: key, source: s.source}
}

// Await resolves req synchronously and applies it.
func (s *Session) Await(ctx context.Context, req *Request) bool {
	if req == nil {
		return false
	}
	return s.Apply(req.Resolve(ctx))
}

// Apply installs a resolution. Resolutions for anything but the current
// (head, pause, frame) are stale and are dropped.
func (s *Session) Apply(res Resolution) bool {
	if !s.hasKey || res.key != s.key {
		s.log.V(1).Info("dropping stale completion result", "head", res.key.head, "pause", res.key.pause)
		return false
	}
	s.result = res.Result
	s.version++
	s.refresh()
	return true
}

// Status returns the state of the current candidate set.
func (s *Session) Status() Status {
	return s.result.Status
}

// Matches returns the current match list. Callers must not modify it.
func (s *Session) Matches() []string {
	if !s.hasKey {
		return []string{}
	}
	return s.memo.derive(matchKey{request: s.key, tail: s.split.Tail, generation: s.version}, s.split, s.result)
}

// SelectedIndex returns the selected match index, or false with no matches.
func (s *Session) SelectedIndex() (int, bool) {
	return s.selection.Index()
}

// Selected returns the selected match, or false with no matches.
func (s *Session) Selected() (string, bool) {
	idx, ok := s.selection.Index()
	if !ok {
		return "", false
	}
	matches := s.Matches()
	if idx >= len(matches) {
		return "", false
	}
	return matches[idx], true
}

// Select moves the selection to index, clamped into range.
func (s *Session) Select(index int) {
	s.selection.Select(index)
}

// VisibleRows is the number of rows a popup needs: the match count capped at
// the maximum visible row count.
func (s *Session) VisibleRows() int {
	n := len(s.Matches())
	if n > s.maxRows {
		return s.maxRows
	}
	return n
}

// Active reports whether the session holds its key subscription.
func (s *Session) Active() bool {
	return s.sub != nil && s.sub.Active()
}

// Subscription returns the current key subscription, or nil.
func (s *Session) Subscription() *KeySubscription {
	return s.sub
}

// HandleKey routes a key through the session's subscription.
func (s *Session) HandleKey(key Key) Outcome {
	if s.sub == nil {
		return Outcome{}
	}
	return s.sub.Dispatch(key)
}

// Submit ends the session with the selected match.
func (s *Session) Submit() (string, bool) {
	if !s.Active() {
		return "", false
	}
	value, ok := s.Selected()
	if !ok {
		return "", false
	}
	s.end()
	s.closed = true
	if s.onSubmit != nil {
		s.onSubmit(value)
	}
	return value, true
}

// Cancel ends the session without a value.
func (s *Session) Cancel() {
	if !s.Active() {
		return
	}
	s.end()
	s.closed = true
	if s.onCancel != nil {
		s.onCancel()
	}
}

func (s *Session) dispatch(key Key) Outcome {
	if len(s.Matches()) == 0 {
		return Outcome{}
	}
	switch key {
	case KeyEnter:
		value, ok := s.Submit()
		return Outcome{Handled: ok, Submitted: ok, Value: value}
	case KeyArrowUp, KeyArrowDown:
		return Outcome{Handled: s.selection.Move(key)}
	default:
		return Outcome{}
	}
}

func (s *Session) refresh() {
	s.selection.Resize(len(s.Matches()))
}

func (s *Session) end() {
	if s.sub != nil {
		s.sub.Release()
		s.sub = nil
	}
	s.hasKey = false
	s.result = Result{}
	s.memo.reset()
	s.selection.Reset()
}

// KeySubscription is the session's claim on key events. It is acquired when a
// session becomes active and released when it ends by submit, cancel, or the
// expression becoming empty. A released subscription ignores every key.
type KeySubscription struct {
	session  *Session
	released bool
}

// Active reports whether the subscription still receives keys.
func (k *KeySubscription) Active() bool {
	return k != nil && !k.released
}

// Dispatch delivers a key to the owning session.
func (k *KeySubscription) Dispatch(key Key) Outcome {
	if !k.Active() {
		return Outcome{}
	}
	return k.session.dispatch(key)
}

// Release stops delivery. It is safe to call more than once.
func (k *KeySubscription) Release() {
	if k != nil {
		k.released = true
	}
}
