//revive:disable:exported
package completion

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-multierror"

	"github.com/oakwood-commons/pausecomplete/internal/protocol"
)

// Status is the availability of a candidate set.
type Status int

const (
	StatusIdle    Status = iota // No expression to complete
	StatusPending               // Resolution requested but not yet applied
	StatusReady                 // Candidates available (possibly empty)
	StatusFailed                // Resolution failed; treated as no candidates
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is a candidate set for one request.
// ScopeNames is filled when the request has no head, ObjectNames otherwise.
type Result struct {
	Status      Status
	ScopeNames  []string
	ObjectNames []string
	Err         error // Diagnostic only; never shown to the user
}

// Pending returns the placeholder result for an in-flight request.
func Pending() Result { return Result{Status: StatusPending} }

// Ready returns a successful result.
func Ready(scopeNames, objectNames []string) Result {
	return Result{Status: StatusReady, ScopeNames: scopeNames, ObjectNames: objectNames}
}

// Failed returns a failed result carrying err for diagnostics.
func Failed(err error) Result { return Result{Status: StatusFailed, Err: err} }

// Empty reports whether the result offers no candidates at all.
func (r Result) Empty() bool {
	return r.Status != StatusReady || (len(r.ScopeNames) == 0 && len(r.ObjectNames) == 0)
}

// CandidateSource gathers candidate names for a request.
// Resolve may block on remote lookups; it must be safe to call from any goroutine.
// It reports failures through StatusFailed and returns neither StatusIdle nor StatusPending.
type CandidateSource interface {
	Resolve(ctx context.Context, req Request) Result
}

// SourceFunc adapts a function to CandidateSource.
type SourceFunc func(ctx context.Context, req Request) Result

// Resolve implements CandidateSource.
func (f SourceFunc) Resolve(ctx context.Context, req Request) Result { return f(ctx, req) }

//revive:enable:exported

// SourceOption configures a BackendSource.
type SourceOption func(*BackendSource)

// WithCanOverflow lets the backend truncate property previews.
// When false (the default) the full property list is requested.
func WithCanOverflow(canOverflow bool) SourceOption {
	return func(s *BackendSource) { s.canOverflow = canOverflow }
}

// WithSourceLogger sets the logger used for resolution diagnostics.
func WithSourceLogger(lgr logr.Logger) SourceOption {
	return func(s *BackendSource) { s.log = lgr }
}

// BackendSource resolves candidates through debugger collaborators.
type BackendSource struct {
	backend     protocol.Backend
	canOverflow bool
	log         logr.Logger
}

// NewBackendSource creates a candidate source over backend.
func NewBackendSource(backend protocol.Backend, opts ...SourceOption) *BackendSource {
	s := &BackendSource{backend: backend, log: logr.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve implements CandidateSource.
func (s *BackendSource) Resolve(ctx context.Context, req Request) Result {
	lgr := s.log.WithValues("pause", req.Pause.PauseID, "frame", req.Pause.FrameID)
	var res Result
	if req.Split.HasHead {
		res = s.objectCandidates(ctx, req)
	} else {
		res = s.scopeCandidates(ctx, req)
	}
	if res.Status == StatusFailed {
		lgr.V(1).Info("candidate resolution failed", "head", req.Split.Head, "hasHead", req.Split.HasHead, "error", res.Err)
	}
	return res
}

// scopeCandidates collects variable names from every scope of the frame,
// innermost first. A name bound in an inner scope shadows the same name further
// out, so only its first occurrence is kept.
func (s *BackendSource) scopeCandidates(ctx context.Context, req Request) Result {
	if !req.Pause.HasFrame() {
		return Ready([]string{}, nil)
	}
	scopes, err := s.backend.GetFrameScopes(ctx, req.Pause.PauseID, req.Pause.FrameID)
	if err != nil {
		return Failed(fmt.Errorf("get frame scopes: %w", err))
	}

	seen := make(map[string]struct{})
	names := []string{}
	var errs *multierror.Error
	fetched := 0
	for _, scope := range scopes {
		if scope.Object == "" {
			continue
		}
		props, err := s.backend.GetPropertiesPreview(ctx, req.Pause.PauseID, scope.Object, s.canOverflow)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("preview %s scope %s: %w", scope.Kind, scope.Object, err))
			continue
		}
		fetched++
		names = appendUnique(names, seen, props)
	}
	if errs != nil {
		if fetched == 0 {
			return Failed(errs.ErrorOrNil())
		}
		s.log.V(1).Info("skipped unreadable scopes", "error", errs.Error())
	}
	return Ready(names, nil)
}

func (s *BackendSource) objectCandidates(ctx context.Context, req Request) Result {
	evaluated, err := s.backend.Evaluate(ctx, req.Pause.PauseID, req.Pause.FrameID, req.Split.Head)
	if err != nil {
		return Failed(fmt.Errorf("evaluate %q: %w", req.Split.Head, err))
	}
	if evaluated.Exception != "" {
		return Failed(fmt.Errorf("evaluate %q: %s", req.Split.Head, evaluated.Exception))
	}
	if !evaluated.IsObject() {
		return Ready(nil, []string{})
	}
	props, err := s.backend.GetPropertiesPreview(ctx, req.Pause.PauseID, evaluated.Object, s.canOverflow)
	if err != nil {
		return Failed(fmt.Errorf("preview %s: %w", evaluated.Object, err))
	}
	return Ready(nil, appendUnique([]string{}, make(map[string]struct{}), props))
}

func appendUnique(dst []string, seen map[string]struct{}, names []string) []string {
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		dst = append(dst, name)
	}
	return dst
}
