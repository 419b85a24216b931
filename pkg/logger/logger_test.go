package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/go-logr/zapr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/pausecomplete/pkg/settings"
)

// sink receives everything the global logger writes during the tests.
var sink bytes.Buffer

func TestMain(m *testing.M) {
	Setup(-1, &sink)
	code := m.Run()
	os.Exit(code)
}

// lastRecord decodes the most recent JSON line written to buf.
func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &rec))
	return rec
}

func TestSetupWritesJSONWithBuildFields(t *testing.T) {
	sink.Reset()
	lgr := Setup(0, io.Discard)
	lgr.Info("loaded recording", "pauses", 2)

	rec := lastRecord(t, &sink)
	assert.Equal(t, "loaded recording", rec[MessageKey])
	assert.Equal(t, float64(2), rec["pauses"])
	assert.Equal(t, settings.VersionInformation.Commit, rec[CommitKey])
	assert.Equal(t, settings.VersionInformation.BuildVersion, rec[VersionKey])
	assert.Contains(t, rec, TimeStampKey)
	assert.Contains(t, rec, GoVersionKey)
	assert.Contains(t, rec, "caller")
}

func TestSetupOnlyFirstCallTakesEffect(t *testing.T) {
	first := Setup(-1, io.Discard)
	var other bytes.Buffer
	second := Setup(0, &other)
	assert.Same(t, first, second)
	assert.Same(t, first, Get(0))
	assert.Same(t, first, GetGlobalLogger())

	second.Info("still goes to the first destination")
	assert.Zero(t, other.Len())
}

func TestSetupLevelEnablesDebugVerbosity(t *testing.T) {
	sink.Reset()
	lgr := Setup(-1, io.Discard)
	lgr.V(1).Info("dropping stale completion result", "head", "window")
	rec := lastRecord(t, &sink)
	assert.Equal(t, "window", rec["head"])

	sink.Reset()
	lgr.V(2).Info("too verbose")
	assert.Zero(t, sink.Len())
}

func TestNewZapLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lgr := zapr.NewLogger(newZapLogger(0, &buf))

	lgr.V(1).Info("hidden at info level")
	assert.Zero(t, buf.Len())

	lgr.Error(errors.New("boom"), "evaluation failed", "expression", "items[")
	rec := lastRecord(t, &buf)
	assert.Equal(t, "error", rec["level"])
	assert.Equal(t, "boom", rec["error"])
	assert.Equal(t, "items[", rec["expression"])
	assert.Contains(t, rec, "stacktrace")
}

func TestWithValuesAddsPauseFields(t *testing.T) {
	base := Setup(-1, io.Discard)
	scoped := WithValues(base, RecordingKey, "session.yaml", PauseKey, "p1", FrameKey, "f0")
	require.NotSame(t, base, scoped)

	sink.Reset()
	scoped.Info("resolved candidates", "count", 3)
	rec := lastRecord(t, &sink)
	assert.Equal(t, "session.yaml", rec[RecordingKey])
	assert.Equal(t, "p1", rec[PauseKey])
	assert.Equal(t, "f0", rec[FrameKey])

	sink.Reset()
	base.Info("unscoped")
	rec = lastRecord(t, &sink)
	assert.NotContains(t, rec, PauseKey)
}

func TestContextPropagation(t *testing.T) {
	base := Setup(-1, io.Discard)
	assert.Same(t, base, FromContext(context.Background()), "falls back to the global logger")

	ctx := WithLogger(context.Background(), base)
	assert.Same(t, base, FromContext(ctx))
	assert.Equal(t, ctx, WithLogger(ctx, base), "same logger keeps the context")

	scoped := WithValues(base, SubCommandKey, "pauses")
	next := WithLogger(ctx, scoped)
	assert.NotEqual(t, ctx, next)
	assert.Same(t, scoped, FromContext(next))
}

func TestNoopLogger(t *testing.T) {
	noop := GetNoopLogger()
	require.NotNil(t, noop)
	assert.False(t, noop.Enabled())
	assert.Same(t, noop, GetNoopLogger())
}

func TestIsIgnorableSyncError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "einval", err: syscall.EINVAL, want: true},
		{name: "enotty on a path", err: &os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.ENOTTY}, want: true},
		{name: "windows handle", err: errors.New("sync /dev/stderr: The handle is invalid."), want: true},
		{name: "other", err: errors.New("disk full"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isIgnorableSyncError(tt.err))
		})
	}
}

func TestSyncDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, Sync)
}
