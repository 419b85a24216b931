package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRoundTripsThroughContext(t *testing.T) {
	tests := []struct {
		name string
		run  *Run
	}{
		{name: "defaults", run: NewCliParams()},
		{
			name: "interactive watch",
			run: &Run{
				MinLogLevel: -1,
				Interactive: true,
				Recording:   RecordingSettings{Path: "session.yaml", Watch: true},
			},
		},
		{
			name: "explicit pause and frame",
			run: &Run{
				NoColor:   true,
				Recording: RecordingSettings{Path: "session.json", Pause: "p2", Frame: "f1"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := IntoContext(context.Background(), tt.run)
			got, ok := FromContext(ctx)
			require.True(t, ok)
			assert.Same(t, tt.run, got)
			assert.Equal(t, tt.run.Recording, got.Recording)
			assert.Equal(t, tt.run.Interactive, got.Interactive)
			assert.Equal(t, tt.run.Recording.Pause != "", got.HasPause())
		})
	}
}

func TestFromContextMissing(t *testing.T) {
	got, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)

	ctx := context.WithValue(context.Background(), settingsContextKey, "not a run")
	got, ok = FromContext(ctx)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestIntoContextReplacesEarlierRun(t *testing.T) {
	first := &Run{Recording: RecordingSettings{Pause: "p1"}}
	second := &Run{Interactive: true}
	ctx := IntoContext(IntoContext(context.Background(), first), second)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.False(t, got.HasPause())
	assert.True(t, got.Interactive)
}

func TestIntoContextNilRun(t *testing.T) {
	ctx := IntoContext(context.Background(), nil)
	got, ok := FromContext(ctx)
	assert.True(t, ok, "a typed nil is still a *Run")
	assert.Nil(t, got)
	assert.False(t, got.HasPause())
}
