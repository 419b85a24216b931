package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		errMsg  string
	}{
		{name: "limit only", cfg: Config{Limit: 10}},
		{name: "offset only", cfg: Config{Offset: 5}},
		{name: "limit and offset", cfg: Config{Limit: 10, Offset: 5}},
		{name: "tail ignores offset", cfg: Config{Tail: 10, Offset: 5}},
		{name: "zero values", cfg: Config{}},
		{name: "limit and tail", cfg: Config{Limit: 10, Tail: 5}, wantErr: true, errMsg: "mutually exclusive"},
		{name: "negative limit", cfg: Config{Limit: -1}, wantErr: true, errMsg: "--limit must be non-negative"},
		{name: "negative offset", cfg: Config{Offset: -1}, wantErr: true, errMsg: "--offset must be non-negative"},
		{name: "negative tail", cfg: Config{Tail: -1}, wantErr: true, errMsg: "--tail must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConfigIsActive(t *testing.T) {
	assert.False(t, Config{}.IsActive())
	assert.True(t, Config{Limit: 1}.IsActive())
	assert.True(t, Config{Offset: 1}.IsActive())
	assert.True(t, Config{Tail: 1}.IsActive())
}

func TestApply(t *testing.T) {
	names := []string{"document", "location", "localStorage", "length", "name", "navigator"}

	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{name: "inactive", cfg: Config{}, want: names},
		{name: "limit", cfg: Config{Limit: 2}, want: []string{"document", "location"}},
		{name: "offset", cfg: Config{Offset: 4}, want: []string{"name", "navigator"}},
		{name: "limit and offset", cfg: Config{Limit: 2, Offset: 1}, want: []string{"location", "localStorage"}},
		{name: "tail", cfg: Config{Tail: 1}, want: []string{"navigator"}},
		{name: "tail ignores offset", cfg: Config{Tail: 2, Offset: 1}, want: []string{"name", "navigator"}},
		{name: "offset past end", cfg: Config{Offset: 20}, want: []string{}},
		{name: "limit past end", cfg: Config{Limit: 100, Offset: 5}, want: []string{"navigator"}},
		{name: "tail past start", cfg: Config{Tail: 100}, want: names},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(tt.cfg, names))
		})
	}
}

func TestApplyCopies(t *testing.T) {
	names := []string{"a", "b", "c"}
	got := Apply(Config{Limit: 2}, names)
	got[0] = "z"
	assert.Equal(t, "a", names[0])

	empty := Apply(Config{Limit: 2}, []string(nil))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestBounds(t *testing.T) {
	start, end := Config{Offset: 2, Limit: 3}.Bounds(10)
	assert.Equal(t, 2, start)
	assert.Equal(t, 5, end)

	start, end = Config{Tail: 4}.Bounds(3)
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)
}
