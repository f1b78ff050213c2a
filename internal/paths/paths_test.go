package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHost swaps the host lookups for the duration of a test.
func fakeHost(t *testing.T, goos string, env map[string]string) {
	t.Helper()
	saved := host
	t.Cleanup(func() { host = saved })

	host.goos = goos
	host.getenv = func(k string) string { return env[k] }
	host.getwd = func() (string, error) { return "/work", nil }
	host.homeDir = func() (string, error) { return "/home/u", nil }
	host.userConfigDir = func() (string, error) { return "/Users/u/Library/Application Support", nil }
}

func TestDefaultDirs(t *testing.T) {
	tests := []struct {
		name       string
		goos       string
		env        map[string]string
		wantConfig string
		wantData   string
	}{
		{
			name:       "linux with XDG",
			goos:       "linux",
			env:        map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			wantConfig: "/xdg/config/profiles",
			wantData:   "/xdg/data/profiles",
		},
		{
			name:       "linux without XDG",
			goos:       "linux",
			wantConfig: "/home/u/.config/profiles",
			wantData:   "/home/u/.local/share/profiles",
		},
		{
			name:       "darwin",
			goos:       "darwin",
			env:        map[string]string{"XDG_CONFIG_HOME": "/ignored"},
			wantConfig: "/Users/u/Library/Application Support/profiles",
			wantData:   "/Users/u/Library/Application Support/profiles",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeHost(t, tt.goos, tt.env)

			got, err := DefaultConfigDir()
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.wantConfig), got)

			got, err = DefaultDataDir()
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.wantData), got)
		})
	}
}

func TestDefaultConfigDir_HomeError(t *testing.T) {
	fakeHost(t, "linux", nil)
	host.homeDir = func() (string, error) { return "", errors.New("no home") }

	_, err := DefaultConfigDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"flag wins", "/flag/cfg", "/env/cfg", "/flag/cfg"},
		{"env when no flag", "", "/env/cfg", "/env/cfg"},
		{"platform default", "", "", "/home/u/.config/profiles"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeHost(t, "linux", map[string]string{EnvConfigDir: tt.env})
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	tests := []struct {
		name      string
		flag      string
		configVal string
		env       string
		want      string
	}{
		{"flag wins", "/flag/data", "/cfg/data", "/env/data", "/flag/data"},
		{"config beats env", "", "/cfg/data", "/env/data", "/cfg/data"},
		{"env when nothing else", "", "", "/env/data", "/env/data"},
		{"cwd default", "", "", "", "/work/.profiles-db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeHost(t, "linux", map[string]string{EnvDataDir: tt.env})
			got, err := ResolveDataDir(tt.flag, tt.configVal)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestResolve_RelativeOverridesBecomeAbsolute(t *testing.T) {
	fakeHost(t, "linux", map[string]string{EnvConfigDir: "rel/env"})

	got, err := ResolveConfigDir("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "env", filepath.Base(got))

	got, err = ResolveDataDir("rel/data", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}
