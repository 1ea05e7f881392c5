package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbs-tools/qbs/internal/kvstore"
)

func newTestConfiguration(t *testing.T) *Configuration {
	t.Helper()
	cfg, err := LoadWithOptions(LoadOptions{
		ProjectConfigPath: missingProjectConfig(t),
		Overrides:         map[string]interface{}{"settings_dir": t.TempDir()},
	})
	require.NoError(t, err)
	return cfg
}

func seedSettingsFile(t *testing.T, cfg *Configuration, content string) string {
	t.Helper()
	backend, err := cfg.Backend()
	require.NoError(t, err)
	path, err := backend.Path(kvstore.Scope{Organization: cfg.Organization, Application: cfg.Application})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMigrateFormat(t *testing.T) {
	cfg := newTestConfiguration(t)
	source := seedSettingsFile(t, cfg, "[General]\nprofile=gcc\n\n[profiles]\ngcc\\cpp\\toolchainInstallPath=/usr/bin\n")

	result, err := MigrateFormat(cfg, kvstore.FormatYAML, false)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Keys)
	assert.Equal(t, source, result.SourcePath)
	assert.Equal(t, filepath.Join(cfg.SettingsDir, "QtProject", "qbs.yml"), result.TargetPath)

	target := &kvstore.FileBackend{Dir: cfg.SettingsDir, Format: kvstore.FormatYAML}
	h, err := target.Open(kvstore.Scope{Organization: "QtProject", Application: "qbs"}, kvstore.OpenOptions{ReadOnly: true})
	require.NoError(t, err)
	defer h.Close()

	v, ok := h.Value("profiles/gcc/cpp/toolchainInstallPath")
	require.True(t, ok)
	assert.Equal(t, "/usr/bin", v)
	assert.FileExists(t, source, "source is never modified")
}

func TestMigrateFormat_Skips(t *testing.T) {
	tests := map[string]struct {
		seedTarget  bool
		seedSource  bool
		wantMessage string
	}{
		"no source": {
			wantMessage: "No settings found",
		},
		"target exists": {
			seedSource:  true,
			seedTarget:  true,
			wantMessage: "already exists (skipped)",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := newTestConfiguration(t)
			if tt.seedSource {
				seedSettingsFile(t, cfg, "[General]\nprofile=gcc\n")
			}
			if tt.seedTarget {
				target := filepath.Join(cfg.SettingsDir, "QtProject", "qbs.json")
				require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
				require.NoError(t, os.WriteFile(target, []byte("{}"), 0o644))
			}

			result, err := MigrateFormat(cfg, kvstore.FormatJSON, false)
			require.NoError(t, err)
			assert.False(t, result.Success)
			assert.Contains(t, result.Message, tt.wantMessage)
		})
	}
}

func TestMigrateFormat_DryRun(t *testing.T) {
	cfg := newTestConfiguration(t)
	seedSettingsFile(t, cfg, "[General]\nprofile=gcc\n")

	result, err := MigrateFormat(cfg, kvstore.FormatJSON, true)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.DryRun)
	assert.Contains(t, result.Message, "Would migrate 1 keys")
	assert.NoFileExists(t, result.TargetPath)
}

func TestMigrateFormat_Errors(t *testing.T) {
	t.Run("same format", func(t *testing.T) {
		cfg := newTestConfiguration(t)
		_, err := MigrateFormat(cfg, kvstore.FormatINI, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already stored as ini")
	})

	t.Run("corrupt source", func(t *testing.T) {
		cfg := newTestConfiguration(t)
		seedSettingsFile(t, cfg, "[unterminated\n")
		_, err := MigrateFormat(cfg, kvstore.FormatYAML, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "format error")
	})
}

func TestBackupSettingsFile(t *testing.T) {
	tests := map[string]struct {
		exists   bool
		dryRun   bool
		wantBak  bool
		wantOrig bool
	}{
		"renames to bak":       {exists: true, wantBak: true},
		"dry run keeps file":   {exists: true, dryRun: true, wantOrig: true},
		"missing file is noop": {},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "qbs.conf")
			if tt.exists {
				require.NoError(t, os.WriteFile(path, []byte("[General]\n"), 0o644))
			}

			require.NoError(t, BackupSettingsFile(path, tt.dryRun))

			if tt.wantBak {
				assert.FileExists(t, path+".bak")
			} else {
				assert.NoFileExists(t, path+".bak")
			}
			if tt.wantOrig {
				assert.FileExists(t, path)
			} else {
				assert.NoFileExists(t, path)
			}
		})
	}
}
